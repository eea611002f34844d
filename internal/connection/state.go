package connection

// State is the lifecycle state of a Manager.
type State int32

const (
	// StateIdle is the initial state before the first Connect.
	StateIdle State = iota
	// StateConnecting means a transport is being dialed.
	StateConnecting
	// StateOpen means the transport is established and outbound operations succeed.
	StateOpen
	// StateReconnecting means the transport closed abnormally and a redial is scheduled.
	StateReconnecting
	// StateClosed means no transport is open and none is scheduled.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
