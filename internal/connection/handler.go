package connection

import "github.com/realReloadTime/web-development/internal/envelope"

// Handler receives change notifications from a Manager. All methods are called
// from the manager's event loop, one at a time. They must not block and must
// not call back into the Manager synchronously.
type Handler interface {
	OnStateChange(State)
	// OnError receives *ProtocolError and *ConnectivityError values.
	OnError(error)
	// OnMessages receives a snapshot of the message log after every change.
	OnMessages([]envelope.ChatMessage)
	// OnPresence receives the online set and the users typing right now.
	OnPresence(online []envelope.OnlineUser, typing []envelope.ID)
	// OnSystem receives informational server notices.
	OnSystem(string)
}

// HandlerFuncs adapts optional functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	StateChange func(State)
	Error       func(error)
	Messages    func([]envelope.ChatMessage)
	Presence    func(online []envelope.OnlineUser, typing []envelope.ID)
	System      func(string)
}

func (h HandlerFuncs) OnStateChange(s State) {
	if h.StateChange != nil {
		h.StateChange(s)
	}
}

func (h HandlerFuncs) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

func (h HandlerFuncs) OnMessages(msgs []envelope.ChatMessage) {
	if h.Messages != nil {
		h.Messages(msgs)
	}
}

func (h HandlerFuncs) OnPresence(online []envelope.OnlineUser, typing []envelope.ID) {
	if h.Presence != nil {
		h.Presence(online, typing)
	}
}

func (h HandlerFuncs) OnSystem(msg string) {
	if h.System != nil {
		h.System(msg)
	}
}
