package session

import (
	"github.com/realReloadTime/web-development/internal/envelope"
	"github.com/realReloadTime/web-development/internal/pubsub"
)

// Bus topics a Session publishes its change events on.
var (
	StateTopic    = pubsub.NewEvent[StateEvent]("chat.session.state")
	MessagesTopic = pubsub.NewEvent[MessagesEvent]("chat.session.messages")
	PresenceTopic = pubsub.NewEvent[PresenceEvent]("chat.session.presence")
	ErrorTopic    = pubsub.NewEvent[ErrorEvent]("chat.session.error")
	SystemTopic   = pubsub.NewEvent[SystemEvent]("chat.session.system")
)

// StateEvent reports a connection state transition.
type StateEvent struct {
	RoomID string `json:"room_id"`
	State  string `json:"state"`
}

// MessagesEvent carries the full message log after a change.
type MessagesEvent struct {
	RoomID   string                 `json:"room_id"`
	Messages []envelope.ChatMessage `json:"messages"`
}

// PresenceEvent carries the online snapshot and the users typing right now.
type PresenceEvent struct {
	RoomID string                `json:"room_id"`
	Online []envelope.OnlineUser `json:"online"`
	Typing []envelope.ID         `json:"typing"`
}

// Error kinds.
const (
	ErrorKindProtocol     = "protocol"
	ErrorKindConnectivity = "connectivity"
)

// ErrorEvent reports an error surfaced by the connection.
type ErrorEvent struct {
	RoomID  string `json:"room_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SystemEvent carries an informational server notice.
type SystemEvent struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}
