// Package envelope implements the typed message protocol spoken over a chat
// room connection. Every frame is a JSON object whose "type" field selects one
// of a closed set of variants.
package envelope

import "encoding/json"

// Envelope is one typed unit of protocol traffic. The set of implementations is
// closed; switch on the concrete type to route it.
type Envelope interface {
	Type() Type
	isEnvelope()
}

// Message carries a single live chat message (server → client).
type Message struct {
	Message ChatMessage `json:"message"`
}

// History carries the ordered backlog of the room, sent once after connect.
type History struct {
	Messages []ChatMessage `json:"messages" validate:"dive"`
}

// Typing reports that a user started or stopped composing. Clients send it
// without a UserID; the server fills it in before fanning it out.
type Typing struct {
	UserID   ID   `json:"user_id,omitempty" validate:"required"`
	IsTyping bool `json:"is_typing"`
}

// OnlineUsers is the authoritative set of users connected to the room.
type OnlineUsers struct {
	Users []OnlineUser `json:"users" validate:"dive"`
}

// System is an informational notice from the server.
type System struct {
	Message string `json:"message"`
}

// Error is a protocol-level failure reported by the server.
type Error struct {
	Reason string `json:"error"`
}

// ReadAck tells the server that the local user has read a message.
type ReadAck struct {
	MessageID ID `json:"message_id" validate:"required"`
}

// ReadReceipt tells the client that another participant read a message.
type ReadReceipt struct {
	UserID    ID `json:"user_id"`
	MessageID ID `json:"message_id" validate:"required"`
}

// SendMessage is the outbound form of a chat message; the server assigns the id.
type SendMessage struct {
	Content string `json:"content"`
}

// Ping is an application-level keepalive.
type Ping struct{}

// Pong answers a Ping.
type Pong struct{}

// Unknown holds a well-formed frame whose tag is not part of the protocol.
type Unknown struct {
	Tag Type
	Raw json.RawMessage
}

func (Message) Type() Type     { return TypeMessage }
func (History) Type() Type     { return TypeHistory }
func (Typing) Type() Type      { return TypeTyping }
func (OnlineUsers) Type() Type { return TypeOnlineUsers }
func (System) Type() Type      { return TypeSystem }
func (Error) Type() Type       { return TypeError }
func (ReadAck) Type() Type     { return TypeRead }
func (ReadReceipt) Type() Type { return TypeReadReceipt }
func (SendMessage) Type() Type { return TypeMessage }
func (Ping) Type() Type        { return TypePing }
func (Pong) Type() Type        { return TypePong }
func (u Unknown) Type() Type   { return u.Tag }

func (Message) isEnvelope()     {}
func (History) isEnvelope()     {}
func (Typing) isEnvelope()      {}
func (OnlineUsers) isEnvelope() {}
func (System) isEnvelope()      {}
func (Error) isEnvelope()       {}
func (ReadAck) isEnvelope()     {}
func (ReadReceipt) isEnvelope() {}
func (SendMessage) isEnvelope() {}
func (Ping) isEnvelope()        {}
func (Pong) isEnvelope()        {}
func (Unknown) isEnvelope()     {}
