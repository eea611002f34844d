package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the value of the "type" field that tags every envelope on the wire.
type Type string

const (
	TypeMessage     Type = "message"
	TypeHistory     Type = "history"
	TypeTyping      Type = "typing"
	TypeOnlineUsers Type = "online_users"
	TypeSystem      Type = "system"
	TypeError       Type = "error"
	TypeRead        Type = "read"
	TypeReadReceipt Type = "read_receipt"
	TypePing        Type = "ping"
	TypePong        Type = "pong"
)

// ID identifies rooms, users and messages. The chat server emits integer ids,
// but ids are carried as strings so that callers never do arithmetic on them.
// An ID decodes from either a JSON number or a JSON string.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integer ids as JSON numbers and everything
// else as strings, so "007" and "+5" round-trip unchanged.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Timestamp is a time.Time that also understands the zone-less ISO layouts
// produced by the chat server (e.g. "2024-05-01T10:22:03.123456").
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized layout %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// ChatMessage is one message of a room. Its identity is ID: two messages with
// the same ID are the same logical message even if other fields differ.
type ChatMessage struct {
	ID             ID        `json:"id" validate:"required"`
	RoomID         ID        `json:"room_id,omitempty"`
	SenderID       ID        `json:"sender_id"`
	SenderUsername string    `json:"sender_username,omitempty"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type,omitempty"`
	CreatedAt      Timestamp `json:"created_at"`
	IsRead         bool      `json:"is_read"`
}

// OnlineUser is one entry of an online_users snapshot.
type OnlineUser struct {
	UserID      ID        `json:"user_id" validate:"required"`
	ConnectedAt Timestamp `json:"connected_at"`
}
