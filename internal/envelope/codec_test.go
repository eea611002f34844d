package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Message(t *testing.T) {
	frame := `{
		"type": "message",
		"message": {
			"id": 42,
			"room_id": 7,
			"sender_id": 3,
			"content": "hello",
			"message_type": "text",
			"created_at": "2024-05-01T10:22:03.123456",
			"is_read": false,
			"sender_username": "ann"
		},
		"timestamp": "2024-05-01T10:22:03.200000"
	}`

	env, err := Decode([]byte(frame))
	require.NoError(t, err)

	msg, ok := env.(Message)
	require.True(t, ok, "expected Message, got %T", env)
	assert.Equal(t, ID("42"), msg.Message.ID)
	assert.Equal(t, ID("7"), msg.Message.RoomID)
	assert.Equal(t, ID("3"), msg.Message.SenderID)
	assert.Equal(t, "hello", msg.Message.Content)
	assert.Equal(t, "ann", msg.Message.SenderUsername)
	assert.False(t, msg.Message.IsRead)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 22, 3, 123456000, time.UTC), msg.Message.CreatedAt.Time)
}

func TestDecode_History(t *testing.T) {
	frame := `{"type":"history","messages":[
		{"id":"1","sender_id":"a","content":"one","created_at":"2024-05-01T10:00:00Z","is_read":true},
		{"id":"2","sender_id":"b","content":"two","created_at":null,"is_read":false}
	]}`

	env, err := Decode([]byte(frame))
	require.NoError(t, err)

	hist, ok := env.(History)
	require.True(t, ok)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, ID("1"), hist.Messages[0].ID)
	assert.Equal(t, ID("2"), hist.Messages[1].ID)
	assert.True(t, hist.Messages[1].CreatedAt.IsZero())
}

func TestDecode_HistoryWithoutMessagesIsEmpty(t *testing.T) {
	env, err := Decode([]byte(`{"type":"history"}`))
	require.NoError(t, err)
	assert.Empty(t, env.(History).Messages)
}

func TestDecode_PresenceAndControl(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Envelope
	}{
		{
			name:  "typing",
			frame: `{"type":"typing","room_id":1,"user_id":5,"is_typing":true,"timestamp":"x"}`,
			want:  Typing{UserID: "5", IsTyping: true},
		},
		{
			name:  "online users",
			frame: `{"type":"online_users","users":[{"user_id":1},{"user_id":"2"}]}`,
			want:  OnlineUsers{Users: []OnlineUser{{UserID: "1"}, {UserID: "2"}}},
		},
		{
			name:  "system",
			frame: `{"type":"system","message":"user 4 joined"}`,
			want:  System{Message: "user 4 joined"},
		},
		{
			name:  "error",
			frame: `{"type":"error","error":"room not found"}`,
			want:  Error{Reason: "room not found"},
		},
		{
			name:  "read receipt",
			frame: `{"type":"read_receipt","room_id":1,"user_id":2,"message_id":9}`,
			want:  ReadReceipt{UserID: "2", MessageID: "9"},
		},
		{
			name:  "pong",
			frame: `{"type":"pong","timestamp":"2024-05-01T10:00:00"}`,
			want:  Pong{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, env)
		})
	}
}

func TestDecode_UnknownTagFallsBack(t *testing.T) {
	frame := []byte(`{"type":"reaction","emoji":"+1"}`)

	env, err := Decode(frame)
	require.NoError(t, err)

	unknown, ok := env.(Unknown)
	require.True(t, ok)
	assert.Equal(t, Type("reaction"), unknown.Type())
	assert.JSONEq(t, string(frame), string(unknown.Raw))
}

func TestDecode_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":                 `{"type":"message"`,
		"array":                    `[1,2,3]`,
		"missing type":             `{"message":{"id":1}}`,
		"null":                     `null`,
		"message without id":       `{"type":"message","message":{"content":"x"}}`,
		"bad id type":              `{"type":"message","message":{"id":true}}`,
		"typing without user":      `{"type":"typing","is_typing":true}`,
		"history entry without id": `{"type":"history","messages":[{"id":1},{"content":"x"}]}`,
		"online user without id":   `{"type":"online_users","users":[{}]}`,
		"bad timestamp":            `{"type":"message","message":{"id":1,"created_at":"yesterday"}}`,
	}

	for name, frame := range tests {
		t.Run(name, func(t *testing.T) {
			env, err := Decode([]byte(frame))
			assert.Nil(t, env)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_MissingTypeIsDistinguishable(t *testing.T) {
	_, err := Decode([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestEncode_Outbound(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{"send message", SendMessage{Content: "hi there"}, `{"type":"message","content":"hi there"}`},
		{"typing", Typing{IsTyping: true}, `{"type":"typing","is_typing":true}`},
		{"stop typing", Typing{IsTyping: false}, `{"type":"typing","is_typing":false}`},
		{"read ack numeric id", ReadAck{MessageID: "17"}, `{"type":"read","message_id":17}`},
		{"read ack opaque id", ReadAck{MessageID: "m-17"}, `{"type":"read","message_id":"m-17"}`},
		{"read ack zero padded id", ReadAck{MessageID: "007"}, `{"type":"read","message_id":"007"}`},
		{"read ack signed id", ReadAck{MessageID: "+5"}, `{"type":"read","message_id":"+5"}`},
		{"read ack negative id", ReadAck{MessageID: "-3"}, `{"type":"read","message_id":-3}`},
		{"ping", Ping{}, `{"type":"ping"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.env)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestEncode_TagComesFirst(t *testing.T) {
	got, err := Encode(SendMessage{Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"message","content":"x"}`, string(got))
}

func TestEncode_ServerFramesDecodeBack(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	original := History{Messages: []ChatMessage{
		{ID: "1", SenderID: "9", Content: "a", CreatedAt: Timestamp{created}},
		{ID: "2", SenderID: "9", Content: "b", IsRead: true},
	}}

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	hist := decoded.(History)
	require.Len(t, hist.Messages, 2)
	assert.True(t, created.Equal(hist.Messages[0].CreatedAt.Time))
	assert.True(t, hist.Messages[1].IsRead)
}

func TestID_JSON(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[1, "2", null, "abc", 12345678901234]`), &ids))
	assert.Equal(t, []ID{"1", "2", "", "abc", "12345678901234"}, ids)

	out, err := json.Marshal([]ID{"1", "abc", "007", "+5", "0"})
	require.NoError(t, err)
	assert.Equal(t, `[1,"abc","007","+5",0]`, string(out))

	var back []ID
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, []ID{"1", "abc", "007", "+5", "0"}, back)
}
