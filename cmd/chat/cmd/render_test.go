package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/realReloadTime/web-development/internal/api"
	"github.com/realReloadTime/web-development/internal/envelope"
)

func testRoster() *api.Roster {
	return api.NewRoster(
		[]api.Participant{
			{UserID: "7", Username: "alice", IsAdmin: true},
			{UserID: "8", Username: "bob"},
			{UserID: "9", Email: "carol@example.com"},
		},
		nil,
	)
}

func at(hour, minute int) envelope.Timestamp {
	return envelope.Timestamp{Time: time.Date(2024, 5, 1, hour, minute, 0, 0, time.Local)}
}

func TestChatView_MessagesPrintedOnce(t *testing.T) {
	var out bytes.Buffer
	v := newChatView(&out, testRoster(), "7")

	first := []envelope.ChatMessage{
		{ID: "1", SenderID: "8", Content: "hi", CreatedAt: at(10, 22)},
		{ID: "2", SenderID: "7", Content: "hello", CreatedAt: at(10, 23)},
	}
	v.messages(first)
	// A history replay after a reconnect resends the whole log.
	v.messages(append(first, envelope.ChatMessage{ID: "3", SenderID: "42", Content: "who am i"}))

	assert.Equal(t,
		"[10:22] bob: hi\n"+
			"[10:23] you: hello\n"+
			"[--:--] User 42: who am i\n",
		out.String())
}

func TestChatView_SenderUsernameFromServerWins(t *testing.T) {
	var out bytes.Buffer
	v := newChatView(&out, testRoster(), "7")

	v.messages([]envelope.ChatMessage{{ID: "1", SenderID: "8", SenderUsername: "bobby", Content: "x", CreatedAt: at(9, 5)}})

	assert.Equal(t, "[09:05] bobby: x\n", out.String())
}

func TestChatView_PresenceOnlyOnChange(t *testing.T) {
	var out bytes.Buffer
	v := newChatView(&out, testRoster(), "7")

	online := []envelope.OnlineUser{{UserID: "8"}, {UserID: "7"}}
	v.presence(online, nil)
	v.presence([]envelope.OnlineUser{{UserID: "7"}, {UserID: "8"}}, nil)
	v.presence([]envelope.OnlineUser{{UserID: "7"}}, nil)

	assert.Equal(t, "* online: you, bob\n* online: you\n", out.String())
}

func TestChatView_TypingLine(t *testing.T) {
	var out bytes.Buffer
	v := newChatView(&out, testRoster(), "7")

	v.typingUsers([]envelope.ID{"7"})
	assert.Empty(t, out.String(), "own typing is never shown")

	v.typingUsers([]envelope.ID{"8"})
	v.typingUsers([]envelope.ID{"8"})
	v.typingUsers([]envelope.ID{"8", "9"})
	v.typingUsers(nil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"* bob is typing...",
		"* bob, carol@example.com are typing...",
		"* nobody is typing",
	}, lines)
}

func TestChatView_Who(t *testing.T) {
	var out bytes.Buffer
	v := newChatView(&out, testRoster(), "7")

	v.who(nil)
	v.who([]envelope.OnlineUser{{UserID: "9"}, {UserID: "8"}})

	assert.Equal(t, "* nobody is online\n* 2 online: bob, carol@example.com\n", out.String())
}

func TestRenderRooms(t *testing.T) {
	var out bytes.Buffer
	renderRooms(&out, []api.Room{
		{ID: "5", Name: "general", IsGroup: true, ParticipantCount: 3, CreatedAt: at(8, 0)},
		{ID: "6", ParticipantCount: 2},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if assert.Len(t, lines, 3) {
		assert.Equal(t, []string{"ID", "NAME", "KIND", "MEMBERS", "CREATED"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"5", "general", "group", "3", "2024-05-01", "08:00"}, strings.Fields(lines[1]))
		assert.Equal(t, []string{"6", "-", "private", "2", "-"}, strings.Fields(lines[2]))
	}
}

func TestRenderParticipants(t *testing.T) {
	var out bytes.Buffer
	renderParticipants(&out, testRoster(), map[envelope.ID]bool{"8": true})

	text := out.String()
	assert.Contains(t, text, "USER ID")
	assert.Regexp(t, `7\s+alice\s+yes\s+no`, text)
	assert.Regexp(t, `8\s+bob\s+no\s+yes`, text)
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("table"))
	assert.NoError(t, checkFormat("json"))
	assert.Error(t, checkFormat("yaml"))
}
