package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realReloadTime/web-development/internal/connection"
	"github.com/realReloadTime/web-development/internal/envelope"
)

func chatAPI(t *testing.T) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/chat/rooms":                `[{"id":5,"name":"general","is_group":true,"participant_count":2,"created_at":"2024-05-01T08:00:00"}]`,
		"/chat/rooms/5/participants": `[{"id":1,"room_id":5,"user_id":7,"username":"alice"},{"id":2,"room_id":5,"user_id":8,"username":"bob"}]`,
		"/chat/rooms/5/online":       `{"online_users":[{"user_id":8,"connected_at":"2024-05-01T08:00:00"}]}`,
		"/chat/rooms/5/messages":     `[{"id":1,"sender_id":8,"content":"hi","created_at":"2024-05-01T08:01:00"}]`,
		"/chat/unread":               `{"unread_count":4}`,
		"/users/all":                 `[]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoomsCommand(t *testing.T) {
	srv := chatAPI(t)

	out, _, err := runCLI(t, "rooms", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Regexp(t, `5\s+general\s+group\s+2`, out)

	out, _, err = runCLI(t, "rooms", "--api-url", srv.URL, "-f", "json")
	require.NoError(t, err)
	var rooms []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "general", rooms[0]["name"])
}

func TestRoomsCommand_RejectsUnknownFormat(t *testing.T) {
	srv := chatAPI(t)

	_, _, err := runCLI(t, "rooms", "--api-url", srv.URL, "-f", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestParticipantsCommand(t *testing.T) {
	srv := chatAPI(t)

	out, _, err := runCLI(t, "participants", "5", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Regexp(t, `7\s+alice\s+no\s+no`, out)
	assert.Regexp(t, `8\s+bob\s+no\s+yes`, out)
}

func TestHistoryCommand(t *testing.T) {
	srv := chatAPI(t)

	out, _, err := runCLI(t, "history", "5", "--api-url", srv.URL)
	require.NoError(t, err)
	stamp := time.Date(2024, 5, 1, 8, 1, 0, 0, time.UTC).Local().Format("15:04")
	assert.Equal(t, "["+stamp+"] bob: hi\n", out)

	_, _, err = runCLI(t, "history", "5", "--api-url", srv.URL, "--limit", "0")
	assert.Error(t, err)
}

func TestUnreadCommand(t *testing.T) {
	srv := chatAPI(t)

	out, _, err := runCLI(t, "unread", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "4 unread across all rooms\n", out)

	out, _, err = runCLI(t, "unread", "5", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "4 unread in room 5\n", out)
}

func TestMissingRoomReportsServerDetail(t *testing.T) {
	srv := chatAPI(t)

	_, _, err := runCLI(t, "participants", "404", "--api-url", srv.URL)
	assert.ErrorContains(t, err, "Not Found")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "chat v"+version+"\n", out)
}

func TestExpiredTokenWarns(t *testing.T) {
	srv := chatAPI(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice@example.com",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, stderr, err := runCLI(t, "rooms", "--api-url", srv.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, stderr, "access token for alice@example.com expired")
}

type fakeChatter struct {
	state      connection.State
	online     []envelope.OnlineUser
	sent       []string
	reconnects int
}

func (f *fakeChatter) State() connection.State       { return f.state }
func (f *fakeChatter) Online() []envelope.OnlineUser { return f.online }
func (f *fakeChatter) Stats() connection.Stats       { return connection.Stats{Sent: uint64(len(f.sent))} }
func (f *fakeChatter) Reconnect() error              { f.reconnects++; return nil }
func (f *fakeChatter) SendChatMessage(text string) bool {
	if f.state != connection.StateOpen {
		return false
	}
	f.sent = append(f.sent, text)
	return true
}

func TestHandleLine(t *testing.T) {
	var out bytes.Buffer
	view := newChatView(&out, testRoster(), "7")
	s := &fakeChatter{state: connection.StateOpen, online: []envelope.OnlineUser{{UserID: "8"}}}

	require.NoError(t, handleLine(s, view, "  hello  "))
	require.NoError(t, handleLine(s, view, ""))
	require.NoError(t, handleLine(s, view, "/who"))
	require.NoError(t, handleLine(s, view, "/stats"))
	require.NoError(t, handleLine(s, view, "/reconnect"))
	require.NoError(t, handleLine(s, view, "/nope"))
	assert.ErrorIs(t, handleLine(s, view, "/quit"), errLeave)

	assert.Equal(t, []string{"hello"}, s.sent)
	assert.Equal(t, 1, s.reconnects)
	assert.Contains(t, out.String(), "* 1 online: bob")
	assert.Contains(t, out.String(), "sent 1")
	assert.Contains(t, out.String(), "! unknown command /nope")
}

func TestHandleLine_NotConnected(t *testing.T) {
	var out bytes.Buffer
	view := newChatView(&out, testRoster(), "7")
	s := &fakeChatter{state: connection.StateReconnecting}

	require.NoError(t, handleLine(s, view, "hello"))

	assert.Empty(t, s.sent)
	assert.Equal(t, "! not sent, connection is reconnecting\n", out.String())
}

func TestScanLines_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanLines(ctx, strings.NewReader("one\ntwo\nthree\n"), lines)
	}()

	assert.Equal(t, "one", <-lines)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner still blocked after cancel")
	}
	_, open := <-lines
	assert.False(t, open)
}

func TestScanLines_ClosesAtEOF(t *testing.T) {
	lines := make(chan string)
	go scanLines(context.Background(), strings.NewReader("a\nb"), lines)

	var got []string
	for l := range lines {
		got = append(got, l)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestRunInput_EndOfInputLeaves(t *testing.T) {
	var out bytes.Buffer
	view := newChatView(&out, testRoster(), "7")
	lines := make(chan string, 2)
	lines <- "hi"
	close(lines)

	s := &fakeChatter{state: connection.StateOpen}
	err := runInput(context.Background(), s, view, lines)

	assert.ErrorIs(t, err, errLeave)
	assert.Equal(t, []string{"hi"}, s.sent)
}
