package messagelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realReloadTime/web-development/internal/envelope"
)

func msg(id, content string) envelope.ChatMessage {
	return envelope.ChatMessage{ID: envelope.ID(id), SenderID: "1", Content: content}
}

func ids(msgs []envelope.ChatMessage) []envelope.ID {
	out := make([]envelope.ID, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestLog_AppendKeepsArrivalOrder(t *testing.T) {
	l := New()
	l.Append(msg("3", "c"))
	l.Append(msg("1", "a"))
	l.Append(msg("2", "b"))

	assert.Equal(t, []envelope.ID{"3", "1", "2"}, ids(l.Snapshot()))
}

func TestLog_RedeliveryReplacesInPlace(t *testing.T) {
	l := New()
	l.ReplaceAll([]envelope.ChatMessage{msg("1", "a"), msg("2", "b")})
	l.Append(msg("3", "c"))

	updated := msg("2", "b")
	updated.IsRead = true
	replaced := l.Append(updated)

	assert.True(t, replaced)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []envelope.ID{"1", "2", "3"}, ids(l.Snapshot()))

	got, ok := l.Get("2")
	require.True(t, ok)
	assert.True(t, got.IsRead)
}

func TestLog_HistoryThenLiveMessages(t *testing.T) {
	history := []envelope.ChatMessage{msg("10", "x"), msg("11", "y"), msg("12", "z")}
	live := []envelope.ChatMessage{msg("13", "p"), msg("11", "y2"), msg("14", "q"), msg("13", "p2")}

	l := New()
	l.ReplaceAll(history)
	for _, m := range live {
		l.Append(m)
	}

	snap := l.Snapshot()
	assert.Equal(t, []envelope.ID{"10", "11", "12", "13", "14"}, ids(snap))
	assert.Equal(t, "y2", snap[1].Content)
	assert.Equal(t, "p2", snap[3].Content)
}

func TestLog_ReplaceAllDiscardsPreviousEntries(t *testing.T) {
	l := New()
	l.Append(msg("1", "a"))
	l.Append(msg("2", "b"))

	l.ReplaceAll([]envelope.ChatMessage{msg("5", "e"), msg("5", "e2"), msg("6", "f")})

	assert.Equal(t, []envelope.ID{"5", "6"}, ids(l.Snapshot()))
	_, ok := l.Get("1")
	assert.False(t, ok)

	got, _ := l.Get("5")
	assert.Equal(t, "e2", got.Content)
}

func TestLog_SnapshotIsACopy(t *testing.T) {
	l := New()
	l.Append(msg("1", "a"))

	snap := l.Snapshot()
	snap[0].Content = "mutated"

	got, _ := l.Get("1")
	assert.Equal(t, "a", got.Content)
}

func TestLog_MarkRead(t *testing.T) {
	l := New()
	l.Append(msg("1", "a"))

	assert.True(t, l.MarkRead("1"))
	assert.False(t, l.MarkRead("1"), "already read")
	assert.False(t, l.MarkRead("404"))
}

func TestLog_Reset(t *testing.T) {
	l := New()
	l.Append(msg("1", "a"))
	l.Reset()

	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Snapshot())

	assert.False(t, l.Append(msg("1", "a")), "reset forgets ids")
}
