// Package messagelog keeps the ordered, de-duplicated message sequence of the
// active room.
package messagelog

import "github.com/realReloadTime/web-development/internal/envelope"

// Log is an ordered sequence of chat messages keyed by id. Entries stay in the
// order the server delivered them; the log never re-sorts by timestamp.
//
// Log is not safe for concurrent use. The connection manager owns it and only
// touches it from its event loop.
type Log struct {
	entries []envelope.ChatMessage
	index   map[envelope.ID]int
}

// New returns an empty log.
func New() *Log {
	return &Log{index: make(map[envelope.ID]int)}
}

// Append adds msg at the end. If a message with the same id is already present
// the new copy replaces it in place and Append reports true.
func (l *Log) Append(msg envelope.ChatMessage) (replaced bool) {
	if i, ok := l.index[msg.ID]; ok {
		l.entries[i] = msg
		return true
	}
	l.index[msg.ID] = len(l.entries)
	l.entries = append(l.entries, msg)
	return false
}

// ReplaceAll swaps the whole sequence for msgs, as delivered by a history
// snapshot. Duplicate ids inside msgs collapse onto their first position.
func (l *Log) ReplaceAll(msgs []envelope.ChatMessage) {
	next := &Log{
		entries: make([]envelope.ChatMessage, 0, len(msgs)),
		index:   make(map[envelope.ID]int, len(msgs)),
	}
	for _, m := range msgs {
		next.Append(m)
	}
	*l = *next
}

// MarkRead flips the read flag of the message with the given id. It reports
// whether the entry existed and changed.
func (l *Log) MarkRead(id envelope.ID) bool {
	i, ok := l.index[id]
	if !ok || l.entries[i].IsRead {
		return false
	}
	l.entries[i].IsRead = true
	return true
}

// Get returns the message with the given id.
func (l *Log) Get(id envelope.ID) (envelope.ChatMessage, bool) {
	i, ok := l.index[id]
	if !ok {
		return envelope.ChatMessage{}, false
	}
	return l.entries[i], true
}

func (l *Log) Len() int { return len(l.entries) }

// Snapshot returns a copy of the sequence that callers may keep.
func (l *Log) Snapshot() []envelope.ChatMessage {
	out := make([]envelope.ChatMessage, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset empties the log.
func (l *Log) Reset() {
	l.entries = nil
	l.index = make(map[envelope.ID]int)
}
