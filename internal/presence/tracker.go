package presence

import (
	"slices"
	"time"

	"github.com/realReloadTime/web-development/internal/envelope"
)

// DefaultFreshnessWindow is how long a "typing" signal stays valid without a refresh.
const DefaultFreshnessWindow = 3 * time.Second

// Tracker holds the online set and typing state of one room.
//
// The online set is only ever replaced wholesale from server snapshots. Typing
// entries are never swept; staleness is evaluated when they are read, so a
// lost "stopped typing" signal simply ages out.
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	online []envelope.OnlineUser
	typing map[envelope.ID]time.Time
	window time.Duration
	now    func() time.Time
}

// Option is a function that configures a Tracker.
type Option func(*Tracker)

// WithFreshnessWindow overrides DefaultFreshnessWindow.
func WithFreshnessWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

// WithClock sets the time source used for typing timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		typing: make(map[envelope.ID]time.Time),
		window: DefaultFreshnessWindow,
		now:    Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetOnline replaces the online set with users.
func (t *Tracker) SetOnline(users []envelope.OnlineUser) {
	t.online = slices.Clone(users)
}

// Online returns a copy of the latest online snapshot.
func (t *Tracker) Online() []envelope.OnlineUser {
	return slices.Clone(t.online)
}

// IsOnline reports whether userID is in the latest online snapshot.
func (t *Tracker) IsOnline(userID envelope.ID) bool {
	return slices.ContainsFunc(t.online, func(u envelope.OnlineUser) bool {
		return u.UserID == userID
	})
}

// SetTyping records (isTyping) or clears (!isTyping) the typing entry of userID.
func (t *Tracker) SetTyping(userID envelope.ID, isTyping bool) {
	if !isTyping {
		delete(t.typing, userID)
		return
	}
	t.typing[userID] = t.now()
}

// IsActivelyTyping reports whether userID signaled typing within the freshness window.
func (t *Tracker) IsActivelyTyping(userID envelope.ID) bool {
	at, ok := t.typing[userID]
	return ok && t.fresh(at)
}

// TypingUsers returns the users currently typing, sorted by id.
func (t *Tracker) TypingUsers() []envelope.ID {
	var out []envelope.ID
	for id, at := range t.typing {
		if t.fresh(at) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Window returns the configured freshness window.
func (t *Tracker) Window() time.Duration { return t.window }

// Reset forgets all presence and typing state.
func (t *Tracker) Reset() {
	t.online = nil
	clear(t.typing)
}

func (t *Tracker) fresh(at time.Time) bool {
	return t.now().Sub(at) < t.window
}
