package api

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/realReloadTime/web-development/internal/envelope"
)

// Roster resolves display names for the members of one room.
type Roster struct {
	participants map[envelope.ID]Participant
	users        map[envelope.ID]User
}

// NewRoster indexes participants and the user directory. Either may be empty.
func NewRoster(participants []Participant, users []User) *Roster {
	r := &Roster{
		participants: make(map[envelope.ID]Participant, len(participants)),
		users:        make(map[envelope.ID]User, len(users)),
	}
	for _, p := range participants {
		r.participants[p.UserID] = p
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// LoadRoster fetches the participants of roomID and the user directory. A
// failing directory lookup only degrades names, so it is logged and skipped.
func LoadRoster(ctx context.Context, c *Client, roomID string) (*Roster, error) {
	participants, err := c.Participants(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load participants of room %s: %w", roomID, err)
	}
	users, err := c.Users(ctx)
	if err != nil {
		c.logger.Warn("user directory unavailable", "error", err)
		users = nil
	}
	return NewRoster(participants, users), nil
}

// DisplayName returns the username, else the email, else "User <id>".
func (r *Roster) DisplayName(userID envelope.ID) string {
	p, isMember := r.participants[userID]
	u, known := r.users[userID]
	switch {
	case isMember && p.Username != "":
		return p.Username
	case known && u.Username != "":
		return u.Username
	case isMember && p.Email != "":
		return p.Email
	case known && u.Email != "":
		return u.Email
	default:
		return "User " + userID.String()
	}
}

// IsMember reports whether userID participates in the room.
func (r *Roster) IsMember(userID envelope.ID) bool {
	_, ok := r.participants[userID]
	return ok
}

// IsAdmin reports whether userID administers the room.
func (r *Roster) IsAdmin(userID envelope.ID) bool {
	return r.participants[userID].IsAdmin
}

// Participants returns the members ordered by display name.
func (r *Roster) Participants() []Participant {
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.DisplayName(out[i].UserID) < r.DisplayName(out[j].UserID)
	})
	return out
}

// FindByEmail looks a user up in the directory.
func (r *Roster) FindByEmail(email string) (User, bool) {
	for _, u := range r.users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

// LogValue lets a roster be logged compactly.
func (r *Roster) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("participants", len(r.participants)),
		slog.Int("users", len(r.users)),
	)
}
