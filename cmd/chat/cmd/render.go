package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/realReloadTime/web-development/internal/api"
	"github.com/realReloadTime/web-development/internal/envelope"
)

var timeNow = time.Now

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, use table or json", format)
	}
}

func renderRooms(w io.Writer, rooms []api.Room) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tKIND\tMEMBERS\tCREATED")
	for _, r := range rooms {
		kind := "private"
		if r.IsGroup {
			kind = "group"
		}
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, name, kind, r.ParticipantCount, formatDate(r.CreatedAt))
	}
}

func renderParticipants(w io.Writer, roster *api.Roster, online map[envelope.ID]bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "USER ID\tNAME\tADMIN\tONLINE")
	for _, p := range roster.Participants() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.UserID, roster.DisplayName(p.UserID), yesNo(p.IsAdmin), yesNo(online[p.UserID]))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatDate(ts envelope.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

// chatView prints session activity as terminal lines.
type chatView struct {
	w      io.Writer
	roster *api.Roster
	self   envelope.ID

	mu      sync.Mutex
	printed map[envelope.ID]bool
	online  []envelope.ID
	typing  []envelope.ID
}

func newChatView(w io.Writer, roster *api.Roster, self envelope.ID) *chatView {
	return &chatView{w: w, roster: roster, self: self, printed: make(map[envelope.ID]bool)}
}

func (v *chatView) name(id envelope.ID) string {
	if id == v.self {
		return "you"
	}
	return v.roster.DisplayName(id)
}

func (v *chatView) messageLine(m envelope.ChatMessage) string {
	stamp := "--:--"
	if !m.CreatedAt.IsZero() {
		stamp = m.CreatedAt.Local().Format("15:04")
	}
	sender := m.SenderUsername
	if sender == "" || m.SenderID == v.self {
		sender = v.name(m.SenderID)
	}
	return fmt.Sprintf("[%s] %s: %s", stamp, sender, m.Content)
}

// messages prints the entries of the log not printed before. The log is
// resent whole on every change, including history replays after a reconnect.
func (v *chatView) messages(log []envelope.ChatMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, m := range log {
		if v.printed[m.ID] {
			continue
		}
		v.printed[m.ID] = true
		fmt.Fprintln(v.w, v.messageLine(m))
	}
}

// presence prints the online list and typing line when they change.
func (v *chatView) presence(online []envelope.OnlineUser, typing []envelope.ID) {
	ids := make([]envelope.ID, 0, len(online))
	for _, u := range online {
		ids = append(ids, u.UserID)
	}
	slices.Sort(ids)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !slices.Equal(ids, v.online) {
		v.online = ids
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			names = append(names, v.name(id))
		}
		fmt.Fprintf(v.w, "* online: %s\n", strings.Join(names, ", "))
	}
	v.typingLocked(typing)
}

// who prints everyone online right now, whether or not it changed.
func (v *chatView) who(online []envelope.OnlineUser) {
	names := make([]string, 0, len(online))
	for _, u := range online {
		names = append(names, v.name(u.UserID))
	}
	slices.Sort(names)

	v.mu.Lock()
	defer v.mu.Unlock()
	if len(names) == 0 {
		fmt.Fprintln(v.w, "* nobody is online")
		return
	}
	fmt.Fprintf(v.w, "* %d online: %s\n", len(names), strings.Join(names, ", "))
}

// typingUsers prints the typing line when it changes. Typing state expires
// without any event, so this is also polled.
func (v *chatView) typingUsers(typing []envelope.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typingLocked(typing)
}

func (v *chatView) typingLocked(typing []envelope.ID) {
	others := make([]envelope.ID, 0, len(typing))
	for _, id := range typing {
		if id != v.self {
			others = append(others, id)
		}
	}
	if slices.Equal(others, v.typing) {
		return
	}
	v.typing = others

	switch len(others) {
	case 0:
		fmt.Fprintln(v.w, "* nobody is typing")
	case 1:
		fmt.Fprintf(v.w, "* %s is typing...\n", v.name(others[0]))
	default:
		names := make([]string, 0, len(others))
		for _, id := range others {
			names = append(names, v.name(id))
		}
		fmt.Fprintf(v.w, "* %s are typing...\n", strings.Join(names, ", "))
	}
}

func (v *chatView) notice(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "* "+format+"\n", args...)
}

func (v *chatView) failure(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "! "+format+"\n", args...)
}
