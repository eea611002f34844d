package connection

import "sync/atomic"

// Stats counts traffic handled by a Manager. Malformed and unrecognized frames
// are dropped without interrupting the session; these counters make the drops
// observable.
type Stats struct {
	Received     uint64 `json:"received"`
	Dropped      uint64 `json:"dropped"`
	Unrecognized uint64 `json:"unrecognized"`
	Sent         uint64 `json:"sent"`
	Reconnects   uint64 `json:"reconnects"`
}

type counters struct {
	received     atomic.Uint64
	dropped      atomic.Uint64
	unrecognized atomic.Uint64
	sent         atomic.Uint64
	reconnects   atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Received:     c.received.Load(),
		Dropped:      c.dropped.Load(),
		Unrecognized: c.unrecognized.Load(),
		Sent:         c.sent.Load(),
		Reconnects:   c.reconnects.Load(),
	}
}
