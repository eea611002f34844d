package session

import (
	"sync"
	"time"
)

// DefaultTypingIdle is how long after the last keystroke the user stops counting as typing.
const DefaultTypingIdle = 3 * time.Second

// TypingSignaler sends typing signals; *Session satisfies it.
type TypingSignaler interface {
	SendTypingSignal(isTyping bool) bool
}

// TypingDebouncer turns keystrokes into typing signals: "typing" once per
// burst and "not typing" after the idle timeout. The caller owns it.
type TypingDebouncer struct {
	target TypingSignaler
	idle   time.Duration

	mu     sync.Mutex
	typing bool
	timer  *time.Timer
	seq    uint64
}

// NewTypingDebouncer returns a debouncer for target. A non-positive idle
// selects DefaultTypingIdle.
func NewTypingDebouncer(target TypingSignaler, idle time.Duration) *TypingDebouncer {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &TypingDebouncer{target: target, idle: idle}
}

// Keystroke records composition activity and restarts the idle timer.
func (d *TypingDebouncer) Keystroke() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.typing {
		d.typing = d.target.SendTypingSignal(true)
	}
	d.stopLocked()
	seq := d.seq
	d.timer = time.AfterFunc(d.idle, func() { d.expire(seq) })
}

// MessageSent ends the burst after the composed message went out. Without a
// burst in progress nothing is sent.
func (d *TypingDebouncer) MessageSent() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	if !d.typing {
		return
	}
	d.typing = false
	d.target.SendTypingSignal(false)
}

// Stop cancels the idle timer without sending anything.
func (d *TypingDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.typing = false
}

// Typing reports whether a burst is in progress.
func (d *TypingDebouncer) Typing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typing
}

func (d *TypingDebouncer) expire(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq || !d.typing {
		return
	}
	d.timer = nil
	d.typing = false
	d.target.SendTypingSignal(false)
}

func (d *TypingDebouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
