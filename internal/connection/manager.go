// Package connection owns the lifecycle of one chat room connection: dialing,
// failure detection, reconnect with a fixed delay, envelope routing and the
// outbound operations.
//
// A Manager runs a single event loop goroutine. Transport callbacks, timer
// fires and public method calls are all executed on that loop, so the message
// log and presence tracker it owns are never touched concurrently.
package connection

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/realReloadTime/web-development/internal/envelope"
	"github.com/realReloadTime/web-development/internal/messagelog"
	"github.com/realReloadTime/web-development/internal/presence"
	"github.com/realReloadTime/web-development/internal/websocket"
)

type handlerBox struct {
	Handler
}

// Manager maintains the connection for one (room, user) pair at a time.
type Manager struct {
	baseURL        string
	dialer         websocket.Dialer
	header         http.Header
	reconnectDelay time.Duration
	dialTimeout    time.Duration
	writeTimeout   time.Duration
	pingInterval   time.Duration
	autoReadAck    bool
	logger         *slog.Logger
	trackerOpts    []presence.Option

	handler atomic.Pointer[handlerBox]
	state   atomic.Int32
	stats   counters

	ops  chan func()
	quit chan struct{}

	// Everything below is owned by the event loop.
	log        *messagelog.Log
	presence   *presence.Tracker
	roomID     string
	userID     string
	target     string
	gen        uint64
	link       *link
	cancelDial context.CancelFunc
	timer      *time.Timer
	timerSeq   uint64
	lastErr    error
	stopped    bool
}

// New creates a Manager that dials rooms under baseURL (e.g. "ws://localhost:8000")
// and starts its event loop. The manager stays Idle until Connect.
func New(baseURL string, opts ...Option) *Manager {
	m := &Manager{
		baseURL:        baseURL,
		dialer:         &websocket.CoderDialer{ReadLimit: websocket.DefaultReadLimit},
		reconnectDelay: DefaultReconnectDelay,
		dialTimeout:    DefaultDialTimeout,
		writeTimeout:   DefaultWriteTimeout,
		autoReadAck:    true,
		logger:         slog.Default(),
		ops:            make(chan func()),
		quit:           make(chan struct{}),
	}
	m.SetHandler(nil)

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With("component", "connection")
	m.log = messagelog.New()
	m.presence = presence.NewTracker(m.trackerOpts...)

	go m.run()
	return m
}

// Endpoint builds the socket URL of a room: {base}/chat/ws/{room}?user_id={user}.
func Endpoint(baseURL, roomID, userID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse chat url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("parse chat url: %q is not absolute", baseURL)
	}
	u = u.JoinPath("chat", "ws", roomID)
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (m *Manager) run() {
	defer close(m.quit)
	for fn := range m.ops {
		fn()
		if m.stopped {
			m.logger.Debug("connection event loop stopped")
			return
		}
	}
}

// do runs fn on the event loop and waits for it. It reports false if the loop
// has already stopped.
func (m *Manager) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case m.ops <- func() {
		defer close(done)
		fn()
	}:
		<-done
		return true
	case <-m.quit:
		return false
	}
}

// post queues fn on the event loop without waiting.
func (m *Manager) post(fn func()) bool {
	select {
	case m.ops <- fn:
		return true
	case <-m.quit:
		return false
	}
}

// SetHandler swaps the handler set. It is safe to call at any time, including
// from inside a handler, and never disturbs the transport.
func (m *Manager) SetHandler(h Handler) {
	if h == nil {
		h = HandlerFuncs{}
	}
	m.handler.Store(&handlerBox{h})
}

func (m *Manager) h() Handler {
	return m.handler.Load().Handler
}

// Connect binds the manager to a room and opens the transport. Any existing
// transport is closed first, so calling Connect again is safe. Switching to a
// different room or user clears the message log and presence state.
func (m *Manager) Connect(roomID, userID string) error {
	if strings.TrimSpace(roomID) == "" || strings.TrimSpace(userID) == "" {
		return ErrInvalidTarget
	}
	target, err := Endpoint(m.baseURL, roomID, userID)
	if err != nil {
		return err
	}

	err = ErrManagerClosed
	m.do(func() {
		if m.stopped {
			return
		}
		if m.roomID != roomID || m.userID != userID {
			rebinding := m.roomID != ""
			m.roomID, m.userID, m.target = roomID, userID, target
			if rebinding {
				m.log.Reset()
				m.presence.Reset()
				m.notifyMessages()
				m.notifyPresence()
			}
		}
		m.closeTransport("reconnecting")
		m.dial()
		err = nil
	})
	return err
}

// Reconnect redials the current room immediately.
func (m *Manager) Reconnect() error {
	var room, user string
	m.do(func() { room, user = m.roomID, m.userID })
	return m.Connect(room, user)
}

// Disconnect cancels any pending reconnect, closes the transport with a normal
// closure and clears all state. It is the only path that prevents automatic
// reconnection, and it is terminal: the manager cannot be reused.
func (m *Manager) Disconnect() {
	m.do(func() {
		m.stopped = true
		m.closeTransport("client disconnected")
		m.log.Reset()
		m.presence.Reset()
		m.setState(StateClosed)
		m.notifyMessages()
		m.notifyPresence()
		m.logger.Info("chat session disconnected", "room", m.roomID)
	})
}

// closeTransport stops the reconnect timer, abandons any dial in flight and
// closes the current link. Events still queued for the old generation are
// ignored afterwards.
func (m *Manager) closeTransport(reason string) {
	m.stopTimer()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	if m.link != nil {
		m.link.close(websocket.StatusNormalClosure, reason)
		m.link = nil
	}
	m.gen++
}

func (m *Manager) dial() {
	m.gen++
	gen := m.gen
	target := m.target

	ctx, cancel := context.WithTimeout(context.Background(), m.dialTimeout)
	m.cancelDial = cancel
	m.setState(StateConnecting)
	m.logger.Debug("dialing chat room", "room", m.roomID, "user", m.userID)

	go func() {
		conn, err := m.dialer.Dial(ctx, target, m.header)
		cancel()
		if !m.post(func() { m.handleDialed(gen, conn, err) }) && conn != nil {
			conn.Close(websocket.StatusGoingAway, "connection manager stopped")
		}
	}()
}

func (m *Manager) handleDialed(gen uint64, conn websocket.Conn, err error) {
	if gen != m.gen || m.stopped {
		if conn != nil {
			go conn.Close(websocket.StatusNormalClosure, "superseded")
		}
		return
	}
	m.cancelDial = nil

	if err != nil {
		m.logger.Warn("chat dial failed", "room", m.roomID, "error", err)
		m.fail(err)
		m.setState(StateClosed)
		m.scheduleReconnect()
		return
	}

	l := newLink(conn)
	m.link = l
	m.lastErr = nil
	m.logger.Info("chat connection open", "room", m.roomID, "conn", l.id)
	m.setState(StateOpen)
	m.startPumps(l)
}

func (m *Manager) handleClosed(l *link, err error) {
	if l != m.link {
		return
	}
	m.link = nil
	l.close(websocket.StatusNormalClosure, "")

	code := websocket.CloseStatus(err)
	if code == websocket.StatusNormalClosure {
		m.logger.Info("chat connection closed by server", "room", m.roomID, "conn", l.id)
		m.setState(StateClosed)
		return
	}

	if code == -1 {
		m.fail(err)
	}
	m.logger.Warn("chat connection lost", "room", m.roomID, "conn", l.id, "code", code, "error", err)
	m.setState(StateClosed)
	m.scheduleReconnect()
}

func (m *Manager) handleWriteError(l *link, err error) {
	if l != m.link {
		return
	}
	m.fail(err)
}

func (m *Manager) scheduleReconnect() {
	m.stopTimer()
	m.setState(StateReconnecting)
	seq := m.timerSeq
	m.timer = time.AfterFunc(m.reconnectDelay, func() {
		m.post(func() { m.handleReconnectTimer(seq) })
	})
	m.logger.Info("scheduling chat reconnect", "room", m.roomID, "delay", m.reconnectDelay)
}

func (m *Manager) handleReconnectTimer(seq uint64) {
	if m.stopped || seq != m.timerSeq || m.State() != StateReconnecting {
		return
	}
	m.timer = nil
	m.stats.reconnects.Add(1)
	m.dial()
}

func (m *Manager) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerSeq++
}

func (m *Manager) fail(err error) {
	cerr := &ConnectivityError{Err: err}
	m.lastErr = cerr
	m.h().OnError(cerr)
}

func (m *Manager) setState(s State) {
	old := State(m.state.Swap(int32(s)))
	if old == s {
		return
	}
	m.logger.Debug("connection state changed", "room", m.roomID, "from", old, "to", s)
	m.h().OnStateChange(s)
}

func (m *Manager) notifyMessages() {
	m.h().OnMessages(m.log.Snapshot())
}

func (m *Manager) notifyPresence() {
	m.h().OnPresence(m.presence.Online(), m.presence.TypingUsers())
}

// write encodes env onto the current link. It never blocks.
func (m *Manager) write(env envelope.Envelope) bool {
	if m.link == nil || m.State() != StateOpen {
		return false
	}
	data, err := envelope.Encode(env)
	if err != nil {
		m.logger.Error("failed to encode envelope", "type", env.Type(), "error", err)
		return false
	}
	select {
	case m.link.send <- data:
		m.stats.sent.Add(1)
		return true
	default:
		m.logger.Warn("outbound buffer full, dropping envelope", "room", m.roomID, "type", env.Type())
		return false
	}
}

// Send emits a chat message. It returns false without sending when the
// connection is not open or the trimmed content is empty. A true result means
// the frame was queued, not that the server received it.
func (m *Manager) Send(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	var ok bool
	m.do(func() { ok = m.write(envelope.SendMessage{Content: content}) })
	return ok
}

// SendTyping emits a typing signal. It returns false when the connection is not open.
func (m *Manager) SendTyping(isTyping bool) bool {
	var ok bool
	m.do(func() { ok = m.write(envelope.Typing{IsTyping: isTyping}) })
	return ok
}

// SendReadAck tells the server the message was read. It returns false when the
// connection is not open.
func (m *Manager) SendReadAck(messageID envelope.ID) bool {
	if messageID == "" {
		return false
	}
	var ok bool
	m.do(func() { ok = m.write(envelope.ReadAck{MessageID: messageID}) })
	return ok
}

// Ping emits a keepalive ping.
func (m *Manager) Ping() bool {
	var ok bool
	m.do(func() { ok = m.write(envelope.Ping{}) })
	return ok
}

// State returns the current connection state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Room returns the room the manager is bound to.
func (m *Manager) Room() string {
	var room string
	m.do(func() { room = m.roomID })
	return room
}

// Messages returns a copy of the message log.
func (m *Manager) Messages() []envelope.ChatMessage {
	var out []envelope.ChatMessage
	m.do(func() { out = m.log.Snapshot() })
	return out
}

// Online returns the latest online snapshot.
func (m *Manager) Online() []envelope.OnlineUser {
	var out []envelope.OnlineUser
	m.do(func() { out = m.presence.Online() })
	return out
}

// IsOnline reports whether userID is in the latest online snapshot.
func (m *Manager) IsOnline(userID envelope.ID) bool {
	var ok bool
	m.do(func() { ok = m.presence.IsOnline(userID) })
	return ok
}

// IsActivelyTyping reports whether userID is typing right now.
func (m *Manager) IsActivelyTyping(userID envelope.ID) bool {
	var ok bool
	m.do(func() { ok = m.presence.IsActivelyTyping(userID) })
	return ok
}

// TypingUsers returns the users typing right now.
func (m *Manager) TypingUsers() []envelope.ID {
	var out []envelope.ID
	m.do(func() { out = m.presence.TypingUsers() })
	return out
}

// Err returns the most recent error, cleared when a connection opens.
func (m *Manager) Err() error {
	var err error
	m.do(func() { err = m.lastErr })
	return err
}

// Stats returns a snapshot of the traffic counters.
func (m *Manager) Stats() Stats {
	return m.stats.snapshot()
}
