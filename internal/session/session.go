// Package session is the surface a chat UI talks to: one Session per open room,
// wrapping a connection manager and publishing its changes on the event bus.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/realReloadTime/web-development/internal/connection"
	"github.com/realReloadTime/web-development/internal/envelope"
	"github.com/realReloadTime/web-development/internal/pubsub"
)

const eventQueueSize = 256

type handlerBox struct {
	connection.Handler
}

// Session is a chat session for one (room, user) pair.
type Session struct {
	roomID string
	userID string

	manager   *connection.Manager
	publisher pubsub.Publisher
	logger    *slog.Logger

	handler atomic.Pointer[handlerBox]
	torn    atomic.Bool
	once    sync.Once

	events chan func(context.Context) error
}

// Option configures a Session.
type Option func(*config)

type config struct {
	managerOpts []connection.Option
	publisher   pubsub.Publisher
	logger      *slog.Logger
	handler     connection.Handler
}

// WithManagerOptions passes options through to the connection manager.
func WithManagerOptions(opts ...connection.Option) Option {
	return func(c *config) {
		c.managerOpts = append(c.managerOpts, opts...)
	}
}

// WithPublisher publishes change events on p. Without it no events are published.
func WithPublisher(p pubsub.Publisher) Option {
	return func(c *config) {
		c.publisher = p
	}
}

// WithLogger sets the logger for the session and its connection.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHandler installs callbacks invoked on every change, in addition to bus events.
func WithHandler(h connection.Handler) Option {
	return func(c *config) {
		c.handler = h
	}
}

// Open starts a session for roomID as userID against the socket base URL,
// e.g. "ws://localhost:8000". It returns once the first dial is under way.
func Open(baseURL, roomID, userID string, opts ...Option) (*Session, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		roomID:    roomID,
		userID:    userID,
		publisher: cfg.publisher,
		logger:    cfg.logger.With("component", "session", "room", roomID, "user", userID),
	}
	s.SetHandler(cfg.handler)

	if s.publisher != nil {
		s.events = make(chan func(context.Context) error, eventQueueSize)
		go s.publishLoop()
	}

	managerOpts := append([]connection.Option{
		connection.WithLogger(cfg.logger),
	}, cfg.managerOpts...)
	managerOpts = append(managerOpts, connection.WithHandler(forwarder{s}))
	s.manager = connection.New(baseURL, managerOpts...)

	if err := s.manager.Connect(roomID, userID); err != nil {
		s.Teardown()
		return nil, err
	}
	s.logger.Info("chat session opened")
	return s, nil
}

// SetHandler swaps the caller's callbacks without touching the connection.
func (s *Session) SetHandler(h connection.Handler) {
	if h == nil {
		h = connection.HandlerFuncs{}
	}
	s.handler.Store(&handlerBox{h})
}

func (s *Session) h() connection.Handler {
	return s.handler.Load().Handler
}

// Room returns the room id.
func (s *Session) Room() string { return s.roomID }

// User returns the local user id.
func (s *Session) User() string { return s.userID }

// State returns the connection state.
func (s *Session) State() connection.State { return s.manager.State() }

// Messages returns a copy of the message log in server order.
func (s *Session) Messages() []envelope.ChatMessage { return s.manager.Messages() }

// Online returns the latest online snapshot.
func (s *Session) Online() []envelope.OnlineUser { return s.manager.Online() }

// IsOnline reports whether userID is online in this room.
func (s *Session) IsOnline(userID envelope.ID) bool { return s.manager.IsOnline(userID) }

// TypingUsers returns the users typing right now, optionally without the local user.
func (s *Session) TypingUsers(excludeSelf bool) []envelope.ID {
	users := s.manager.TypingUsers()
	if !excludeSelf {
		return users
	}
	out := users[:0]
	for _, id := range users {
		if id.String() != s.userID {
			out = append(out, id)
		}
	}
	return out
}

// SendChatMessage sends content to the room. It reports whether the message was
// queued for sending, which requires an open connection and non-blank content.
func (s *Session) SendChatMessage(content string) bool {
	if s.torn.Load() {
		return false
	}
	return s.manager.Send(content)
}

// SendTypingSignal tells the room whether the local user is typing.
func (s *Session) SendTypingSignal(isTyping bool) bool {
	if s.torn.Load() {
		return false
	}
	return s.manager.SendTyping(isTyping)
}

// AcknowledgeRead marks a message as read.
func (s *Session) AcknowledgeRead(messageID envelope.ID) bool {
	if s.torn.Load() {
		return false
	}
	return s.manager.SendReadAck(messageID)
}

// Reconnect redials immediately, e.g. after the server closed normally.
func (s *Session) Reconnect() error {
	if s.torn.Load() {
		return connection.ErrManagerClosed
	}
	return s.manager.Reconnect()
}

// Err returns the most recent error, cleared when the connection opens.
func (s *Session) Err() error { return s.manager.Err() }

// Stats returns the connection's traffic counters.
func (s *Session) Stats() connection.Stats { return s.manager.Stats() }

// Teardown closes the session for good. It is safe to call more than once.
// Once it returns no callback runs, no event is published and no reconnect happens.
func (s *Session) Teardown() {
	s.once.Do(func() {
		s.torn.Store(true)
		if s.manager != nil {
			s.manager.Disconnect()
		}
		if s.events != nil {
			close(s.events)
		}
		s.logger.Info("chat session torn down")
	})
}

func (s *Session) enqueue(publish func(context.Context) error) {
	if s.events == nil || s.torn.Load() {
		return
	}
	select {
	case s.events <- publish:
	default:
		s.logger.Warn("event queue full, dropping session event")
	}
}

// publishLoop publishes events in order, off the connection's event loop.
func (s *Session) publishLoop() {
	ctx := context.Background()
	for publish := range s.events {
		if s.torn.Load() {
			continue
		}
		if err := publish(ctx); err != nil {
			s.logger.Error("failed to publish session event", "error", err)
		}
	}
}

func publish[T any](s *Session, event pubsub.Event[T], payload T) {
	meta := map[string]string{"room_id": s.roomID}
	s.enqueue(func(ctx context.Context) error {
		return pubsub.Publish(ctx, s.publisher, event, s.userID, payload, meta)
	})
}

// forwarder receives the manager's callbacks, publishes them and passes them on.
type forwarder struct {
	s *Session
}

func (f forwarder) OnStateChange(state connection.State) {
	if f.s.torn.Load() {
		return
	}
	publish(f.s, StateTopic, StateEvent{RoomID: f.s.roomID, State: state.String()})
	f.s.h().OnStateChange(state)
}

func (f forwarder) OnError(err error) {
	if f.s.torn.Load() {
		return
	}
	kind := ErrorKindConnectivity
	var perr *connection.ProtocolError
	if errors.As(err, &perr) {
		kind = ErrorKindProtocol
	}
	publish(f.s, ErrorTopic, ErrorEvent{RoomID: f.s.roomID, Kind: kind, Message: err.Error()})
	f.s.h().OnError(err)
}

func (f forwarder) OnMessages(msgs []envelope.ChatMessage) {
	if f.s.torn.Load() {
		return
	}
	publish(f.s, MessagesTopic, MessagesEvent{RoomID: f.s.roomID, Messages: msgs})
	f.s.h().OnMessages(msgs)
}

func (f forwarder) OnPresence(online []envelope.OnlineUser, typing []envelope.ID) {
	if f.s.torn.Load() {
		return
	}
	publish(f.s, PresenceTopic, PresenceEvent{RoomID: f.s.roomID, Online: online, Typing: typing})
	f.s.h().OnPresence(online, typing)
}

func (f forwarder) OnSystem(msg string) {
	if f.s.torn.Load() {
		return
	}
	publish(f.s, SystemTopic, SystemEvent{RoomID: f.s.roomID, Message: msg})
	f.s.h().OnSystem(msg)
}
