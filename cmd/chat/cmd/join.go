package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/realReloadTime/web-development/internal/api"
	"github.com/realReloadTime/web-development/internal/connection"
	"github.com/realReloadTime/web-development/internal/envelope"
	"github.com/realReloadTime/web-development/internal/presence"
	"github.com/realReloadTime/web-development/internal/pubsub"
	"github.com/realReloadTime/web-development/internal/session"
	"github.com/realReloadTime/web-development/internal/websocket"
)

const typingPollInterval = 500 * time.Millisecond

// errLeave ends an interactive session without reporting an error.
var errLeave = errors.New("left the room")

func newJoinCmd(a *app) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "join ROOM",
		Short: "Join a room and chat interactively",
		Long: `Join a room and chat interactively.

Every line read from standard input is sent as a message. Lines starting
with a slash are commands:
  /who         List who is online
  /stats       Show connection counters
  /reconnect   Redial immediately
  /quit        Leave the room

Examples:
  chat join 5 --user 7
  CHAT_TOKEN=... chat join 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.join(cmd, args[0], userID)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Your user id (defaults to CHAT_USER_ID, then the token owner)")
	return cmd
}

func (a *app) join(cmd *cobra.Command, roomID, userID string) error {
	ctx := cmd.Context()
	client, err := a.client()
	if err != nil {
		return err
	}
	a.checkToken(cmd)

	if userID == "" {
		userID = a.cfg.UserID
	}
	if userID == "" {
		me, err := client.ResolveSelf(ctx)
		if err != nil {
			return fmt.Errorf("cannot tell who you are, pass --user: %w", err)
		}
		userID = me.ID.String()
	}

	roster, err := api.LoadRoster(ctx, client, roomID)
	if err != nil {
		a.logger.Warn("room members unavailable, showing raw user ids", "room", roomID, "error", err)
		roster = api.NewRoster(nil, nil)
	}

	tracer, shutdownTracing, err := pubsub.SetupTracing(ctx, pubsub.TracingConfig{
		Enabled:     a.cfg.TracingEnabled,
		ServiceName: "chat-cli",
		ZipkinURL:   a.cfg.ZipkinURL,
		Version:     version,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			a.logger.Warn("flushing traces failed", "error", err)
		}
	}()

	bus := pubsub.NewWatermillBridge(pubsub.WithTracer(tracer), pubsub.WithLogger(a.logger))
	defer bus.Close()

	view := newChatView(cmd.OutOrStdout(), roster, envelope.ID(userID))
	if err := subscribeView(ctx, bus, view); err != nil {
		return err
	}

	s, err := a.openSession(roomID, userID, bus)
	if err != nil {
		return err
	}
	defer s.Teardown()

	view.notice("joined room %s as %s, /quit to leave", roomID, roster.DisplayName(envelope.ID(userID)))

	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan string)
	go scanLines(gctx, cmd.InOrStdin(), lines)

	g.Go(func() error {
		return runInput(gctx, s, view, lines)
	})
	g.Go(func() error {
		return pollTyping(gctx, s, view)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errLeave) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) openSession(roomID, userID string, bus pubsub.Publisher) (*session.Session, error) {
	dialer, err := websocket.NewDialer(a.cfg.Transport, a.cfg.ReadLimit)
	if err != nil {
		return nil, err
	}
	wsURL, err := a.cfg.WebSocketURL()
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if a.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+a.cfg.Token)
	}

	return session.Open(wsURL, roomID, userID,
		session.WithPublisher(bus),
		session.WithLogger(a.logger),
		session.WithManagerOptions(
			connection.WithDialer(dialer),
			connection.WithHeader(header),
			connection.WithReconnectDelay(a.cfg.ReconnectDelay),
			connection.WithPingInterval(a.cfg.PingInterval),
			connection.WithAutoReadAck(a.cfg.AutoReadAck),
			connection.WithTrackerOptions(presence.WithFreshnessWindow(a.cfg.TypingWindow)),
		),
	)
}

// subscribeView routes the session's bus events to the terminal view.
func subscribeView(ctx context.Context, bus pubsub.Subscriber, view *chatView) error {
	subscriptions := []func() error{
		func() error {
			return pubsub.Subscribe(ctx, bus, session.StateTopic, func(_ context.Context, e session.StateEvent) error {
				view.notice("connection %s", e.State)
				return nil
			})
		},
		func() error {
			return pubsub.Subscribe(ctx, bus, session.MessagesTopic, func(_ context.Context, e session.MessagesEvent) error {
				view.messages(e.Messages)
				return nil
			})
		},
		func() error {
			return pubsub.Subscribe(ctx, bus, session.PresenceTopic, func(_ context.Context, e session.PresenceEvent) error {
				view.presence(e.Online, e.Typing)
				return nil
			})
		},
		func() error {
			return pubsub.Subscribe(ctx, bus, session.ErrorTopic, func(_ context.Context, e session.ErrorEvent) error {
				view.failure("%s error: %s", e.Kind, e.Message)
				return nil
			})
		},
		func() error {
			return pubsub.Subscribe(ctx, bus, session.SystemTopic, func(_ context.Context, e session.SystemEvent) error {
				view.notice("%s", e.Message)
				return nil
			})
		},
	}
	for _, subscribe := range subscriptions {
		if err := subscribe(); err != nil {
			return fmt.Errorf("subscribe to session events: %w", err)
		}
	}
	return nil
}

// scanLines feeds lines from r until r ends or ctx is done.
func scanLines(ctx context.Context, r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// chatter is the part of a session the input loop drives.
type chatter interface {
	State() connection.State
	Online() []envelope.OnlineUser
	Stats() connection.Stats
	SendChatMessage(content string) bool
	Reconnect() error
}

// runInput handles whole lines only; keystrokes are never seen, so the
// terminal client does not send typing signals.
func runInput(ctx context.Context, s chatter, view *chatView, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return errLeave
			}
			if err := handleLine(s, view, line); err != nil {
				return err
			}
		}
	}
}

func handleLine(s chatter, view *chatView, line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case line == "/quit":
		return errLeave
	case line == "/who":
		view.who(s.Online())
	case line == "/stats":
		st := s.Stats()
		view.notice("received %d, sent %d, dropped %d, unrecognized %d, reconnects %d",
			st.Received, st.Sent, st.Dropped, st.Unrecognized, st.Reconnects)
	case line == "/reconnect":
		if err := s.Reconnect(); err != nil {
			view.failure("reconnect: %v", err)
		}
	case strings.HasPrefix(line, "/"):
		view.failure("unknown command %s", line)
	default:
		if !s.SendChatMessage(line) {
			view.failure("not sent, connection is %s", s.State())
		}
	}
	return nil
}

func pollTyping(ctx context.Context, s *session.Session, view *chatView) error {
	ticker := time.NewTicker(typingPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			view.typingUsers(s.TypingUsers(true))
		}
	}
}
