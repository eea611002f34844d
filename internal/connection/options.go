package connection

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/realReloadTime/web-development/internal/presence"
	"github.com/realReloadTime/web-development/internal/websocket"
)

const (
	// DefaultReconnectDelay is the fixed wait before redialing after an abnormal close.
	DefaultReconnectDelay = 3 * time.Second
	// DefaultDialTimeout bounds a single dial attempt.
	DefaultDialTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds a single frame write.
	DefaultWriteTimeout = 10 * time.Second

	sendBufferSize = 256
)

// Option is a function that configures a Manager.
type Option func(*Manager)

// WithDialer sets the transport. The default is a coder/websocket dialer.
func WithDialer(d websocket.Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dialer = d
		}
	}
}

// WithHandler installs the initial handler set.
func WithHandler(h Handler) Option {
	return func(m *Manager) {
		m.SetHandler(h)
	}
}

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.reconnectDelay = d
		}
	}
}

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.dialTimeout = d
		}
	}
}

// WithWriteTimeout overrides DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.writeTimeout = d
		}
	}
}

// WithPingInterval enables application-level pings while the connection is
// open. Zero disables them, which is the default.
func WithPingInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.pingInterval = d
		}
	}
}

// WithAutoReadAck controls whether every live message is acknowledged as read
// as soon as it arrives. Enabled by default.
func WithAutoReadAck(enabled bool) Option {
	return func(m *Manager) {
		m.autoReadAck = enabled
	}
}

// WithHeader adds HTTP headers to every dial, e.g. Authorization.
func WithHeader(h http.Header) Option {
	return func(m *Manager) {
		m.header = h.Clone()
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTrackerOptions configures the presence tracker owned by the manager.
func WithTrackerOptions(opts ...presence.Option) Option {
	return func(m *Manager) {
		m.trackerOpts = append(m.trackerOpts, opts...)
	}
}
