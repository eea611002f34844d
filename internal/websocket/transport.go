// Package websocket abstracts the client side of a chat room socket so the
// connection manager can run over either coder/websocket or gorilla/websocket,
// or over an in-memory fake in tests.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Close codes used by the chat protocol.
const (
	StatusNormalClosure   = 1000
	StatusGoingAway       = 1001
	StatusAbnormalClosure = 1006
	StatusInternalError   = 1011
)

// DefaultReadLimit bounds a single inbound frame. History snapshots can be
// large, so this is well above the libraries' defaults.
const DefaultReadLimit int64 = 1 << 20

// Conn is one established text-frame connection.
type Conn interface {
	// Read blocks for the next frame. When the peer closes the connection
	// with a close frame the error is a *CloseError.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one text frame.
	Write(ctx context.Context, data []byte) error
	// Close sends a close frame with code and reason and releases the connection.
	Close(code int, reason string) error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// CloseError reports a close frame received from the peer.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("websocket closed: status = %d reason = %q", e.Code, e.Reason)
}

// CloseStatus extracts the close code from err, or -1 if err does not carry one.
func CloseStatus(err error) int {
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return -1
}

// Transport names accepted by NewDialer.
const (
	TransportCoder   = "coder"
	TransportGorilla = "gorilla"
)

// NewDialer returns the dialer for the named transport.
func NewDialer(transport string, readLimit int64) (Dialer, error) {
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	switch transport {
	case "", TransportCoder:
		return &CoderDialer{ReadLimit: readLimit}, nil
	case TransportGorilla:
		return &GorillaDialer{ReadLimit: readLimit}, nil
	default:
		return nil, fmt.Errorf("websocket: unknown transport %q", transport)
	}
}
