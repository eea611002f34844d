// Package wstest provides an in-memory websocket transport for driving a chat
// connection from tests without a network.
package wstest

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/realReloadTime/web-development/internal/envelope"
	"github.com/realReloadTime/web-development/internal/websocket"
)

// ErrRefused is returned by a Dialer told to refuse connections.
var ErrRefused = errors.New("wstest: connection refused")

// Dialer hands out Conns and records every dial attempt.
type Dialer struct {
	mu      sync.Mutex
	refuse  bool
	urls    []string
	headers []http.Header
	dials   chan *Conn
}

// NewDialer returns a dialer that accepts every connection.
func NewDialer() *Dialer {
	return &Dialer{dials: make(chan *Conn, 64)}
}

// Refuse makes subsequent dials fail with ErrRefused until called with false.
func (d *Dialer) Refuse(refuse bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refuse = refuse
}

func (d *Dialer) Dial(ctx context.Context, url string, header http.Header) (websocket.Conn, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.headers = append(d.headers, header.Clone())
	refuse := d.refuse
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if refuse {
		return nil, ErrRefused
	}
	c := newConn(url)
	d.dials <- c
	return c, nil
}

// Attempts returns how many dials were made so far.
func (d *Dialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

// URLs returns the dialed URLs in order.
func (d *Dialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// Headers returns the headers sent with each dial.
func (d *Dialer) Headers() []http.Header {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]http.Header(nil), d.headers...)
}

// Next waits for the next successful dial.
func (d *Dialer) Next(t testing.TB) *Conn {
	t.Helper()
	select {
	case c := <-d.dials:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("wstest: timed out waiting for a dial")
		return nil
	}
}

// NoDial asserts that no connection is dialed within wait.
func (d *Dialer) NoDial(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case c := <-d.dials:
		t.Fatalf("wstest: unexpected dial to %s", c.URL)
	case <-time.After(wait):
	}
}

// Conn is the client half of a fake connection; the test plays the server.
type Conn struct {
	URL string

	inbound  chan []byte
	outbound chan []byte
	remote   chan error
	closed   chan struct{}

	mu        sync.Mutex
	closeCode int
	closeOnce sync.Once
}

func newConn(url string) *Conn {
	return &Conn{
		URL:      url,
		inbound:  make(chan []byte, 64),
		outbound: make(chan []byte, 64),
		remote:   make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case err := <-c.remote:
		return nil, err
	case <-c.closed:
		return nil, &websocket.CloseError{Code: c.CloseCode()}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) Write(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("wstest: write on closed connection")
	default:
	}
	select {
	case c.outbound <- append([]byte(nil), data...):
		return nil
	case <-c.closed:
		return errors.New("wstest: write on closed connection")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Close(code int, _ string) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeCode = code
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

// Push delivers a raw frame to the client.
func (c *Conn) Push(data []byte) {
	c.inbound <- data
}

// PushEnvelope encodes env and delivers it to the client.
func (c *Conn) PushEnvelope(t testing.TB, env envelope.Envelope) {
	t.Helper()
	data, err := envelope.Encode(env)
	if err != nil {
		t.Fatalf("wstest: encode %s: %v", env.Type(), err)
	}
	c.Push(data)
}

// CloseRemote simulates the server closing with the given code.
func (c *Conn) CloseRemote(code int, reason string) {
	c.remote <- &websocket.CloseError{Code: code, Reason: reason}
}

// Fail simulates the connection dropping without a close frame.
func (c *Conn) Fail(err error) {
	c.remote <- err
}

// Sent waits for the next frame written by the client.
func (c *Conn) Sent(t testing.TB) []byte {
	t.Helper()
	select {
	case data := <-c.outbound:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("wstest: timed out waiting for an outbound frame")
		return nil
	}
}

// NothingSent asserts that the client writes nothing within wait.
func (c *Conn) NothingSent(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case data := <-c.outbound:
		t.Fatalf("wstest: unexpected outbound frame %s", data)
	case <-time.After(wait):
	}
}

// Closed reports whether the client closed the connection.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// CloseCode returns the code the client closed with, or 0.
func (c *Conn) CloseCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}
