package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeWriteWait bounds how long Close waits to flush the close frame.
const closeWriteWait = time.Second

// GorillaDialer dials with github.com/gorilla/websocket.
type GorillaDialer struct {
	ReadLimit int64
	Dialer    *websocket.Dialer
}

func (d *GorillaDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	limit := d.ReadLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	conn.SetReadLimit(limit)
	return &gorillaConn{conn: conn}, nil
}

// gorillaConn adapts *websocket.Conn. Gorilla allows one concurrent writer, so
// Write is serialized; WriteControl and Close are safe alongside it.
type gorillaConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *gorillaConn) Read(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(dl)
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return nil, &CloseError{Code: ce.Code, Reason: ce.Text}
		}
		return nil, err
	}
	return data, nil
}

func (c *gorillaConn) Write(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(dl)
	} else {
		c.conn.SetWriteDeadline(time.Time{})
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *gorillaConn) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		werr := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
		if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
			err = werr
		}
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
