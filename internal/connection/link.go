package connection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/realReloadTime/web-development/internal/envelope"
	"github.com/realReloadTime/web-development/internal/websocket"
)

// link is one established transport and the goroutines pumping it.
type link struct {
	id     string
	conn   websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newLink(conn websocket.Conn) *link {
	ctx, cancel := context.WithCancel(context.Background())
	return &link{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// close sends the close frame and then stops the pumps. The close handshake
// may wait on the peer, so it never runs on the event loop.
func (l *link) close(code int, reason string) {
	l.once.Do(func() {
		go func() {
			defer l.cancel()
			l.conn.Close(code, reason)
		}()
	})
}

func (m *Manager) startPumps(l *link) {
	go m.readPump(l)
	go m.writePump(l)
	if m.pingInterval > 0 {
		go m.pingPump(l)
	}
}

// readPump forwards inbound frames to the event loop until the transport fails.
func (m *Manager) readPump(l *link) {
	for {
		data, err := l.conn.Read(l.ctx)
		if err != nil {
			m.post(func() { m.handleClosed(l, err) })
			return
		}
		if !m.post(func() { m.handleFrame(l, data) }) {
			return
		}
	}
}

// writePump drains the link's send buffer onto the transport.
func (m *Manager) writePump(l *link) {
	for {
		select {
		case <-l.ctx.Done():
			return
		case data := <-l.send:
			ctx, cancel := context.WithTimeout(l.ctx, m.writeTimeout)
			err := l.conn.Write(ctx, data)
			cancel()
			if err != nil {
				if l.ctx.Err() == nil {
					m.logger.Error("chat write failed", "conn", l.id, "error", err)
					m.post(func() { m.handleWriteError(l, err) })
				}
				return
			}
		}
	}
}

func (m *Manager) pingPump(l *link) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			ok := m.post(func() {
				if m.link == l {
					m.write(envelope.Ping{})
				}
			})
			if !ok {
				return
			}
		}
	}
}
