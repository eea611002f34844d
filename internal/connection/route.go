package connection

import "github.com/realReloadTime/web-development/internal/envelope"

func (m *Manager) handleFrame(l *link, data []byte) {
	if l != m.link {
		return
	}
	m.stats.received.Add(1)

	env, err := envelope.Decode(data)
	if err != nil {
		m.stats.dropped.Add(1)
		m.logger.Warn("dropping malformed envelope", "room", m.roomID, "conn", l.id, "bytes", len(data), "error", err)
		return
	}
	m.route(env)
}

func (m *Manager) route(env envelope.Envelope) {
	switch e := env.(type) {
	case envelope.Message:
		m.log.Append(e.Message)
		m.notifyMessages()
		if m.autoReadAck {
			m.write(envelope.ReadAck{MessageID: e.Message.ID})
		}

	case envelope.History:
		m.log.ReplaceAll(e.Messages)
		m.logger.Debug("history received", "room", m.roomID, "messages", len(e.Messages))
		m.notifyMessages()

	case envelope.Typing:
		m.presence.SetTyping(e.UserID, e.IsTyping)
		m.notifyPresence()

	case envelope.OnlineUsers:
		m.presence.SetOnline(e.Users)
		m.notifyPresence()

	case envelope.ReadReceipt:
		if m.log.MarkRead(e.MessageID) {
			m.notifyMessages()
		}

	case envelope.System:
		m.logger.Info("system message", "room", m.roomID, "message", e.Message)
		m.h().OnSystem(e.Message)

	case envelope.Error:
		err := &ProtocolError{Reason: e.Reason}
		m.lastErr = err
		m.logger.Warn("chat server reported an error", "room", m.roomID, "error", e.Reason)
		m.h().OnError(err)

	case envelope.Pong:
		m.logger.Debug("pong", "room", m.roomID)

	case envelope.Unknown:
		m.stats.unrecognized.Add(1)
		m.logger.Debug("ignoring unrecognized envelope", "room", m.roomID, "type", e.Tag)

	default:
		m.stats.unrecognized.Add(1)
		m.logger.Debug("ignoring client-bound envelope", "room", m.roomID, "type", env.Type())
	}
}
