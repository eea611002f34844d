// Package pubsub is the in-process event bus a chat session publishes its
// change events on. Consumers such as the terminal UI subscribe by topic.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "chat.session.messages").
	Topic string
	// UserID is the local user the session belongs to.
	UserID string
	// Payload is the JSON encoded event.
	Payload []byte
	// Metadata carries extra context such as the room id.
	Metadata map[string]string
}

// Handler processes one received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages on topic to handler in the background.
	// Delivery stops when ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus is both ends of the event bus.
type Bus interface {
	Publisher
	Subscriber
}
