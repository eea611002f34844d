package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event binds a topic name to the payload type published on it.
type Event[T any] struct {
	topic string
}

// NewEvent declares a typed topic.
func NewEvent[T any](topic string) Event[T] {
	return Event[T]{topic: topic}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic
}

// Publish encodes payload as JSON and sends it on the event's topic.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T, metadata map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.topic, err)
	}
	return p.Publish(ctx, Message{
		Topic:    event.topic,
		UserID:   userID,
		Payload:  data,
		Metadata: metadata,
	})
}

// Decode unmarshals a message published with Publish. It fails if the message
// belongs to another topic.
func Decode[T any](event Event[T], msg Message) (T, error) {
	var out T
	if msg.Topic != event.topic {
		return out, fmt.Errorf("decode %s payload: message is on topic %q", event.topic, msg.Topic)
	}
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", event.topic, err)
	}
	return out, nil
}

// Subscribe delivers decoded payloads of event to handler.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(context.Context, T) error) error {
	return s.Subscribe(ctx, event.topic, func(ctx context.Context, msg Message) error {
		payload, err := Decode(event, msg)
		if err != nil {
			return err
		}
		return handler(ctx, payload)
	})
}
