package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// WatermillBridge implements Bus on top of watermill's in-memory GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	logger *slog.Logger
}

const (
	// Metadata keys used to carry Message fields through watermill's message.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// BridgeOption configures a WatermillBridge.
type BridgeOption func(*WatermillBridge)

// WithTracer records a span for every publish and every delivery.
func WithTracer(tracer trace.Tracer) BridgeOption {
	return func(wb *WatermillBridge) {
		if tracer != nil {
			wb.tracer = tracer
		}
	}
}

// WithLogger sets the logger for delivery failures.
func WithLogger(l *slog.Logger) BridgeOption {
	return func(wb *WatermillBridge) {
		if l != nil {
			wb.logger = l
		}
	}
}

// NewWatermillBridge creates an in-memory bus. Publish waits until every
// subscriber has acknowledged the message, so each subscriber sees messages
// in publish order.
func NewWatermillBridge(opts ...BridgeOption) *WatermillBridge {
	wb := &WatermillBridge{
		tracer: noop.NewTracerProvider().Tracer(tracerName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(wb)
	}
	wb.logger = wb.logger.With("component", "pubsub")

	goChannel := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NewStdLogger(false, false),
	)
	wb.pub = NewPublisherTracingMiddleware(goChannel, wb.tracer)
	wb.sub = goChannel
	return wb
}

func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyTopic {
			metadata[k] = v
		}
	}
	if metadata[metaKeyUserID] == "" {
		delete(metadata, metaKeyUserID)
	}

	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements Publisher.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements Subscriber. It returns once the subscription is active;
// messages are handled on a background goroutine, one at a time.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	process := TracingMiddleware(wb.tracer)(func(wmMsg *message.Message) ([]*message.Message, error) {
		return nil, handler(wmMsg.Context(), mapToPubSubMessage(wmMsg))
	})

	go func() {
		for wmMsg := range messages {
			if _, err := process(wmMsg); err != nil {
				// Redelivering an event would only repeat the failure.
				wb.logger.Error("failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		wb.logger.Debug("subscription ended", "topic", topic)
	}()
	return nil
}

// Close stops every subscription.
func (wb *WatermillBridge) Close() error {
	return wb.pub.Close()
}
