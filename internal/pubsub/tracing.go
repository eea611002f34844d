package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName     = "chat-pubsub"
	previewLimit   = 100
	messagingAttrs = "watermill"
)

// TracingConfig controls span export for the event bus.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	ZipkinURL   string
	Version     string
}

// SetupTracing returns a tracer exporting to Zipkin. When tracing is disabled
// it returns a no-op tracer. The shutdown func flushes pending spans.
func SetupTracing(ctx context.Context, cfg TracingConfig) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider().Tracer(tracerName), func(context.Context) error { return nil }, nil
	}

	exporter, err := zipkin.New(cfg.ZipkinURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create zipkin exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Tracer(tracerName), tp.Shutdown, nil
}

func messageAttributes(operation, topic string, msg *message.Message) []attribute.KeyValue {
	preview := string(msg.Payload)
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}
	return []attribute.KeyValue{
		attribute.String("messaging.system", messagingAttrs),
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.message_id", msg.UUID),
		attribute.String("user.id", msg.Metadata.Get(metaKeyUserID)),
		attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		attribute.String("messaging.message_payload_preview", preview),
	}
}

// TracingMiddleware wraps a watermill handler in a "pubsub.process.<topic>" span.
func TracingMiddleware(tracer trace.Tracer) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			topic := msg.Metadata.Get(metaKeyTopic)
			ctx, span := tracer.Start(msg.Context(), "pubsub.process."+topic,
				trace.WithAttributes(messageAttributes("process", topic, msg)...),
			)
			defer span.End()
			msg.SetContext(ctx)

			produced, err := h(msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			return produced, nil
		}
	}
}

// PublisherTracingMiddleware records a "pubsub.publish.<topic>" span per message.
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{publisher: publisher, tracer: tracer}
}

func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		ctx, span := p.tracer.Start(msg.Context(), "pubsub.publish."+topic,
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(messageAttributes("publish", topic, msg)...),
		)
		msg.SetContext(ctx)
		spans = append(spans, span)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}

func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}
