package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	metaKeySender = "sender_id"
	metaKeyTopic  = "topic"
)

// ErrClosed is returned after the bus has been closed.
var ErrClosed = errors.New("bus is closed")

// WatermillBridge implements Bus on top of watermill's GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	logger *slog.Logger
	closed atomic.Bool
}

// Option customizes a WatermillBridge.
type Option func(*WatermillBridge)

// WithTracer records a span per publish and per delivery.
func WithTracer(tracer trace.Tracer) Option {
	return func(wb *WatermillBridge) {
		wb.tracer = tracer
	}
}

// NewWatermillBridge builds an in-memory bus. Watermill's own diagnostics go
// to logger through the slog adapter.
func NewWatermillBridge(logger *slog.Logger, opts ...Option) *WatermillBridge {
	if logger == nil {
		logger = slog.Default()
	}
	// Publish returns only once every subscriber has acked, so one publisher
	// publishing in sequence is delivered in sequence.
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewSlogLogger(logger),
	)

	wb := &WatermillBridge{
		pub:    goChannel,
		sub:    goChannel,
		logger: logger.With("service", "pubsub"),
	}
	for _, opt := range opts {
		opt(wb)
	}
	if wb.tracer != nil {
		wb.pub = NewPublisherTracingMiddleware(goChannel, wb.tracer)
	}
	return wb
}

func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeySender, msg.SenderID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeySender && k != metaKeyTopic {
			metadata[k] = v
		}
	}
	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		SenderID: wmMsg.Metadata.Get(metaKeySender),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements Publisher. It returns once every current subscriber of
// the topic has handled msg.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	if wb.closed.Load() {
		return ErrClosed
	}
	if msg.Topic == "" {
		return errors.New("publish without topic")
	}
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements Subscriber. Handlers run on one goroutine per
// subscription. Publish blocks until the handler has returned, so messages
// from a single publisher arrive in the order they were published. Handlers
// must not publish to a topic they are subscribed to. Failed deliveries are
// logged and acked, never redelivered.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if wb.closed.Load() {
		return ErrClosed
	}
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		for wmMsg := range messages {
			if err := wb.deliver(ctx, topic, wmMsg, handler); err != nil {
				wb.logger.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		wb.logger.Debug("Subscription message loop ended", "topic", topic)
	}()
	return nil
}

func (wb *WatermillBridge) deliver(ctx context.Context, topic string, wmMsg *message.Message, handler Handler) (err error) {
	msg := mapToPubSubMessage(wmMsg)
	if wb.tracer != nil {
		var span trace.Span
		ctx, span = wb.tracer.Start(ctx, "pubsub.process."+topic,
			trace.WithAttributes(
				attribute.String("messaging.system", "watermill"),
				attribute.String("messaging.operation", "process"),
				attribute.String("messaging.destination", topic),
				attribute.String("messaging.message_id", wmMsg.UUID),
				attribute.String("sender.id", msg.SenderID),
			),
		)
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, msg)
}

// Close stops every subscription.
func (wb *WatermillBridge) Close() error {
	if !wb.closed.CompareAndSwap(false, true) {
		return nil
	}
	return wb.sub.Close()
}

// Shutdown lets the DI container close the bus.
func (wb *WatermillBridge) Shutdown(context.Context) error {
	return wb.Close()
}

// HealthCheck reports a closed bus as unhealthy.
func (wb *WatermillBridge) HealthCheck() error {
	if wb.closed.Load() {
		return ErrClosed
	}
	return nil
}
