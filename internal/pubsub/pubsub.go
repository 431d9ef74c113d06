// Package pubsub is the in-process message bus. Components talk through it
// instead of holding references to each other.
package pubsub

import (
	"context"
)

// Message is the envelope carried on the bus.
type Message struct {
	// Topic is a registered topicmgr name, e.g. "arena.viewer.message".
	Topic string
	// SenderID identifies the connection or component that produced it.
	SenderID string
	Payload  []byte
	Metadata map[string]string
}

// Handler processes one delivered message. A non-nil error nacks it.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe registers handler for topic and returns once the
	// subscription is live. Delivery stops when ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus is both ends.
type Bus interface {
	Publisher
	Subscriber
}
