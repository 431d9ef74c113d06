package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/chaosarena/internal/topicmgr"
)

// Event binds a topic name to its payload type.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewEvent defines a typed topic and registers it with topicmgr.Default. The
// payload's JSON field names are recorded for the topics command.
func NewEvent[T any](name, description string) Event[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			fields = append(fields, strings.Split(tag, ",")[0])
		}
	}

	topic := topicmgr.DefineModule(topicmgr.Topic{
		Name:        name,
		Description: description,
		Metadata: map[string]any{
			"payload_fields": fields,
			"type_name":      t.Name(),
		},
	})
	topicmgr.Default().MustRegister(topic)
	return Event[T]{topic: topic}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name
}

// Publish sends a typed payload.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], senderID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:    event.Name(),
		SenderID: senderID,
		Payload:  data,
	})
}

// Subscribe decodes each delivery into T before calling handler.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, payload T, msg Message) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s: %w", event.Name(), err)
		}
		return handler(ctx, payload, msg)
	})
}
