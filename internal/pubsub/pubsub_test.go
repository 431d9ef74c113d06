package pubsub

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type pingPayload struct {
	Count int    `json:"count"`
	Note  string `json:"note,omitempty"`
}

var pingEvent = NewEvent[pingPayload]("pubsubtest.ping", "Ping used by the bus tests")

func TestWatermillBridgeRoundTrip(t *testing.T) {
	bus := NewWatermillBridge(nil)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	require.NoError(t, bus.Subscribe(ctx, "pubsubtest.raw", func(_ context.Context, msg Message) error {
		got <- msg
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, Message{
		Topic:    "pubsubtest.raw",
		SenderID: "conn-1",
		Payload:  []byte(`{"hello":"world"}`),
		Metadata: map[string]string{"request_id": "r1"},
	}))

	select {
	case msg := <-got:
		assert.Equal(t, "pubsubtest.raw", msg.Topic)
		assert.Equal(t, "conn-1", msg.SenderID)
		assert.JSONEq(t, `{"hello":"world"}`, string(msg.Payload))
		assert.Equal(t, map[string]string{"request_id": "r1"}, msg.Metadata)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestTypedEvents(t *testing.T) {
	bus := NewWatermillBridge(nil)
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan pingPayload, 1)
	require.NoError(t, Subscribe(ctx, bus, pingEvent, func(_ context.Context, p pingPayload, msg Message) error {
		assert.Equal(t, "tester", msg.SenderID)
		got <- p
		return nil
	}))
	require.NoError(t, Publish(ctx, bus, pingEvent, "tester", pingPayload{Count: 3}))

	select {
	case p := <-got:
		assert.Equal(t, 3, p.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("typed message not delivered")
	}

	assert.Equal(t, "pubsubtest.ping", pingEvent.Name())
}

func TestDeliveryKeepsPublishOrder(t *testing.T) {
	bus := NewWatermillBridge(nil)
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 2000
	var mu sync.Mutex
	var got []int
	require.NoError(t, bus.Subscribe(ctx, "pubsubtest.ordered", func(_ context.Context, msg Message) error {
		i, err := strconv.Atoi(string(msg.Payload))
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		got = append(got, i)
		return nil
	}))

	for i := 0; i < n; i++ {
		require.NoError(t, bus.Publish(ctx, Message{Topic: "pubsubtest.ordered", Payload: []byte(strconv.Itoa(i))}))
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, n, "publish returns only after the handler ran")
	for i, v := range got {
		if !assert.Equal(t, i, v, "delivery %d out of order", i) {
			break
		}
	}
}

func TestHandlerFailuresDoNotStopDelivery(t *testing.T) {
	bus := NewWatermillBridge(nil)
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := 0
	done := make(chan struct{})
	require.NoError(t, bus.Subscribe(ctx, "pubsubtest.flaky", func(_ context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen++
		switch string(msg.Payload) {
		case "panic":
			panic("boom")
		case "fail":
			return errors.New("nope")
		default:
			close(done)
			return nil
		}
	}))

	for _, p := range []string{"panic", "fail", "ok"} {
		require.NoError(t, bus.Publish(ctx, Message{Topic: "pubsubtest.flaky", Payload: []byte(p)}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery stalled after a failing handler")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, seen, 3)
}

func TestClosedBus(t *testing.T) {
	bus := NewWatermillBridge(nil)
	require.NoError(t, bus.HealthCheck())
	require.NoError(t, bus.Shutdown(context.Background()))

	assert.ErrorIs(t, bus.HealthCheck(), ErrClosed)
	assert.ErrorIs(t, bus.Publish(context.Background(), Message{Topic: "pubsubtest.raw"}), ErrClosed)
	assert.NoError(t, bus.Close(), "closing twice is harmless")
}

func TestTracingRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	bus := NewWatermillBridge(nil, WithTracer(tp.Tracer("test")))
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	require.NoError(t, bus.Subscribe(ctx, "pubsubtest.traced", func(context.Context, Message) error {
		close(done)
		return nil
	}))
	require.NoError(t, bus.Publish(ctx, Message{Topic: "pubsubtest.traced", Payload: []byte("x")}))
	<-done

	assert.Eventually(t, func() bool {
		names := map[string]bool{}
		for _, s := range recorder.Ended() {
			names[s.Name()] = true
		}
		return names["pubsub.publish.pubsubtest.traced"] && names["pubsub.process.pubsubtest.traced"]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetupOTelDisabled(t *testing.T) {
	tracer, shutdown, err := SetupOTel(context.Background(), DefaultTracingConfig())
	require.NoError(t, err)
	require.NotNil(t, tracer)
	assert.NoError(t, shutdown(context.Background()))
}
