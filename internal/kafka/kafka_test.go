package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, zerolog.Nop())
	p.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.True(t, p.Publish("t", []byte("k"), []byte("v")))
	}
	p.Close()
	p.Close()
	p.WaitClosed()

	assert.Len(t, w.msgs, 5)
	assert.True(t, w.closed)
	assert.False(t, p.Publish("t", nil, nil), "publish after close is refused")
}

func TestOrderEvents_Envelope(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 1, zerolog.Nop())
	p.Start(context.Background())
	ev := NewOrderEvents(p, "order-api")

	o := orders.Order{
		ID: "o-1", UserID: 3, ProductID: 9, Article: "A-9", Quantity: 2,
		TotalAmount: decimal.RequireFromString("12.50"), Status: orders.StatusPending,
	}
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	require.NoError(t, ev.Publish(ctx, orders.EventOrderPlaced, o))
	require.Error(t, ev.Publish(ctx, "Unknown", o))
	p.Close()
	p.WaitClosed()

	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, orders.TopicOrderPlaced, m.Topic)
	assert.Equal(t, []byte("o-1"), m.Key)
	assert.Equal(t, "x-event-type", m.Headers[0].Key)
	assert.Equal(t, orders.EventOrderPlaced, string(m.Headers[0].Value))

	env, err := DecodeEnvelope(m)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "order-api", env.Producer)
	assert.Equal(t, "req-1", env.TraceID)
	assert.Equal(t, "o-1", env.CorrelationID)

	payload, err := UnwrapPayload[orders.OrderEventPayload](env)
	require.NoError(t, err)
	assert.Equal(t, int64(9), payload.ProductID)
	assert.True(t, payload.TotalAmount.Equal(decimal.RequireFromString("12.5")))

	require.Error(t, ev.Publish(ctx, orders.EventOrderPlaced, o), "closed producer")
}

type fakeReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) offsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestConsumer_CommitPolicy(t *testing.T) {
	r := newFakeReader(
		kafka.Message{Offset: 1, Value: []byte("ok")},
		kafka.Message{Offset: 2, Value: []byte("poison")},
		kafka.Message{Offset: 3, Value: []byte("flaky")},
	)
	c := newConsumer(r, 2, zerolog.Nop())
	c.maxTries = 2

	var mu sync.Mutex
	calls := map[string]int{}
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		v := string(m.Value)
		calls[v]++
		switch v {
		case "poison":
			return ErrPermanent
		case "flaky":
			if calls[v] == 1 {
				return errors.New("timeout")
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool {
		return len(r.offsets()) == 3
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// one partition, so commits follow offset order
	assert.Equal(t, []int64{1, 2, 3}, r.offsets())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls["poison"])
	assert.Equal(t, 2, calls["flaky"])
}

func TestConsumer_FailedOffsetBlocksLaterCommits(t *testing.T) {
	r := newFakeReader(
		kafka.Message{Partition: 0, Offset: 10, Value: []byte("down")},
		kafka.Message{Partition: 0, Offset: 11, Value: []byte("ok")},
	)
	c := newConsumer(r, 2, zerolog.Nop())
	c.maxTries = 2

	var calls atomic.Int32
	h := func(_ context.Context, m kafka.Message) error {
		calls.Add(1)
		if string(m.Value) == "down" {
			return errors.New("db down")
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background(), h) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorContains(t, err, "db down")
		assert.ErrorContains(t, err, "offset 10")
	case <-time.After(5 * time.Second):
		t.Fatal("consumer kept running after an exhausted failure")
	}
	assert.Empty(t, r.offsets())
	assert.Equal(t, int32(2), calls.Load(), "offset 11 is never handled")
}

func TestDecodeEnvelope(t *testing.T) {
	_, err := DecodeEnvelope(kafka.Message{Value: []byte("nope")})
	require.ErrorIs(t, err, ErrPermanent)

	_, err = DecodeEnvelope(kafka.Message{Value: MustMarshal(orders.Envelope{EventType: "X", EventVersion: 2})})
	require.ErrorIs(t, err, ErrPermanent)

	env, err := DecodeEnvelope(kafka.Message{
		Value:   []byte(`{"event_id":"e1","payload":{"order_id":"o-9"}}`),
		Headers: []kafka.Header{{Key: "x-event-type", Value: []byte(orders.EventFulfillmentConfirmed)}},
	})
	require.NoError(t, err)
	assert.Equal(t, orders.EventFulfillmentConfirmed, env.EventType)

	p, err := UnwrapPayload[orders.FulfillmentConfirmedPayload](env)
	require.NoError(t, err)
	assert.Equal(t, "o-9", p.OrderID)

	_, err = UnwrapPayload[orders.FulfillmentConfirmedPayload](orders.Envelope{Payload: []byte(`"str"`)})
	require.ErrorIs(t, err, ErrPermanent)
}
