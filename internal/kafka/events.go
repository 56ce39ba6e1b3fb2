package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const eventVersion = 1

// OrderEvents publishes order lifecycle events as v1 envelopes.
type OrderEvents struct {
	Producer *Producer
	Service  string
	now      func() time.Time
}

func NewOrderEvents(p *Producer, service string) *OrderEvents {
	return &OrderEvents{Producer: p, Service: service, now: time.Now}
}

func (e *OrderEvents) Publish(ctx context.Context, eventType string, o orders.Order) error {
	topic := orders.TopicFor(eventType)
	if topic == "" {
		return fmt.Errorf("no topic for event %q", eventType)
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    e.now().UTC(),
		Producer:      e.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: o.ID,
		Payload:       MustMarshal(orders.PayloadFor(o)),
	}
	ok := e.Producer.Publish(topic, orders.PartitionKey(o.ID), MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
	)
	if !ok {
		return fmt.Errorf("producer closed, dropped %s for order %s", eventType, o.ID)
	}
	return nil
}
