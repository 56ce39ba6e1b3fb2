package fulfillment

import (
	"context"
	"errors"
	"fmt"

	kafkax "github.com/ariefcatur/go-stockorders/internal/kafka"
	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

type Fulfiller interface {
	FulfillOrder(ctx context.Context, id string) (orders.Order, error)
}

type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Service turns external fulfillment confirmations into order status
// changes.
type Service struct {
	Orders Fulfiller
	Dedup  Dedup // optional
	Log    zerolog.Logger
}

// HandleFulfillmentConfirmed is installed as the consumer handler.
func (s *Service) HandleFulfillmentConfirmed(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m)
	if err != nil {
		return err
	}
	if env.EventType != orders.EventFulfillmentConfirmed {
		return nil
	}

	if s.Dedup != nil && env.EventID != "" {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			s.Log.Warn().Err(err).Msg("dedup lookup failed, processing anyway")
		} else if seen {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.FulfillmentConfirmedPayload](env)
	if err != nil {
		return err
	}
	if p.OrderID == "" {
		return fmt.Errorf("%w: missing order_id", kafkax.ErrPermanent)
	}

	o, err := s.Orders.FulfillOrder(ctx, p.OrderID)
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", kafkax.ErrPermanent, err)
	case err != nil:
		return err
	}

	if s.Dedup != nil && env.EventID != "" {
		if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
			s.Log.Warn().Err(err).Str("event_id", env.EventID).Msg("dedup mark")
		}
	}
	s.Log.Info().Str("order_id", o.ID).Str("trace_id", env.TraceID).Str("carrier", p.Carrier).Msg("fulfillment confirmed")
	return nil
}
