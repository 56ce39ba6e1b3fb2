package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type Options struct {
	// MaxConflictRetries bounds how often a reservation that hit ErrConflict
	// is retried before the caller gets a PersistenceError.
	MaxConflictRetries uint
	// ReleaseTimeout bounds compensating releases, which run detached from
	// the caller's context.
	ReleaseTimeout time.Duration

	Now   func() time.Time
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.ReleaseTimeout <= 0 {
		o.ReleaseTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Service places orders against the stock ledger and drives the order
// status machine. A reservation is held only for the duration of
// PlaceOrder: it either ends up in a saved order or is released.
type Service struct {
	ledger StockLedger
	store  Store
	events Publisher
	log    zerolog.Logger
	opts   Options
}

func NewService(ledger StockLedger, store Store, events Publisher, log zerolog.Logger, opts Options) *Service {
	if events == nil {
		events = nopPublisher{}
	}
	return &Service{
		ledger: ledger,
		store:  store,
		events: events,
		log:    log.With().Str("component", "orders").Logger(),
		opts:   opts.withDefaults(),
	}
}

func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ Order, err error) {
	// stock columns are INTEGER
	if req.Quantity <= 0 || req.Quantity > math.MaxInt32 {
		return Order{}, ErrInvalidQuantity
	}

	res, err := s.reserve(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return Order{}, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rerr := s.release(ctx, res, 1); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	now := s.opts.Now().UTC()
	o := Order{
		ID:          s.opts.NewID(),
		UserID:      req.UserID,
		ProductID:   res.ProductID,
		ProductName: res.ProductName,
		Vendor:      res.Vendor,
		Article:     res.Article,
		Price:       res.Price,
		Quantity:    req.Quantity,
		TotalAmount: res.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// caller gave up between reserve and save
	if cerr := ctx.Err(); cerr != nil {
		return Order{}, fmt.Errorf("place order: %w", cerr)
	}
	if serr := s.store.Save(ctx, o); serr != nil {
		return Order{}, &PersistenceError{Op: "save order", Err: serr}
	}
	committed = true

	s.log.Info().
		Str("order_id", o.ID).
		Int64("product_id", o.ProductID).
		Int("qty", o.Quantity).
		Int("remaining", res.Remaining).
		Msg("order placed")
	s.publish(ctx, EventOrderPlaced, o)
	return o, nil
}

// CancelOrder moves a pending order to cancelled and returns its stock.
// Cancelling an already cancelled order is a no-op, unless an earlier
// cancel failed to release the stock, in which case the release is retried.
func (s *Service) CancelOrder(ctx context.Context, id string) (Order, error) {
	o, changed, err := s.transition(ctx, id, StatusCancelled)
	if err != nil {
		return o, err
	}
	if o.StockReleased {
		return o, nil
	}

	// only the caller that claims the marker touches the ledger
	if err := s.store.MarkReleased(ctx, id, true); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return o, nil
		}
		return o, storeErr("claim stock release", err)
	}
	res := Reservation{ProductID: o.ProductID, Quantity: o.Quantity}
	if err := s.release(ctx, res, 3); err != nil {
		// hand the claim back so the next cancel retries the release
		if uerr := s.store.MarkReleased(context.WithoutCancel(ctx), id, false); uerr != nil {
			s.log.Error().Err(uerr).Str("order_id", id).Msg("unclaim stock release")
			err = errors.Join(err, uerr)
		}
		return o, &PersistenceError{Op: "cancel order", Err: err}
	}
	o.StockReleased = true

	s.log.Info().
		Str("order_id", o.ID).
		Int64("product_id", o.ProductID).
		Int("qty", o.Quantity).
		Bool("retried_release", !changed).
		Msg("order cancelled")
	s.publish(ctx, EventOrderCancelled, o)
	return o, nil
}

// FulfillOrder records external fulfillment confirmation. Repeating it on a
// fulfilled order is a no-op.
func (s *Service) FulfillOrder(ctx context.Context, id string) (Order, error) {
	o, changed, err := s.transition(ctx, id, StatusFulfilled)
	if err != nil || !changed {
		return o, err
	}
	s.log.Info().Str("order_id", o.ID).Msg("order fulfilled")
	s.publish(ctx, EventOrderFulfilled, o)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, storeErr("get order", err)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, offset, limit int) ([]Order, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	out, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	return out, nil
}

func (s *Service) reserve(ctx context.Context, productID int64, qty int) (Reservation, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond

	op := func() (Reservation, error) {
		res, err := s.ledger.Reserve(ctx, productID, qty)
		if err == nil || errors.Is(err, ErrConflict) {
			return res, err
		}
		return res, backoff.Permanent(err)
	}
	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(s.opts.MaxConflictRetries+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			s.log.Debug().Err(err).Int64("product_id", productID).Dur("backoff", d).Msg("reserve conflict, retrying")
		}),
	)
	if err == nil {
		return res, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	var insufficient *InsufficientStockError
	switch {
	case errors.Is(err, ErrNotFound), errors.As(err, &insufficient), errors.Is(err, ErrInvalidQuantity):
		return Reservation{}, err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Reservation{}, fmt.Errorf("reserve: %w", err)
	}
	return Reservation{}, &PersistenceError{Op: "reserve stock", Err: err}
}

// release returns a reservation to the ledger on a context that survives
// the caller's cancellation.
func (s *Service) release(ctx context.Context, res Reservation, tries uint) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ReleaseTimeout)
	defer cancel()

	_, err := backoff.Retry(rctx, func() (struct{}, error) {
		err := s.ledger.Release(rctx, res.ProductID, res.Quantity)
		if errors.Is(err, ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewConstantBackOff(50*time.Millisecond)), backoff.WithMaxTries(tries))
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		s.log.Error().Err(err).
			Int64("product_id", res.ProductID).
			Int("qty", res.Quantity).
			Msg("stock release failed")
		return fmt.Errorf("release %d of product %d: %w", res.Quantity, res.ProductID, err)
	}
	return nil
}

// transition applies a compare-and-set status change. changed is false when
// the order already had status `to`.
func (s *Service) transition(ctx context.Context, id string, to Status) (o Order, changed bool, err error) {
	o, err = s.store.Get(ctx, id)
	if err != nil {
		return Order{}, false, storeErr("get order", err)
	}
	// A lost CAS means another caller moved the order out of pending, so
	// the second read always sees a terminal status.
	for attempt := 0; attempt < 3; attempt++ {
		if o.Status == to {
			return o, false, nil
		}
		if !CanTransition(o.Status, to) {
			return o, false, &InvalidTransitionError{OrderID: id, From: o.Status, To: to}
		}
		updated, err := s.store.Transition(ctx, id, o.Status, to)
		if err == nil {
			return updated, true, nil
		}
		if !errors.Is(err, ErrStaleStatus) {
			return o, false, storeErr("update order status", err)
		}
		if o, err = s.store.Get(ctx, id); err != nil {
			return Order{}, false, storeErr("get order", err)
		}
	}
	return o, false, &PersistenceError{Op: "update order status", Err: ErrStaleStatus}
}

func (s *Service) publish(ctx context.Context, eventType string, o Order) {
	if err := s.events.Publish(ctx, eventType, o); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Str("order_id", o.ID).Msg("publish event")
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
