package orders

import "context"

// StockLedger owns the mutable quantity of products.
type StockLedger interface {
	// Reserve decrements stock by qty if at least qty units are available.
	// Check and decrement happen as one atomic step per product.
	Reserve(ctx context.Context, productID int64, qty int) (Reservation, error)
	// Release returns qty units to the product.
	Release(ctx context.Context, productID int64, qty int) error
}

// Store persists orders. It holds no business rules.
type Store interface {
	Save(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	// List returns orders newest first.
	List(ctx context.Context, offset, limit int) ([]Order, error)
	// Transition sets status to `to` only if it is currently `from`,
	// otherwise returns ErrStaleStatus.
	Transition(ctx context.Context, id string, from, to Status) (Order, error)
	// MarkReleased sets StockReleased to released only if it currently
	// holds the opposite value, otherwise returns ErrStaleStatus. Setting
	// true claims the release; setting false hands it back after a failure.
	MarkReleased(ctx context.Context, id string, released bool) error
}

// Publisher emits domain events after state changes are committed.
type Publisher interface {
	Publish(ctx context.Context, eventType string, o Order) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, Order) error { return nil }
