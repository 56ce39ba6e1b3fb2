package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 2147483647")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrPersistence       = errors.New("persistence failure")

	// ErrConflict is returned by a ledger when a reservation lost a race at
	// the storage layer and may be retried.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrStaleStatus is returned by Store.Transition when the stored status
	// no longer matches the expected one.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested=%d available=%d",
		e.ProductID, e.Requested, e.Available)
}

type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// PersistenceError means storage was unavailable or a write was aborted.
// Any reservation taken by the operation has been released (or the release
// failure is joined into Err).
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: persistence failure: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NotFoundError wraps ErrNotFound with the missing entity.
func NotFoundError(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
}
