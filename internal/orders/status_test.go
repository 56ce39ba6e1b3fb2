package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusFulfilled, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPending, false},
		{StatusFulfilled, StatusCancelled, false},
		{StatusFulfilled, StatusPending, false},
		{StatusCancelled, StatusFulfilled, false},
		{StatusCancelled, StatusPending, false},
		{Status("shipped"), StatusCancelled, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, &InvalidTransitionError{OrderID: "o1", From: StatusCancelled, To: StatusFulfilled}, ErrInvalidTransition)
	assert.ErrorIs(t, &PersistenceError{Op: "save", Err: ErrConflict}, ErrPersistence)
	assert.ErrorIs(t, &PersistenceError{Op: "save", Err: ErrConflict}, ErrConflict)
	assert.ErrorIs(t, NotFoundError("order", "o1"), ErrNotFound)
	assert.EqualError(t, &InsufficientStockError{ProductID: 1, Requested: 3, Available: 2},
		"insufficient stock for product 1: requested=3 available=2")
}
