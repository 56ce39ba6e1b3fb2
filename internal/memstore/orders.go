package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/orders"
)

type Orders struct {
	mu   sync.RWMutex
	byID map[string]orders.Order
	now  func() time.Time
}

func NewOrders() *Orders {
	return &Orders{byID: map[string]orders.Order{}, now: time.Now}
}

func (s *Orders) Save(ctx context.Context, o orders.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byID[o.ID]; dup {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	s.byID[o.ID] = o
	return nil
}

func (s *Orders) Get(_ context.Context, id string) (orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return orders.Order{}, orders.NotFoundError("order", id)
	}
	return o, nil
}

func (s *Orders) List(_ context.Context, offset, limit int) ([]orders.Order, error) {
	s.mu.RLock()
	out := make([]orders.Order, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, o)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, offset, limit), nil
}

func (s *Orders) Transition(_ context.Context, id string, from, to orders.Status) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return orders.Order{}, orders.NotFoundError("order", id)
	}
	if o.Status != from {
		return orders.Order{}, orders.ErrStaleStatus
	}
	o.Status = to
	o.UpdatedAt = s.now().UTC()
	s.byID[id] = o
	return o, nil
}

func (s *Orders) MarkReleased(_ context.Context, id string, released bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return orders.NotFoundError("order", id)
	}
	if o.StockReleased == released {
		return orders.ErrStaleStatus
	}
	o.StockReleased = released
	o.UpdatedAt = s.now().UTC()
	s.byID[id] = o
	return nil
}
