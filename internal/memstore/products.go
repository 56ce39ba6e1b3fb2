// Package memstore keeps products, orders and users in process memory. It
// backs STORAGE_DRIVER=memory and the service tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/catalog"
	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/rs/zerolog"
)

type productEntry struct {
	mu sync.Mutex
	p  catalog.Product
}

// Products is both the catalog repository and the stock ledger. The map
// lock only guards membership; each product has its own mutex, so
// reservations on different products never contend.
type Products struct {
	mu        sync.RWMutex
	byID      map[int64]*productEntry
	byArticle map[string]int64
	nextID    int64
	now       func() time.Time
	log       zerolog.Logger
}

func NewProducts(log zerolog.Logger) *Products {
	return &Products{
		byID:      map[int64]*productEntry{},
		byArticle: map[string]int64{},
		now:       time.Now,
		log:       log.With().Str("component", "memstore.products").Logger(),
	}
}

func (s *Products) entry(id int64) (*productEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	return e, ok
}

func (s *Products) Reserve(ctx context.Context, productID int64, qty int) (orders.Reservation, error) {
	if qty <= 0 {
		return orders.Reservation{}, orders.ErrInvalidQuantity
	}
	if err := ctx.Err(); err != nil {
		return orders.Reservation{}, err
	}
	e, ok := s.entry(productID)
	if !ok {
		return orders.Reservation{}, orders.NotFoundError("product", productID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.p.DeletedAt != nil {
		return orders.Reservation{}, orders.NotFoundError("product", productID)
	}
	if e.p.Quantity < qty {
		return orders.Reservation{}, &orders.InsufficientStockError{
			ProductID: productID, Requested: qty, Available: e.p.Quantity,
		}
	}
	e.p.Quantity -= qty
	e.p.UpdatedAt = s.now().UTC()
	return orders.Reservation{
		ProductID:   productID,
		Quantity:    qty,
		ProductName: e.p.Name,
		Vendor:      e.p.Vendor,
		Article:     e.p.Article,
		Price:       e.p.Price,
		Remaining:   e.p.Quantity,
	}, nil
}

func (s *Products) Release(_ context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return orders.ErrInvalidQuantity
	}
	e, ok := s.entry(productID)
	if !ok {
		s.log.Warn().Int64("product_id", productID).Int("qty", qty).Msg("release for unknown product")
		return orders.NotFoundError("product", productID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.p.Quantity += qty
	e.p.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Products) Create(_ context.Context, np catalog.NewProduct) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byArticle[np.Article]; dup {
		return catalog.Product{}, catalog.ErrDuplicateArticle
	}
	s.nextID++
	now := s.now().UTC()
	p := catalog.Product{
		ID:          s.nextID,
		Name:        np.Name,
		Category:    np.Category,
		Vendor:      np.Vendor,
		Article:     np.Article,
		Price:       np.Price,
		Quantity:    np.Quantity,
		Rating:      np.Rating,
		Description: np.Description,
		ImageURL:    np.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.byID[p.ID] = &productEntry{p: p}
	s.byArticle[p.Article] = p.ID
	return p, nil
}

func (s *Products) Get(_ context.Context, id int64) (catalog.Product, error) {
	e, ok := s.entry(id)
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.p.DeletedAt != nil {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return e.p, nil
}

func (s *Products) List(_ context.Context, q catalog.ListQuery) ([]catalog.Product, error) {
	s.mu.RLock()
	entries := make([]*productEntry, 0, len(s.byID))
	for _, e := range s.byID {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		p := e.p
		e.mu.Unlock()
		if p.DeletedAt == nil && matches(p, q.Search) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b catalog.Product) int {
		c := compareBy(a, b, q.SortBy)
		if q.Desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})
	return page(out, q.Offset, q.Limit), nil
}

func matches(p catalog.Product, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range []string{p.Name, p.Vendor, p.Article, p.Category} {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func compareBy(a, b catalog.Product, col string) int {
	switch col {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "category":
		return strings.Compare(a.Category, b.Category)
	case "vendor":
		return strings.Compare(a.Vendor, b.Vendor)
	case "article":
		return strings.Compare(a.Article, b.Article)
	case "price":
		return a.Price.Cmp(b.Price)
	case "quantity":
		return cmp.Compare(a.Quantity, b.Quantity)
	case "rating":
		return cmp.Compare(a.Rating, b.Rating)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return cmp.Compare(a.ID, b.ID)
}

func (s *Products) Update(_ context.Context, id int64, u catalog.ProductUpdate) (catalog.Product, error) {
	var (
		e  *productEntry
		ok bool
	)
	if u.Article != nil {
		// byArticle changes too, so hold the map lock for the whole update
		s.mu.Lock()
		defer s.mu.Unlock()
		e, ok = s.byID[id]
	} else {
		e, ok = s.entry(id)
	}
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.p.DeletedAt != nil {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if u.Article != nil && *u.Article != e.p.Article {
		if _, dup := s.byArticle[*u.Article]; dup {
			return catalog.Product{}, catalog.ErrDuplicateArticle
		}
		delete(s.byArticle, e.p.Article)
		s.byArticle[*u.Article] = id
	}
	u.Apply(&e.p)
	e.p.UpdatedAt = s.now().UTC()
	return e.p, nil
}

func (s *Products) Delete(_ context.Context, id int64) error {
	e, ok := s.entry(id)
	if !ok {
		return catalog.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.p.DeletedAt != nil {
		return catalog.ErrNotFound
	}
	now := s.now().UTC()
	e.p.DeletedAt = &now
	return nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
