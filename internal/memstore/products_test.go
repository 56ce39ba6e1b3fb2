package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/ariefcatur/go-stockorders/internal/catalog"
	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Products, article string, qty int) catalog.Product {
	t.Helper()
	p, err := s.Create(context.Background(), catalog.NewProduct{
		Name: "Cable", Category: "parts", Vendor: "Acme", Article: article,
		Price: decimal.RequireFromString("4.20"), Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func TestReserveRelease_NeverNegative(t *testing.T) {
	s := NewProducts(zerolog.Nop())
	p := seed(t, s, "CBL-1", 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			qty := i%4 + 1
			if _, err := s.Reserve(ctx, p.ID, qty); err != nil {
				var insufficient *orders.InsufficientStockError
				assert.ErrorAs(t, err, &insufficient)
				assert.GreaterOrEqual(t, insufficient.Available, 0)
				return
			}
			if i%2 == 0 {
				assert.NoError(t, s.Release(ctx, p.ID, qty))
				return
			}
			mu.Lock()
			reserved += qty
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Quantity, 0)
	assert.Equal(t, 10, got.Quantity+reserved)
}

func TestReserve_ReturnsSnapshot(t *testing.T) {
	s := NewProducts(zerolog.Nop())
	p := seed(t, s, "CBL-2", 3)

	res, err := s.Reserve(context.Background(), p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "Cable", res.ProductName)
	assert.Equal(t, "CBL-2", res.Article)
	assert.True(t, res.Price.Equal(decimal.RequireFromString("4.2")))
	assert.Equal(t, 1, res.Remaining)
}

func TestRelease_UnknownProduct(t *testing.T) {
	s := NewProducts(zerolog.Nop())
	require.ErrorIs(t, s.Release(context.Background(), 42, 1), orders.ErrNotFound)
}

func TestRelease_SoftDeletedProductStillAcceptsStock(t *testing.T) {
	s := NewProducts(zerolog.Nop())
	p := seed(t, s, "CBL-3", 3)
	ctx := context.Background()
	_, err := s.Reserve(ctx, p.ID, 2)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, p.ID))

	require.NoError(t, s.Release(ctx, p.ID, 2))
	_, err = s.Get(ctx, p.ID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = s.Reserve(ctx, p.ID, 1)
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestCatalog_DuplicateArticleAndPaging(t *testing.T) {
	s := NewProducts(zerolog.Nop())
	ctx := context.Background()
	seed(t, s, "A", 1)
	seed(t, s, "B", 1)
	seed(t, s, "C", 1)

	_, err := s.Create(ctx, catalog.NewProduct{Name: "x", Category: "y", Vendor: "z", Article: "A", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, catalog.ErrDuplicateArticle)

	list, err := s.List(ctx, catalog.ListQuery{Offset: 1, Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Article)

	empty, err := s.List(ctx, catalog.ListQuery{Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCatalog_SearchAndSort(t *testing.T) {
	s := NewProducts(zerolog.Nop())
	ctx := context.Background()
	mk := func(name, vendor, article, price string) {
		_, err := s.Create(ctx, catalog.NewProduct{
			Name: name, Category: "parts", Vendor: vendor, Article: article,
			Price: decimal.RequireFromString(price), Quantity: 1,
		})
		require.NoError(t, err)
	}
	mk("USB Cable", "Acme", "CBL-1", "4.20")
	mk("Desk Lamp", "Lumo", "LMP-1", "19.99")
	mk("HDMI cable", "Zeta", "CBL-2", "7.00")

	articles := func(ps []catalog.Product) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Article)
		}
		return out
	}

	list, err := s.List(ctx, catalog.ListQuery{Limit: 10, Search: "CABLE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CBL-1", "CBL-2"}, articles(list))

	list, err = s.List(ctx, catalog.ListQuery{Limit: 10, Search: "lumo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"LMP-1"}, articles(list), "vendor matches")

	list, err = s.List(ctx, catalog.ListQuery{Limit: 10, SortBy: "price", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"LMP-1", "CBL-2", "CBL-1"}, articles(list))

	list, err = s.List(ctx, catalog.ListQuery{Limit: 10, SortBy: "vendor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CBL-1", "LMP-1", "CBL-2"}, articles(list))

	// equal categories keep id order
	list, err = s.List(ctx, catalog.ListQuery{Limit: 10, SortBy: "category", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"CBL-1", "LMP-1", "CBL-2"}, articles(list))
}

func TestCatalog_UpdateArticle(t *testing.T) {
	s := NewProducts(zerolog.Nop())
	ctx := context.Background()
	a := seed(t, s, "A", 1)
	seed(t, s, "B", 1)

	taken := "B"
	_, err := s.Update(ctx, a.ID, catalog.ProductUpdate{Article: &taken})
	require.ErrorIs(t, err, catalog.ErrDuplicateArticle)

	same := "A"
	_, err = s.Update(ctx, a.ID, catalog.ProductUpdate{Article: &same})
	require.NoError(t, err, "keeping the own article is not a duplicate")

	fresh := "A2"
	got, err := s.Update(ctx, a.ID, catalog.ProductUpdate{Article: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Article)

	// the old article is free again
	seed(t, s, "A", 1)
	_, err = s.Create(ctx, catalog.NewProduct{Name: "x", Category: "y", Vendor: "z", Article: "A2", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, catalog.ErrDuplicateArticle)
}

func TestOrders_MarkReleasedIsCompareAndSet(t *testing.T) {
	s := NewOrders()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, orders.Order{ID: "o1", Status: orders.StatusCancelled}))

	require.NoError(t, s.MarkReleased(ctx, "o1", true))
	require.ErrorIs(t, s.MarkReleased(ctx, "o1", true), orders.ErrStaleStatus)
	o, err := s.Get(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, o.StockReleased)

	require.NoError(t, s.MarkReleased(ctx, "o1", false))
	require.ErrorIs(t, s.MarkReleased(ctx, "nope", true), orders.ErrNotFound)
}

func TestOrders_TransitionIsCompareAndSet(t *testing.T) {
	s := NewOrders()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, orders.Order{ID: "o1", Status: orders.StatusPending}))
	require.Error(t, s.Save(ctx, orders.Order{ID: "o1", Status: orders.StatusPending}))

	o, err := s.Transition(ctx, "o1", orders.StatusPending, orders.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, o.Status)

	_, err = s.Transition(ctx, "o1", orders.StatusPending, orders.StatusFulfilled)
	require.ErrorIs(t, err, orders.ErrStaleStatus)
	_, err = s.Transition(ctx, "nope", orders.StatusPending, orders.StatusFulfilled)
	require.ErrorIs(t, err, orders.ErrNotFound)
}
