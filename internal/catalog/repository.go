package catalog

import "context"

type Repository interface {
	Create(ctx context.Context, p NewProduct) (Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	List(ctx context.Context, q ListQuery) ([]Product, error)
	Update(ctx context.Context, id int64, u ProductUpdate) (Product, error)
	// Delete hides a product from the catalog. Rows are kept because orders
	// still reference them.
	Delete(ctx context.Context, id int64) error
}
