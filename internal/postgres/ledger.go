package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Ledger reserves stock with a single conditional UPDATE, so the check and
// the decrement are one atomic statement under the row lock.
type Ledger struct {
	DB  *pgxpool.Pool
	Log zerolog.Logger
}

func (l *Ledger) Reserve(ctx context.Context, productID int64, qty int) (orders.Reservation, error) {
	if qty <= 0 {
		return orders.Reservation{}, orders.ErrInvalidQuantity
	}
	res := orders.Reservation{ProductID: productID, Quantity: qty}
	err := l.DB.QueryRow(ctx, `
		UPDATE products
		   SET quantity = quantity - $2, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL AND quantity >= $2
		RETURNING name, vendor, article, price, quantity`,
		productID, qty,
	).Scan(&res.ProductName, &res.Vendor, &res.Article, &res.Price, &res.Remaining)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return orders.Reservation{}, conflictOr(err)
	}

	// nothing updated: tell missing product from short stock
	var available int
	err = l.DB.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1 AND deleted_at IS NULL`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Reservation{}, orders.NotFoundError("product", productID)
	}
	if err != nil {
		return orders.Reservation{}, conflictOr(err)
	}
	if available >= qty {
		// stock came back between the two statements
		return orders.Reservation{}, orders.ErrConflict
	}
	return orders.Reservation{}, &orders.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

// Release adds stock back, also for soft-deleted products.
func (l *Ledger) Release(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return orders.ErrInvalidQuantity
	}
	ct, err := l.DB.Exec(ctx, `UPDATE products SET quantity = quantity + $2, updated_at = now() WHERE id=$1`, productID, qty)
	if err != nil {
		return conflictOr(err)
	}
	if ct.RowsAffected() != 1 {
		l.Log.Warn().Int64("product_id", productID).Int("qty", qty).Msg("release for unknown product")
		return orders.NotFoundError("product", productID)
	}
	return nil
}
