package postgres

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, product_id, product_name, vendor, article, price, quantity, total_amount, status, stock_released, created_at, updated_at`

type OrderStore struct{ DB *pgxpool.Pool }

func scanOrder(row pgx.Row) (orders.Order, error) {
	var o orders.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.ProductName, &o.Vendor, &o.Article,
		&o.Price, &o.Quantity, &o.TotalAmount, &status, &o.StockReleased, &o.CreatedAt, &o.UpdatedAt)
	o.Status = orders.Status(status)
	return o, err
}

func (s *OrderStore) Save(ctx context.Context, o orders.Order) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, o.UserID, o.ProductID, o.ProductName, o.Vendor, o.Article,
		o.Price, o.Quantity, o.TotalAmount, string(o.Status), o.StockReleased, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (s *OrderStore) Get(ctx context.Context, id string) (orders.Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, orders.NotFoundError("order", id)
	}
	return o, err
}

func (s *OrderStore) List(ctx context.Context, offset, limit int) ([]orders.Order, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders
	                               ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []orders.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Transition is a compare-and-set on status.
func (s *OrderStore) Transition(ctx context.Context, id string, from, to orders.Status) (orders.Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		 WHERE id=$1 AND status=$2
		RETURNING `+orderColumns, id, string(from), string(to)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, err
	}
	return orders.Order{}, s.staleOrMissing(ctx, id)
}

// MarkReleased flips stock_released with the same compare-and-set shape as
// Transition.
func (s *OrderStore) MarkReleased(ctx context.Context, id string, released bool) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE orders SET stock_released=$2, updated_at=now()
		 WHERE id=$1 AND stock_released <> $2`, id, released)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	return s.staleOrMissing(ctx, id)
}

func (s *OrderStore) staleOrMissing(ctx context.Context, id string) error {
	var exists bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return orders.NotFoundError("order", id)
	}
	return orders.ErrStaleStatus
}
