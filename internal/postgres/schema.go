package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Table struct {
	Name string
	DDL  []string
}

// Schema lists every table in creation order.
var Schema = []Table{
	{
		Name: "users",
		DDL: []string{`
CREATE TABLE IF NOT EXISTS users (
	id              BIGSERIAL PRIMARY KEY,
	email           TEXT NOT NULL,
	username        TEXT NOT NULL,
	full_name       TEXT NOT NULL DEFAULT '',
	hashed_password TEXT NOT NULL,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	is_superuser    BOOLEAN NOT NULL DEFAULT FALSE,
	refresh_token   TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT users_email_key UNIQUE (email),
	CONSTRAINT users_username_key UNIQUE (username)
)`},
	},
	{
		Name: "products",
		DDL: []string{`
CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	vendor      TEXT NOT NULL,
	article     TEXT NOT NULL,
	price       NUMERIC(12,2) NOT NULL CHECK (price > 0),
	quantity    INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	rating      DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 5),
	description TEXT NOT NULL DEFAULT '',
	image_url   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ,
	CONSTRAINT products_article_key UNIQUE (article)
)`,
			`CREATE INDEX IF NOT EXISTS products_name_idx ON products (name)`,
		},
	},
	{
		Name: "orders",
		DDL: []string{`
CREATE TABLE IF NOT EXISTS orders (
	id           TEXT PRIMARY KEY,
	user_id      BIGINT NOT NULL DEFAULT 0,
	product_id   BIGINT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
	product_name TEXT NOT NULL,
	vendor       TEXT NOT NULL,
	article      TEXT NOT NULL,
	price        NUMERIC(12,2) NOT NULL,
	quantity     INTEGER NOT NULL CHECK (quantity > 0),
	total_amount NUMERIC(14,2) NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','fulfilled','cancelled')),
	stock_released BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
			`ALTER TABLE orders ADD COLUMN IF NOT EXISTS stock_released BOOLEAN NOT NULL DEFAULT FALSE`,
			`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at DESC, id DESC)`,
			`CREATE INDEX IF NOT EXISTS orders_product_id_idx ON orders (product_id)`,
		},
	},
}

// Migrate applies Schema inside one transaction. Every statement is
// idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, t := range Schema {
		for _, stmt := range t.DDL {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migrate %s: %w", t.Name, err)
			}
		}
	}
	return tx.Commit(ctx)
}
