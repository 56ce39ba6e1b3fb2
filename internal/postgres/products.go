package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-stockorders/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, name, category, vendor, article, price, quantity, rating, description, image_url, created_at, updated_at`

// ProductRepo is the catalog side of the products table. It never writes
// quantity after insert; the Ledger owns that column.
type ProductRepo struct{ DB *pgxpool.Pool }

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Vendor, &p.Article, &p.Price, &p.Quantity,
		&p.Rating, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepo) Create(ctx context.Context, np catalog.NewProduct) (catalog.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products(name, category, vendor, article, price, quantity, rating, description, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+productColumns,
		np.Name, np.Category, np.Vendor, np.Article, np.Price, np.Quantity, np.Rating, np.Description, np.ImageURL,
	))
	if code, _ := pgCode(err); code == codeUniqueViolation {
		return catalog.Product{}, catalog.ErrDuplicateArticle
	}
	return p, err
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, err
}

// sortColumns whitelists ORDER BY targets; keys come from catalog.SortColumns.
var sortColumns = map[string]string{
	"id": "id", "name": "name", "category": "category", "vendor": "vendor", "article": "article",
	"price": "price", "quantity": "quantity", "rating": "rating", "created_at": "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func listSQL(q catalog.ListQuery) (string, error) {
	col := "id"
	if q.SortBy != "" {
		c, ok := sortColumns[q.SortBy]
		if !ok {
			return "", fmt.Errorf("%w: cannot sort by %q", catalog.ErrValidation, q.SortBy)
		}
		col = c
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	return `SELECT ` + productColumns + ` FROM products
	         WHERE deleted_at IS NULL
	           AND ($1 = '' OR name ILIKE $2 OR vendor ILIKE $2 OR article ILIKE $2 OR category ILIKE $2)
	         ORDER BY ` + col + ` ` + dir + `, id
	         OFFSET $3 LIMIT $4`, nil
}

func (r *ProductRepo) List(ctx context.Context, q catalog.ListQuery) ([]catalog.Product, error) {
	query, err := listSQL(q)
	if err != nil {
		return nil, err
	}
	pattern := "%" + likeEscaper.Replace(q.Search) + "%"
	rows, err := r.DB.Query(ctx, query, q.Search, pattern, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepo) Update(ctx context.Context, id int64, u catalog.ProductUpdate) (catalog.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET
			name        = COALESCE($2, name),
			category    = COALESCE($3, category),
			vendor      = COALESCE($4, vendor),
			price       = COALESCE($5, price),
			rating      = COALESCE($6, rating),
			description = COALESCE($7, description),
			image_url   = COALESCE($8, image_url),
			article     = COALESCE($9, article),
			updated_at  = now()
		 WHERE id=$1 AND deleted_at IS NULL
		RETURNING `+productColumns,
		id, u.Name, u.Category, u.Vendor, u.Price, u.Rating, u.Description, u.ImageURL, u.Article,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if code, _ := pgCode(err); code == codeUniqueViolation {
		return catalog.Product{}, catalog.ErrDuplicateArticle
	}
	return p, err
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return catalog.ErrNotFound
	}
	return nil
}
