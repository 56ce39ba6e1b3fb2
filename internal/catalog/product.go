package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrDuplicateArticle = errors.New("article already exists")
	ErrValidation       = errors.New("invalid product")
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Vendor      string          `json:"vendor"`
	Article     string          `json:"article"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Rating      float64         `json:"rating"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"-"`
}

type NewProduct struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Vendor      string          `json:"vendor"`
	Article     string          `json:"article"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Rating      float64         `json:"rating"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
}

func (p NewProduct) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case strings.TrimSpace(p.Category) == "":
		return fmt.Errorf("%w: category is required", ErrValidation)
	case strings.TrimSpace(p.Vendor) == "":
		return fmt.Errorf("%w: vendor is required", ErrValidation)
	case strings.TrimSpace(p.Article) == "":
		return fmt.Errorf("%w: article is required", ErrValidation)
	case !p.Price.IsPositive():
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	case p.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	return validRating(p.Rating)
}

// ProductUpdate edits descriptive fields, article and price. Quantity is
// owned by the stock ledger and cannot be changed here.
type ProductUpdate struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Vendor      *string          `json:"vendor"`
	Article     *string          `json:"article"`
	Price       *decimal.Decimal `json:"price"`
	Rating      *float64         `json:"rating"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"image_url"`
}

func (u ProductUpdate) Validate() error {
	for field, v := range map[string]*string{"name": u.Name, "category": u.Category, "vendor": u.Vendor, "article": u.Article} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrValidation, field)
		}
	}
	if u.Price != nil && !u.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if u.Rating != nil {
		return validRating(*u.Rating)
	}
	return nil
}

// Apply copies the set fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Vendor != nil {
		p.Vendor = *u.Vendor
	}
	if u.Article != nil {
		p.Article = *u.Article
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
}

func validRating(r float64) error {
	if r < 0 || r > 5 {
		return fmt.Errorf("%w: rating must be within 0..5", ErrValidation)
	}
	return nil
}
