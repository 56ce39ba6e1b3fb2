package catalog

import (
	"fmt"
	"slices"
)

// SortColumns are the fields a product list can be ordered by.
var SortColumns = []string{"id", "name", "category", "vendor", "article", "price", "quantity", "rating", "created_at"}

// ListQuery selects one page of the catalog. Search matches name, vendor,
// article or category, case-insensitively. Ties in SortBy fall back to id
// ascending so pages are stable.
type ListQuery struct {
	Offset int
	Limit  int
	Search string
	SortBy string // empty means id
	Desc   bool
}

func (q ListQuery) Validate() error {
	if q.SortBy != "" && !slices.Contains(SortColumns, q.SortBy) {
		return fmt.Errorf("%w: cannot sort by %q", ErrValidation, q.SortBy)
	}
	return nil
}
