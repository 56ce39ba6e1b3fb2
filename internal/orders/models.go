package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the persisted record of a placed order. Everything except Status,
// StockReleased and UpdatedAt is frozen at creation. StockReleased is set
// once a cancelled order's quantity is back in the ledger.
type Order struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id,omitempty"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Vendor        string          `json:"vendor"`
	Article       string          `json:"article"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        Status          `json:"status"` // lihat status.go
	StockReleased bool            `json:"stock_released"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Reservation is a claim on stock taken by the ledger. The product fields
// are read in the same atomic step as the decrement.
type Reservation struct {
	ProductID   int64
	Quantity    int
	ProductName string
	Vendor      string
	Article     string
	Price       decimal.Decimal
	Remaining   int
}

type PlaceOrderRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UserID    int64 `json:"-"`
}
