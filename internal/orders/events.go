package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced          = "OrderPlaced"
	EventOrderCancelled       = "OrderCancelled"
	EventOrderFulfilled       = "OrderFulfilled"
	EventFulfillmentConfirmed = "FulfillmentConfirmed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g., "order-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// OrderEventPayload is shared by placed/cancelled/fulfilled events.
type OrderEventPayload struct {
	OrderID     string          `json:"order_id"`
	UserID      int64           `json:"user_id,omitempty"`
	ProductID   int64           `json:"product_id"`
	Article     string          `json:"article"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
}

type FulfillmentConfirmedPayload struct {
	OrderID string `json:"order_id"`
	Carrier string `json:"carrier,omitempty"`
}

func PayloadFor(o Order) OrderEventPayload {
	return OrderEventPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		ProductID:   o.ProductID,
		Article:     o.Article,
		Quantity:    o.Quantity,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
	}
}

// TopicFor maps an event type to the topic it is published on.
func TopicFor(eventType string) string {
	switch eventType {
	case EventOrderPlaced:
		return TopicOrderPlaced
	case EventOrderCancelled:
		return TopicOrderCancelled
	case EventOrderFulfilled:
		return TopicOrderFulfilled
	case EventFulfillmentConfirmed:
		return TopicFulfillmentConfirmed
	}
	return ""
}
