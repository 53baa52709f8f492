// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safar/bookstore/internal/models"
	"github.com/shopspring/decimal"
)

type OrderPlacedItem struct {
	BookID          int64           `json:"book_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// OrderPlaced is emitted after a checkout transaction commits. It never
// carries payment details beyond what the order row stores.
type OrderPlaced struct {
	EventID    string            `json:"event_id"`
	OrderID    int64             `json:"order_id"`
	UserID     int64             `json:"user_id"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	Tax        decimal.Decimal   `json:"tax"`
	Total      decimal.Decimal   `json:"total"`
	Items      []OrderPlacedItem `json:"items"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewOrderPlaced(o *models.Order) OrderPlaced {
	items := make([]OrderPlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedItem{
			BookID:          it.BookID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}

	occurred := o.CreatedAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	return OrderPlaced{
		EventID:    uuid.NewString(),
		OrderID:    o.ID,
		UserID:     o.UserID,
		Subtotal:   o.Subtotal,
		Tax:        o.Tax,
		Total:      o.TotalAmount,
		Items:      items,
		OccurredAt: occurred,
	}
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
	Close() error
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (Nop) Close() error                                        { return nil }
