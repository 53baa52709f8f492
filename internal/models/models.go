package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JSON field names follow the column names the browser frontend reads.

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Book struct {
	ID          int64           `json:"book_id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
	Rating      decimal.Decimal `json:"rating"`
}

// CartItem is a cart line joined with the book it refers to.
type CartItem struct {
	CartID    int64           `json:"cart_id"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	BookID    int64           `json:"book_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
}

// LineTotal is price × quantity, unrounded.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type ShippingAddress struct {
	Name    string `json:"shipping_name"`
	Address string `json:"shipping_address"`
	City    string `json:"shipping_city"`
	State   string `json:"shipping_state"`
	Zip     string `json:"shipping_zip"`
}

type Order struct {
	ID           int64           `json:"order_id"`
	UserID       int64           `json:"user_id"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Shipping     ShippingAddress `json:"shipping"`
	CardLastFour string          `json:"card_last_four"`
	Status       string          `json:"order_status"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []OrderItem     `json:"items,omitempty"`
}

// OrderItem carries the price captured at checkout, independent of later
// catalog changes.
type OrderItem struct {
	ID              int64           `json:"order_item_id"`
	OrderID         int64           `json:"order_id"`
	BookID          int64           `json:"book_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

const OrderStatusConfirmed = "confirmed"
