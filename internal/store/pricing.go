package store

import (
	"strings"

	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/models"
	"github.com/shopspring/decimal"
)

// TaxRate is applied to the cart subtotal at checkout.
var TaxRate = decimal.RequireFromString("0.10")

// Totals holds unrounded money values. Call Rounded only at the point where
// values are persisted or returned, so rounding never compounds.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func ComputeTotals(items []models.CartItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
	}
}

// RedactCardNumber returns the last four digits of a card number. Spaces and
// dashes are ignored; anything else that is not a digit is rejected.
func RedactCardNumber(cardNumber string) (string, error) {
	var digits strings.Builder
	for _, r := range cardNumber {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", database.NewValidationError("cardNumber", "Invalid card number")
		}
	}

	d := digits.String()
	if len(d) < 4 {
		return "", database.NewValidationError("cardNumber", "Invalid card number")
	}
	return d[len(d)-4:], nil
}

type PlaceOrderRequest struct {
	ShippingName    string
	ShippingAddress string
	ShippingCity    string
	ShippingState   string
	ShippingZip     string
	CardNumber      string
}

// Validate checks that every field is present. It runs before any storage
// access.
func (r PlaceOrderRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"shippingName", r.ShippingName},
		{"shippingAddress", r.ShippingAddress},
		{"shippingCity", r.ShippingCity},
		{"shippingState", r.ShippingState},
		{"shippingZip", r.ShippingZip},
		{"cardNumber", r.CardNumber},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return database.NewValidationError(f.name, "All fields required")
		}
	}
	return nil
}

func (r PlaceOrderRequest) shipping() models.ShippingAddress {
	return models.ShippingAddress{
		Name:    strings.TrimSpace(r.ShippingName),
		Address: strings.TrimSpace(r.ShippingAddress),
		City:    strings.TrimSpace(r.ShippingCity),
		State:   strings.TrimSpace(r.ShippingState),
		Zip:     strings.TrimSpace(r.ShippingZip),
	}
}
