package models

import "encoding/json"

// Money is written with exactly two decimals ("10.00") and ratings with
// one, matching the NUMERIC scale of their columns. decimal.Decimal alone
// trims trailing zeros. Decoding keeps the default behaviour, which accepts
// either form.

const (
	moneyScale  = 2
	ratingScale = 1
)

func (b Book) MarshalJSON() ([]byte, error) {
	type plain Book
	return json.Marshal(struct {
		plain
		Price  string `json:"price"`
		Rating string `json:"rating"`
	}{plain(b), b.Price.StringFixed(moneyScale), b.Rating.StringFixed(ratingScale)})
}

func (c CartItem) MarshalJSON() ([]byte, error) {
	type plain CartItem
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{plain(c), c.Price.StringFixed(moneyScale)})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Subtotal    string `json:"subtotal"`
		Tax         string `json:"tax"`
		TotalAmount string `json:"total_amount"`
	}{
		plain(o),
		o.Subtotal.StringFixed(moneyScale),
		o.Tax.StringFixed(moneyScale),
		o.TotalAmount.StringFixed(moneyScale),
	})
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	return json.Marshal(struct {
		plain
		PriceAtPurchase string `json:"price_at_purchase"`
	}{plain(i), i.PriceAtPurchase.StringFixed(moneyScale)})
}
