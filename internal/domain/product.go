package domain

import "github.com/shopspring/decimal"

// Product mirrors the catalog entries served by the demo store API. The cart
// only ever holds copies; the catalog owns the data.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
	Description string          `json:"description"`
}

// Rating is the aggregate review score carried on a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}
