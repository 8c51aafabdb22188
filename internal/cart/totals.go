package cart

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Pricing holds the shipping rules applied when deriving totals.
type Pricing struct {
	// FreeShippingThreshold is the subtotal above which shipping is free.
	// The comparison is strict: a subtotal exactly at the threshold still
	// pays the fee.
	FreeShippingThreshold decimal.Decimal
	// ShippingFee is the flat fee charged below the threshold.
	ShippingFee decimal.Decimal
}

// DefaultPricing mirrors the reference storefront: free shipping above 50.00,
// otherwise a flat 10.00.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.NewFromInt(10),
	}
}

// Totals are derived from the line items on demand, never stored. Amounts are
// exact decimals; rounding to two places happens at display time only.
type Totals struct {
	ItemCount   int
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

func computeTotals(items []domain.CartItem, p Pricing) Totals {
	t := Totals{Subtotal: decimal.Zero}
	for _, item := range items {
		t.ItemCount += item.Quantity
		t.Subtotal = t.Subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if t.Subtotal.GreaterThan(p.FreeShippingThreshold) {
		t.ShippingFee = decimal.Zero
	} else {
		t.ShippingFee = p.ShippingFee
	}
	t.Total = t.Subtotal.Add(t.ShippingFee)
	return t
}
