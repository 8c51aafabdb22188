// Package checkout simulates order placement. The flow is caller-driven and
// time-boxed: progress advances in fixed steps, and the cart is cleared
// exactly once when the sequence completes. No order is persisted anywhere;
// the receipt only exists in the response.
package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/domain"
)

// ErrEmptyCart is returned when checkout starts with nothing to buy.
var ErrEmptyCart = errors.New("cart is empty")

// progressStep matches the reference UI: four 25% increments.
const progressStep = 25

// Cart is the slice of the cart store the processor needs.
type Cart interface {
	Snapshot() cart.View
	Clear(ctx context.Context) error
}

// Order is the receipt for a completed simulated checkout.
type Order struct {
	ID          string            `json:"id"`
	Items       []domain.CartItem `json:"items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	ShippingFee decimal.Decimal   `json:"shippingFee"`
	Total       decimal.Decimal   `json:"total"`
	PlacedAt    time.Time         `json:"placedAt"`
}

// Processor runs simulated checkouts against a cart.
type Processor struct {
	cart     Cart
	interval time.Duration
	logger   *log.Logger
}

// New builds a Processor advancing progress every interval (the reference
// value is 500ms).
func New(c Cart, interval time.Duration, logger *log.Logger) *Processor {
	return &Processor{cart: c, interval: interval, logger: logger}
}

// Run walks the progress steps, calling onProgress (which may be nil) after
// each one, then clears the cart and returns the receipt. Cancelling ctx
// aborts the run and leaves the cart untouched. The totals on the receipt are
// captured with the line items in one consistent snapshot before the clear.
func (p *Processor) Run(ctx context.Context, onProgress func(percent int)) (*Order, error) {
	view := p.cart.Snapshot()
	if len(view.Items) == 0 {
		return nil, ErrEmptyCart
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	for percent := progressStep; percent <= 100; percent += progressStep {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		if onProgress != nil {
			onProgress(percent)
		}
		timer.Reset(p.interval)
	}

	if err := p.cart.Clear(ctx); err != nil {
		return nil, err
	}

	order := &Order{
		ID:          uuid.NewString(),
		Items:       view.Items,
		Subtotal:    view.Totals.Subtotal,
		ShippingFee: view.Totals.ShippingFee,
		Total:       view.Totals.Total,
		PlacedAt:    time.Now().UTC(),
	}
	p.logger.Printf("order %s placed: %d items, total %s", order.ID, view.Totals.ItemCount, order.Total.StringFixed(2))
	return order, nil
}
