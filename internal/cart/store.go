// Package cart implements the shopping cart store: an ordered collection of
// line items keyed by product ID, with derived totals, durable snapshot
// persistence and change notification.
package cart

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

// snapshotKey is the single storage key holding the serialized cart.
const snapshotKey = "cart"

// Store owns the cart state for this process. There is exactly one cart per
// process regardless of which account is logged in; that matches the original
// storefront and is a documented limitation, not an oversight.
//
// All mutations are serialized by an internal mutex: a mutation and its
// snapshot write never interleave with another mutation, and subscribers only
// ever observe a fully-applied state.
type Store struct {
	mu      sync.Mutex
	items   []domain.CartItem
	storage kvstore.Store
	pricing Pricing
	logger  *log.Logger

	subMu   sync.Mutex
	subs    map[int]func(View)
	nextSub int
}

// View is the read-only state handed to subscribers and callers: a copy of
// the line items plus totals derived from them.
type View struct {
	Items  []domain.CartItem
	Totals Totals
}

// New builds a Store backed by storage, restoring a previously persisted
// snapshot if one exists. A missing, unreadable or malformed snapshot is a
// recoverable condition: the store starts empty and logs the reason.
func New(ctx context.Context, storage kvstore.Store, pricing Pricing, logger *log.Logger) *Store {
	s := &Store{
		storage: storage,
		pricing: pricing,
		logger:  logger,
		subs:    make(map[int]func(View)),
	}

	data, err := storage.Get(ctx, snapshotKey)
	switch {
	case err == nil:
		items, err := decodeSnapshot(data)
		if err != nil {
			logger.Printf("discarding malformed cart snapshot: %v", err)
			return s
		}
		s.items = items
	case err == domain.ErrNotFound:
		// First run, nothing to restore.
	default:
		logger.Printf("loading cart snapshot: %v", err)
	}
	return s
}

// Add puts product in the cart. If a line item with the same ID already
// exists its quantity grows by one and the stored product fields are left
// untouched, so catalog drift never rewrites a line item. Otherwise the
// product is appended with quantity 1. The returned error only ever reports a
// failed snapshot write; the in-memory mutation has been applied regardless.
func (s *Store) Add(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID == product.ID {
			s.items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, domain.CartItem{Product: product, Quantity: 1})
	}
	view, err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(view)
	return err
}

// Remove drops the line item with the given product ID. Removing an absent ID
// is a no-op, not an error.
func (s *Store) Remove(ctx context.Context, productID int) error {
	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	view, err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(view)
	return err
}

// UpdateQuantity sets the quantity for the given product ID. Quantities below
// 1 are clamped to 1 inside the store: items leave the cart through Remove,
// never by reaching zero quantity. Unknown IDs are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == productID {
			s.items[i].Quantity = quantity
			break
		}
	}
	view, err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(view)
	return err
}

// Clear empties the cart unconditionally. It is idempotent and safe to call
// at the end of a checkout that already cleared it.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	view, err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(view)
	return err
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.items)
}

// Totals derives item count, subtotal, shipping fee and total from the
// current state. Nothing is cached; every call recomputes.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeTotals(s.items, s.pricing)
}

// Snapshot returns the current items and totals as one consistent view.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe registers fn to run after every mutation with the resulting
// state. The returned function removes the subscription. Callbacks run
// outside the store's mutex, so they may call back into the store.
func (s *Store) Subscribe(fn func(View)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// persistLocked writes the snapshot for the current state and returns the
// view to hand to subscribers. Callers must hold s.mu.
func (s *Store) persistLocked(ctx context.Context) (View, error) {
	view := s.viewLocked()
	data, err := json.Marshal(s.items)
	if err != nil {
		// Cannot happen for these types, but never skip the notification.
		s.logger.Printf("encode cart snapshot: %v", err)
		return view, err
	}
	if err := s.storage.Set(ctx, snapshotKey, data); err != nil {
		s.logger.Printf("persist cart snapshot: %v", err)
		return view, err
	}
	return view, nil
}

func (s *Store) viewLocked() View {
	return View{
		Items:  copyItems(s.items),
		Totals: computeTotals(s.items, s.pricing),
	}
}

func (s *Store) notify(view View) {
	s.subMu.Lock()
	fns := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(view)
	}
}

// decodeSnapshot parses a persisted snapshot and re-establishes the cart
// invariants: duplicate product IDs collapse into the first occurrence and
// quantities below 1 are clamped.
func decodeSnapshot(data []byte) ([]domain.CartItem, error) {
	var raw []domain.CartItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(raw))
	items := make([]domain.CartItem, 0, len(raw))
	for _, item := range raw {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func copyItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
