package cart

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/kvstore"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestStore(t *testing.T) (*Store, kvstore.Store) {
	t.Helper()
	storage := kvstore.NewMemory()
	return New(context.Background(), storage, DefaultPricing(), testLogger()), storage
}

func product(id int, price string) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    "Product",
		Price:    decimal.RequireFromString(price),
		Category: "electronics",
		Image:    "https://example.com/img.png",
		Rating:   domain.Rating{Rate: 4.5, Count: 120},
	}
}

func TestAddAccumulatesQuantity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	p := product(1, "19.99")
	for i := 0; i < 5; i++ {
		if err := store.Add(ctx, p); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected a single line item, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", items[0].Quantity)
	}
}

func TestAddKeepsStoredProductFields(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, product(1, "19.99")); err != nil {
		t.Fatalf("add: %v", err)
	}
	drifted := product(1, "24.99")
	drifted.Title = "Renamed"
	if err := store.Add(ctx, drifted); err != nil {
		t.Fatalf("second add: %v", err)
	}

	items := store.Items()
	if !items[0].Price.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("price was overwritten by drifted catalog data: %s", items[0].Price)
	}
	if items[0].Title != "Product" {
		t.Fatalf("title was overwritten: %s", items[0].Title)
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []int{3, 1, 2} {
		if err := store.Add(ctx, product(id, "5.00")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	// Mutating an earlier item must not reorder.
	if err := store.UpdateQuantity(ctx, 3, 7); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	items := store.Items()
	got := []int{items[0].ID, items[1].ID, items[2].ID}
	if got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, product(1, "10.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Remove(ctx, 42); err != nil {
		t.Fatalf("remove of unknown id should not fail: %v", err)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("cart changed on no-op remove")
	}

	if err := store.Remove(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart after remove")
	}
}

func TestUpdateQuantityClampsToOne(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, product(1, "10.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, q := range []int{0, -3} {
		if err := store.UpdateQuantity(ctx, 1, q); err != nil {
			t.Fatalf("update quantity: %v", err)
		}
		if got := store.Items()[0].Quantity; got != 1 {
			t.Fatalf("quantity %d should clamp to 1, got %d", q, got)
		}
	}

	if err := store.UpdateQuantity(ctx, 99, 5); err != nil {
		t.Fatalf("update of unknown id should not fail: %v", err)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("unknown id update must not create items")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, product(1, "10.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart")
	}
	if got := store.Totals().ItemCount; got != 0 {
		t.Fatalf("expected item count 0, got %d", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	storage := kvstore.NewMemory()
	ctx := context.Background()

	store := New(ctx, storage, DefaultPricing(), testLogger())
	if err := store.Add(ctx, product(2, "19.99")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, product(7, "0.10")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.UpdateQuantity(ctx, 7, 3); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	restored := New(ctx, storage, DefaultPricing(), testLogger())
	want := store.Items()
	got := restored.Items()
	if len(got) != len(want) {
		t.Fatalf("expected %d items after restore, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Quantity != want[i].Quantity {
			t.Fatalf("item %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
		if !got[i].Price.Equal(want[i].Price) {
			t.Fatalf("item %d price drifted through persistence: %s != %s", i, got[i].Price, want[i].Price)
		}
		if got[i].Title != want[i].Title || got[i].Category != want[i].Category || got[i].Image != want[i].Image {
			t.Fatalf("item %d lost fields: %+v", i, got[i])
		}
		if got[i].Rating != want[i].Rating {
			t.Fatalf("item %d rating mismatch: %+v != %+v", i, got[i].Rating, want[i].Rating)
		}
	}
}

func TestCorruptSnapshotFallsBackToEmpty(t *testing.T) {
	storage := kvstore.NewMemory()
	ctx := context.Background()
	if err := storage.Set(ctx, "cart", []byte(`{"not":"a cart"`)); err != nil {
		t.Fatalf("seed corrupt snapshot: %v", err)
	}

	store := New(ctx, storage, DefaultPricing(), testLogger())
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart after corrupt snapshot")
	}

	// The store stays usable and overwrites the bad snapshot.
	if err := store.Add(ctx, product(1, "10.00")); err != nil {
		t.Fatalf("add after corrupt snapshot: %v", err)
	}
	restored := New(ctx, storage, DefaultPricing(), testLogger())
	if len(restored.Items()) != 1 {
		t.Fatalf("expected recovered snapshot with 1 item")
	}
}

func TestRestoreRepairsInvariants(t *testing.T) {
	storage := kvstore.NewMemory()
	ctx := context.Background()
	snapshot := `[
		{"id":1,"title":"A","price":"10.00","quantity":0},
		{"id":1,"title":"A dup","price":"10.00","quantity":2},
		{"id":2,"title":"B","price":"3.50","quantity":-4}
	]`
	if err := storage.Set(ctx, "cart", []byte(snapshot)); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	store := New(ctx, storage, DefaultPricing(), testLogger())
	items := store.Items()
	if len(items) != 2 {
		t.Fatalf("expected duplicate collapsed to 2 items, got %d", len(items))
	}
	if items[0].ID != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected first occurrence kept with clamped quantity, got %+v", items[0])
	}
	if items[1].ID != 2 || items[1].Quantity != 1 {
		t.Fatalf("expected negative quantity clamped, got %+v", items[1])
	}
}

func TestSubscribersObserveConsistentState(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var views []View
	unsubscribe := store.Subscribe(func(v View) {
		views = append(views, v)
	})

	if err := store.Add(ctx, product(1, "19.99")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, product(1, "19.99")); err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(views))
	}
	last := views[1]
	if last.Totals.ItemCount != 2 {
		t.Fatalf("expected item count 2 in notification, got %d", last.Totals.ItemCount)
	}
	if got := last.Totals.Subtotal.StringFixed(2); got != "39.98" {
		t.Fatalf("expected subtotal 39.98 in notification, got %s", got)
	}

	unsubscribe()
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("subscriber received notification after unsubscribe")
	}
}

func TestSubscriberMayReenterStore(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var count int
	store.Subscribe(func(View) {
		count = store.Totals().ItemCount
	})
	if err := store.Add(ctx, product(1, "1.00")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if count != 1 {
		t.Fatalf("re-entrant read saw count %d", count)
	}
}

func TestPersistenceFailureStillApplies(t *testing.T) {
	storage := &failingStore{Store: kvstore.NewMemory()}
	ctx := context.Background()
	store := New(ctx, storage, DefaultPricing(), testLogger())

	storage.fail = true
	if err := store.Add(ctx, product(1, "10.00")); err == nil {
		t.Fatalf("expected persistence error")
	}
	if len(store.Items()) != 1 {
		t.Fatalf("in-memory mutation should apply even when the snapshot write fails")
	}
}

type failingStore struct {
	kvstore.Store
	fail bool
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.fail {
		return context.DeadlineExceeded
	}
	return s.Store.Set(ctx, key, value)
}
