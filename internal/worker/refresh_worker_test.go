package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"comforty/internal/amqp"
	"comforty/internal/catalog/memory"
	"comforty/internal/core"
	"comforty/internal/storage"
)

type flakySource struct {
	*memory.Store
	failOrders bool
}

func (s *flakySource) ListOrders(ctx context.Context) ([]core.Order, error) {
	if s.failOrders {
		return nil, errors.New("orders endpoint down")
	}
	return s.Store.ListOrders(ctx)
}

func newTestSnapshot(t *testing.T) *storage.SnapshotRepository {
	t.Helper()
	repo, err := storage.NewSnapshotRepository(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewSnapshotRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRefreshAll(t *testing.T) {
	source := memory.New(
		[]core.Product{{ID: "p1", Title: "Desk", Price: 120, Inventory: 3}},
		[]core.Order{{ID: "o1", Number: "ORD-1", Total: 120, Status: core.StatusPending}},
		[]core.Category{{ID: "c1", Title: "Office"}},
	)
	snapshot := newTestSnapshot(t)
	w := NewRefreshWorker(source, snapshot)

	if err := w.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}

	products, err := snapshot.ListProducts(context.Background())
	if err != nil || len(products) != 1 || products[0].Title != "Desk" {
		t.Fatalf("products not snapshotted: %v, %v", products, err)
	}
	orders, err := snapshot.ListOrders(context.Background())
	if err != nil || len(orders) != 1 || orders[0].Status != core.StatusPending {
		t.Fatalf("orders not snapshotted: %v, %v", orders, err)
	}
	categories, err := snapshot.ListCategories(context.Background())
	if err != nil || len(categories) != 1 {
		t.Fatalf("categories not snapshotted: %v, %v", categories, err)
	}

	at, count, err := snapshot.LastRefresh(context.Background(), "products")
	if err != nil || at.IsZero() || count != 1 {
		t.Fatalf("refresh state not recorded: %v/%d/%v", at, count, err)
	}
}

func TestRefreshAllPartialFailure(t *testing.T) {
	source := &flakySource{
		Store: memory.New(
			[]core.Product{{ID: "p1", Title: "Desk"}},
			nil, nil,
		),
		failOrders: true,
	}
	snapshot := newTestSnapshot(t)
	w := NewRefreshWorker(source, snapshot)

	if err := w.RefreshAll(context.Background()); err == nil {
		t.Fatalf("expected error from failing orders fetch")
	}

	// Products should still have landed.
	products, err := snapshot.ListProducts(context.Background())
	if err != nil || len(products) != 1 {
		t.Fatalf("products should survive an orders failure: %v, %v", products, err)
	}
}

func TestHandleRefreshMessage(t *testing.T) {
	source := memory.New(
		[]core.Product{{ID: "p1"}},
		[]core.Order{{ID: "o1"}},
		nil,
	)
	snapshot := newTestSnapshot(t)
	w := NewRefreshWorker(source, snapshot)
	ctx := context.Background()

	if err := w.HandleRefreshMessage(ctx, amqp.NewRefreshMessage("products", "test")); err != nil {
		t.Fatalf("HandleRefreshMessage: %v", err)
	}
	products, _ := snapshot.ListProducts(ctx)
	if len(products) != 1 {
		t.Fatalf("products not refreshed")
	}
	orders, _ := snapshot.ListOrders(ctx)
	if len(orders) != 0 {
		t.Fatalf("orders should not have been touched")
	}

	// Unknown entities are acknowledged without work.
	if err := w.HandleRefreshMessage(ctx, amqp.NewRefreshMessage("reviews", "test")); err != nil {
		t.Fatalf("unknown entity should be dropped silently: %v", err)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	source := memory.New(nil, nil, nil)
	snapshot := newTestSnapshot(t)
	w := NewRefreshWorker(source, snapshot)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Hour) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop on cancellation")
	}
}
