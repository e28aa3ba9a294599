package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"comforty/internal/catalog/memory"
	"comforty/internal/core"
)

type failingLister struct{}

func (failingLister) ListProducts(context.Context) ([]core.Product, error) {
	return nil, errors.New("network down")
}

func (failingLister) ListOrders(context.Context) ([]core.Order, error) {
	return nil, errors.New("network down")
}

func TestLoadAggregates(t *testing.T) {
	store := memory.New(
		[]core.Product{
			{ID: "p1", Price: 10, Inventory: 2, CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.Local)},
			{ID: "p2", Price: 5, Inventory: 4, CreatedAt: time.Date(2024, 2, 3, 0, 0, 0, 0, time.Local)},
		},
		[]core.Order{
			{ID: "o1", Total: 30, Status: core.StatusCompleted, CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local)},
		},
		nil,
	)
	svc := NewDashboardService(store, store)

	data, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.Summary.TotalProducts != 2 || data.Summary.TotalInventory != 6 {
		t.Fatalf("summary wrong: %+v", data.Summary)
	}
	if data.Summary.TotalStockValue != 40 {
		t.Fatalf("stock value = %v, want 40", data.Summary.TotalStockValue)
	}
	if data.Summary.CountByStatus(core.StatusCompleted) != 1 {
		t.Fatalf("status counts wrong: %v", data.Summary.StatusCounts)
	}
	// Orders bucket first: Jan (order), then Jan product joins it, Feb product new.
	if data.Series.Len() != 2 || data.Series.Labels[0] != "Jan 2024" {
		t.Fatalf("series wrong: %+v", data.Series)
	}
}

func TestLoadFetchFailure(t *testing.T) {
	svc := NewDashboardService(failingLister{}, failingLister{})
	if _, err := svc.Load(context.Background()); err == nil {
		t.Fatalf("expected fetch error to propagate")
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store := memory.New(nil, nil, nil)
	svc := NewDashboardService(store, store)
	data, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.Summary.TotalProducts != 0 || data.Summary.TotalOrders != 0 || data.Series.Len() != 0 {
		t.Fatalf("empty store should aggregate to zeros: %+v", data)
	}
}
