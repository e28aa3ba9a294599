package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"comforty/internal/catalog"
	"comforty/internal/core"
)

// DashboardService loads the record sets behind the admin dashboard and runs
// the aggregation over them. It holds no state between loads: every call
// fetches fresh and recomputes.
type DashboardService struct {
	products catalog.ProductLister
	orders   catalog.OrderLister
}

// DashboardData is what one dashboard view needs: the scalar summary and the
// month-bucketed series for the chart.
type DashboardData struct {
	Summary core.Summary
	Series  core.MonthlySeries
}

func NewDashboardService(products catalog.ProductLister, orders catalog.OrderLister) *DashboardService {
	return &DashboardService{products: products, orders: orders}
}

// Load fetches products and orders concurrently and aggregates them. A fetch
// failure from either collaborator fails the whole load; callers degrade to
// the zero DashboardData and report "no data".
func (s *DashboardService) Load(ctx context.Context) (DashboardData, error) {
	start := time.Now()

	var (
		products []core.Product
		orders   []core.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.ListProducts(gctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = s.orders.ListOrders(gctx)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardData{}, fmt.Errorf("load dashboard: %w", err)
	}

	data := DashboardData{
		Summary: core.Summarize(products, orders),
		Series:  core.BuildMonthlySeries(orders, products),
	}

	slog.DebugContext(ctx, "Dashboard loaded",
		"products", len(products),
		"orders", len(orders),
		"months", data.Series.Len(),
		"duration_ms", time.Since(start).Milliseconds())

	return data, nil
}
