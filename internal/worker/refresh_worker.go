package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"comforty/internal/amqp"
	"comforty/internal/catalog"
	"comforty/internal/storage"
)

// RefreshWorker pulls catalog records from the CMS and rewrites the local
// SQLite snapshot. It runs on a ticker and additionally reacts to AMQP
// refresh messages so an admin can force a pull without waiting.
type RefreshWorker struct {
	source   catalog.Store
	snapshot *storage.SnapshotRepository
}

func NewRefreshWorker(source catalog.Store, snapshot *storage.SnapshotRepository) *RefreshWorker {
	return &RefreshWorker{source: source, snapshot: snapshot}
}

// HandleRefreshMessage processes a single refresh request from AMQP.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	slog.InfoContext(ctx, "Processing refresh message",
		"entity", msg.Entity,
		"reason", msg.Reason)

	switch msg.Entity {
	case "products":
		return w.refreshProducts(ctx)
	case "orders":
		return w.refreshOrders(ctx)
	case "categories":
		return w.refreshCategories(ctx)
	case "":
		return w.RefreshAll(ctx)
	default:
		// Unknown entities are dropped, not requeued forever.
		slog.WarnContext(ctx, "Ignoring refresh for unknown entity", "entity", msg.Entity)
		return nil
	}
}

// RefreshAll pulls all three entities concurrently. A failure on one entity
// does not block the others; the first error is reported after all finish.
func (w *RefreshWorker) RefreshAll(ctx context.Context) error {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.refreshProducts(gctx) })
	g.Go(func() error { return w.refreshOrders(gctx) })
	g.Go(func() error { return w.refreshCategories(gctx) })
	err := g.Wait()

	slog.InfoContext(ctx, "Catalog refresh completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"success", err == nil)
	return err
}

// Run refreshes once at startup, then keeps the snapshot fresh on the given
// interval until the context is cancelled. Individual failures are logged
// and retried on the next tick; the worker only exits with the context.
func (w *RefreshWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.RefreshAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Refresh worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.RefreshAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
			}
		}
	}
}

func (w *RefreshWorker) refreshProducts(ctx context.Context) error {
	products, err := w.source.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}
	if err := w.snapshot.ReplaceProducts(ctx, products); err != nil {
		return fmt.Errorf("store products: %w", err)
	}
	return nil
}

func (w *RefreshWorker) refreshOrders(ctx context.Context) error {
	orders, err := w.source.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}
	if err := w.snapshot.ReplaceOrders(ctx, orders); err != nil {
		return fmt.Errorf("store orders: %w", err)
	}
	return nil
}

func (w *RefreshWorker) refreshCategories(ctx context.Context) error {
	categories, err := w.source.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}
	if err := w.snapshot.ReplaceCategories(ctx, categories); err != nil {
		return fmt.Errorf("store categories: %w", err)
	}
	return nil
}

// StartupCheck logs how stale the snapshot is so operators can see at a
// glance whether the worker has been keeping up.
func (w *RefreshWorker) StartupCheck(ctx context.Context) {
	for _, entity := range []string{"products", "orders", "categories"} {
		at, count, err := w.snapshot.LastRefresh(ctx, entity)
		if err != nil {
			slog.WarnContext(ctx, "Could not read refresh state", "entity", entity, "error", err)
			continue
		}
		if at.IsZero() {
			slog.InfoContext(ctx, "Snapshot never refreshed", "entity", entity)
			continue
		}
		slog.InfoContext(ctx, "Snapshot state",
			"entity", entity,
			"count", count,
			"last_refresh", at.Format(time.RFC3339),
			"age", time.Since(at).Round(time.Second))
	}
}
