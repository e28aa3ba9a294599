package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"comforty/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

const (
	fetchTimeout = 10 * time.Second

	productsCacheKey   = "all"
	ordersCacheKey     = "all"
	categoriesCacheKey = "all"
)

// getProducts returns the full product set, from cache when fresh.
func (s *Server) getProducts(ctx context.Context) ([]core.Product, error) {
	if items, found := s.productsCache.Get(productsCacheKey); found {
		slog.DebugContext(ctx, "Products cache hit", "count", len(items))
		return items, nil
	}

	cctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	items, err := s.store.ListProducts(cctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	s.productsCache.Set(productsCacheKey, items)
	return items, nil
}

// getOrders returns the full order set, from cache when fresh.
func (s *Server) getOrders(ctx context.Context) ([]core.Order, error) {
	if items, found := s.ordersCache.Get(ordersCacheKey); found {
		slog.DebugContext(ctx, "Orders cache hit", "count", len(items))
		return items, nil
	}

	cctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	items, err := s.store.ListOrders(cctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	s.ordersCache.Set(ordersCacheKey, items)
	return items, nil
}

// getCategories returns the full category set, from cache when fresh.
func (s *Server) getCategories(ctx context.Context) ([]core.Category, error) {
	if items, found := s.categoriesCache.Get(categoriesCacheKey); found {
		slog.DebugContext(ctx, "Categories cache hit", "count", len(items))
		return items, nil
	}

	cctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	items, err := s.store.ListCategories(cctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	s.categoriesCache.Set(categoriesCacheKey, items)
	return items, nil
}

// invalidateCatalogCaches drops every cached record set. Called after a
// refresh is requested so the next read sees the new snapshot.
func (s *Server) invalidateCatalogCaches() {
	s.productsCache.Clear()
	s.ordersCache.Clear()
	s.categoriesCache.Clear()
}
