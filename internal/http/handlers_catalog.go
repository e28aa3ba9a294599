package http

import (
	"log/slog"
	"net/http"
	"strings"

	"comforty/internal/core"
)

// handleProducts serves the product browser: GET /api/products?q=&sort=.
// The pipeline always starts from the full fetched set, so changing a filter
// never narrows against a previous result. Fetch failures degrade to an
// empty list.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	all, err := s.getProducts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Product list failed, serving empty set", "error", err)
		writeJSON(w, http.StatusOK, listResponse[core.Product]{Items: []core.Product{}})
		return
	}

	q := r.URL.Query().Get("q")
	sortKey := core.ProductSortKey(strings.TrimSpace(r.URL.Query().Get("sort")))

	visible := core.VisibleProducts(all, q, sortKey)
	writeJSON(w, http.StatusOK, listResponse[core.Product]{
		Items: nonNil(visible),
		Total: len(all),
	})
}

// handleOrders serves the order browser: GET /api/orders?q=&status=&sort=.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	all, err := s.getOrders(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Order list failed, serving empty set", "error", err)
		writeJSON(w, http.StatusOK, listResponse[core.Order]{Items: []core.Order{}})
		return
	}

	q := r.URL.Query().Get("q")
	status := core.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	sortKey := core.OrderSortKey(strings.TrimSpace(r.URL.Query().Get("sort")))

	visible := core.VisibleOrders(all, q, status, sortKey)
	writeJSON(w, http.StatusOK, listResponse[core.Order]{
		Items: nonNil(visible),
		Total: len(all),
	})
}

// handleCategories serves the category browser: GET /api/categories?q=.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	all, err := s.getCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list failed, serving empty set", "error", err)
		writeJSON(w, http.StatusOK, listResponse[core.Category]{Items: []core.Category{}})
		return
	}

	q := r.URL.Query().Get("q")
	visible := core.SearchCategories(all, q)
	writeJSON(w, http.StatusOK, listResponse[core.Category]{
		Items: nonNil(visible),
		Total: len(all),
	})
}

// listResponse wraps a record set with the unfiltered total, so clients can
// show "n of m".
type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// nonNil keeps empty results as [] in JSON instead of null.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
