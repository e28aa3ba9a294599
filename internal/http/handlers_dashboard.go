package http

import (
	"log/slog"
	"net/http"

	"comforty/internal/core"
	"comforty/internal/services"
)

type summaryResponse struct {
	TotalProducts   int            `json:"totalProducts"`
	TotalInventory  int            `json:"totalInventory"`
	TotalStockValue float64        `json:"totalStockValue"`
	TotalOrders     int            `json:"totalOrders"`
	StatusCounts    map[string]int `json:"statusCounts"`
}

type dashboardResponse struct {
	Summary       summaryResponse    `json:"summary"`
	Monthly       core.MonthlySeries `json:"monthly"`
	DataAvailable bool               `json:"dataAvailable"`
}

func toSummaryResponse(s core.Summary) summaryResponse {
	out := summaryResponse{
		TotalProducts:   s.TotalProducts,
		TotalInventory:  s.TotalInventory,
		TotalStockValue: s.TotalStockValue,
		TotalOrders:     s.TotalOrders,
		StatusCounts:    make(map[string]int, len(s.StatusCounts)),
	}
	for st, n := range s.StatusCounts {
		out.StatusCounts[string(st)] = n
	}
	return out
}

// zeroDashboard is what clients get when the catalog cannot be fetched: the
// dashboard renders zeros instead of an error page.
func zeroDashboard() dashboardResponse {
	return dashboardResponse{
		Summary: toSummaryResponse(core.Summarize(nil, nil)),
		Monthly: core.MonthlySeries{
			Labels:    []string{},
			Products:  []int{},
			Inventory: []int{},
			Orders:    []int{},
			Sales:     []float64{},
		},
	}
}

// loadDashboard aggregates from the cached record sets so the dashboard and
// list endpoints see the same data within one cache window.
func (s *Server) loadDashboard(r *http.Request) (services.DashboardData, error) {
	ctx := r.Context()

	products, err := s.getProducts(ctx)
	if err != nil {
		return services.DashboardData{}, err
	}
	orders, err := s.getOrders(ctx)
	if err != nil {
		return services.DashboardData{}, err
	}

	return services.DashboardData{
		Summary: core.Summarize(products, orders),
		Series:  core.BuildMonthlySeries(orders, products),
	}, nil
}

// handleDashboard serves the scalar summary plus the monthly series. Fetch
// failures degrade to an all-zero payload with dataAvailable=false.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	data, err := s.loadDashboard(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard load failed, serving zeros", "error", err)
		writeJSON(w, http.StatusOK, zeroDashboard())
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Summary:       toSummaryResponse(data.Summary),
		Monthly:       data.Series,
		DataAvailable: true,
	})
}

// handleDashboardMonthly serves only the month-bucketed series.
func (s *Server) handleDashboardMonthly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	data, err := s.loadDashboard(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly series load failed, serving zeros", "error", err)
		writeJSON(w, http.StatusOK, zeroDashboard().Monthly)
		return
	}

	writeJSON(w, http.StatusOK, data.Series)
}

// handleDashboardExport writes the current dashboard to the configured report
// sink. Unlike reads, an export failure is a real error.
func (s *Server) handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.exporter == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	data, err := s.dashboard.Load(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export load failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "could not load dashboard data")
		return
	}

	ref, err := s.exporter.Export(r.Context(), data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

// handleCatalogRefresh publishes a refresh request for the worker.
func (s *Server) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if s.publisher == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "refresh is not configured")
		return
	}

	entity := r.URL.Query().Get("entity")
	if err := s.publisher.PublishRefresh(r.Context(), entity, "admin request"); err != nil {
		slog.ErrorContext(r.Context(), "Refresh publish failed", "error", err, "entity", entity)
		writeJSONError(w, http.StatusBadGateway, "could not request refresh")
		return
	}

	s.invalidateCatalogCaches()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}
