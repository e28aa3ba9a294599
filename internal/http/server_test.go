package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"comforty/internal/auth"
	"comforty/internal/catalog/memory"
	"comforty/internal/core"
	applog "comforty/internal/log"
	"comforty/internal/services"
)

type brokenStore struct{}

func (brokenStore) ListProducts(context.Context) ([]core.Product, error) {
	return nil, errors.New("store unreachable")
}

func (brokenStore) ListOrders(context.Context) ([]core.Order, error) {
	return nil, errors.New("store unreachable")
}

func (brokenStore) ListCategories(context.Context) ([]core.Category, error) {
	return nil, errors.New("store unreachable")
}

type fakeExporter struct {
	ref string
	err error
}

func (f *fakeExporter) Export(context.Context, services.DashboardData) (string, error) {
	return f.ref, f.err
}

type fakePublisher struct {
	entities []string
	err      error
}

func (f *fakePublisher) PublishRefresh(_ context.Context, entity, _ string) error {
	f.entities = append(f.entities, entity)
	return f.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func seededStore() *memory.Store {
	return memory.New(
		[]core.Product{
			{ID: "p1", Title: "Library Stool Chair", Price: 20, Inventory: 3, Category: core.CategoryRef{ID: "c1", Title: "Wing Chair"}, CreatedAt: day(2024, time.January, 5)},
			{ID: "p2", Title: "Desk Lamp", Price: 10, Inventory: 5, Category: core.CategoryRef{ID: "c2", Title: "Lighting"}, CreatedAt: day(2024, time.February, 5)},
		},
		[]core.Order{
			{ID: "o1", Number: "ORD-2001", Total: 60, Status: core.StatusPending, Date: day(2024, time.January, 8), CreatedAt: day(2024, time.January, 8),
				Items: []core.OrderItem{{Price: 20, Quantity: 3, Product: core.ProductRef{ID: "p1", Title: "Library Stool Chair"}}}},
			{ID: "o2", Number: "ORD-2002", Total: 10, Status: core.StatusCompleted, Date: day(2024, time.March, 2), CreatedAt: day(2024, time.March, 2)},
		},
		[]core.Category{
			{ID: "c1", Title: "Wing Chair", Products: 12},
			{ID: "c2", Title: "Lighting", Products: 7},
		},
	)
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s := NewServer(":0", seededStore(), opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.DataAvailable {
		t.Fatalf("expected dataAvailable")
	}
	if resp.Summary.TotalProducts != 2 || resp.Summary.TotalOrders != 2 {
		t.Fatalf("summary wrong: %+v", resp.Summary)
	}
	if resp.Summary.TotalStockValue != 110 { // 20*3 + 10*5
		t.Fatalf("stock value = %v", resp.Summary.TotalStockValue)
	}
	if resp.Summary.StatusCounts["pending"] != 1 || resp.Summary.StatusCounts["completed"] != 1 {
		t.Fatalf("status counts wrong: %v", resp.Summary.StatusCounts)
	}
	// Orders walked first: Jan (o1), Mar (o2), then Feb appears from products.
	wantLabels := []string{"Jan 2024", "Mar 2024", "Feb 2024"}
	if len(resp.Monthly.Labels) != 3 {
		t.Fatalf("labels = %v", resp.Monthly.Labels)
	}
	for i, want := range wantLabels {
		if resp.Monthly.Labels[i] != want {
			t.Fatalf("labels = %v, want %v", resp.Monthly.Labels, wantLabels)
		}
	}
}

func TestDashboardDegradesToZero(t *testing.T) {
	s := NewServer(":0", brokenStore{}, Options{})
	defer s.Shutdown(context.Background())

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded dashboard should still be 200, got %d", rec.Code)
	}

	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DataAvailable {
		t.Fatalf("dataAvailable should be false")
	}
	if resp.Summary.TotalProducts != 0 || resp.Summary.TotalOrders != 0 {
		t.Fatalf("expected zeros: %+v", resp.Summary)
	}
	if resp.Monthly.Labels == nil || len(resp.Monthly.Labels) != 0 {
		t.Fatalf("expected empty labels, got %v", resp.Monthly.Labels)
	}
	// Known statuses still present, all zero.
	if n, ok := resp.Summary.StatusCounts["pending"]; !ok || n != 0 {
		t.Fatalf("status counts should carry zeros: %v", resp.Summary.StatusCounts)
	}
}

func TestProductsSearchAndSort(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := doJSON(t, s, http.MethodGet, "/api/products?q=chair", nil, nil)
	var resp listResponse[core.Product]
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "p1" || resp.Total != 2 {
		t.Fatalf("search result wrong: %+v", resp)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/products?sort=price", nil, nil)
	resp = listResponse[core.Product]{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 || resp.Items[0].ID != "p2" {
		t.Fatalf("price sort wrong: %+v", resp.Items)
	}
}

func TestOrdersFilterAndSort(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := doJSON(t, s, http.MethodGet, "/api/orders?status=completed", nil, nil)
	var resp listResponse[core.Order]
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "o2" {
		t.Fatalf("status filter wrong: %+v", resp.Items)
	}

	// Search matches ordered product titles too.
	rec = doJSON(t, s, http.MethodGet, "/api/orders?q=stool", nil, nil)
	resp = listResponse[core.Order]{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "o1" {
		t.Fatalf("item search wrong: %+v", resp.Items)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/orders?sort=totalAmount", nil, nil)
	resp = listResponse[core.Order]{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Items[0].ID != "o2" {
		t.Fatalf("amount sort wrong: %+v", resp.Items)
	}
}

func TestCategoriesSearch(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := doJSON(t, s, http.MethodGet, "/api/categories?q=light", nil, nil)
	var resp listResponse[core.Category]
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Lighting" {
		t.Fatalf("category search wrong: %+v", resp.Items)
	}
}

func TestListsDegradeToEmpty(t *testing.T) {
	s := NewServer(":0", brokenStore{}, Options{})
	defer s.Shutdown(context.Background())

	rec := doJSON(t, s, http.MethodGet, "/api/products", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp listResponse[core.Product]
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Items == nil || len(resp.Items) != 0 {
		t.Fatalf("expected empty items, got %v", resp.Items)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := doJSON(t, s, http.MethodPost, "/api/dashboard", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("Allow") != "GET" {
		t.Fatalf("Allow header = %q", rec.Header().Get("Allow"))
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil, nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing frame options header")
	}
}

func TestRequestCompletionLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.NewTextHandler(&buf, nil),
	})
	s := newTestServer(t, Options{Logger: logger})

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	out := buf.String()
	if !strings.Contains(out, "HTTP request completed") {
		t.Fatalf("completion record missing: %s", out)
	}
	if !strings.Contains(out, "status_code=200") {
		t.Fatalf("status code missing: %s", out)
	}
	if !strings.Contains(out, "request_id=req_") {
		t.Fatalf("request id missing: %s", out)
	}
}

func sessionOptions() Options {
	creds := auth.Credentials{Email: "admin@comforty.test", Password: "s3cret"}
	return Options{Sessions: auth.NewStore(creds, time.Hour)}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, sessionOptions())

	// Unauthenticated requests are rejected.
	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Bad credentials are rejected.
	body, _ := json.Marshal(loginRequest{Email: "admin@comforty.test", Password: "wrong"})
	rec = doJSON(t, s, http.MethodPost, "/api/login", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}

	// Good credentials issue a token.
	body, _ = json.Marshal(loginRequest{Email: "admin@comforty.test", Password: "s3cret"})
	rec = doJSON(t, s, http.MethodPost, "/api/login", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var login loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" {
		t.Fatalf("empty token")
	}

	// Token opens the protected endpoints.
	h := http.Header{}
	h.Set("Authorization", "Bearer "+login.Token)
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, h)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated request failed: %d", rec.Code)
	}

	// Logout revokes the session.
	rec = doJSON(t, s, http.MethodPost, "/api/logout", nil, h)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, h)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token should be rejected, got %d", rec.Code)
	}
}

func TestLoginUnavailableWithoutStore(t *testing.T) {
	s := newTestServer(t, Options{})
	body, _ := json.Marshal(loginRequest{Email: "a", Password: "b"})
	rec := doJSON(t, s, http.MethodPost, "/api/login", body, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestDashboardExport(t *testing.T) {
	exp := &fakeExporter{ref: "Dashboard!A1:E12"}
	s := newTestServer(t, Options{Exporter: exp})

	rec := doJSON(t, s, http.MethodPost, "/api/dashboard/export", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["ref"] != "Dashboard!A1:E12" {
		t.Fatalf("ref = %q", resp["ref"])
	}
}

func TestDashboardExportUnconfigured(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := doJSON(t, s, http.MethodPost, "/api/dashboard/export", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCatalogRefresh(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestServer(t, Options{Publisher: pub})

	rec := doJSON(t, s, http.MethodPost, "/api/catalog/refresh?entity=products", nil, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	if len(pub.entities) != 1 || pub.entities[0] != "products" {
		t.Fatalf("publisher not called: %v", pub.entities)
	}
}

func TestCatalogRefreshPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	s := newTestServer(t, Options{Publisher: pub})

	rec := doJSON(t, s, http.MethodPost, "/api/catalog/refresh", nil, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
