package core

import (
	"testing"
	"time"
)

func TestSearchProductsCaseInsensitive(t *testing.T) {
	products := []Product{
		{ID: "p1", Title: "iPhone 14"},
		{ID: "p2", Title: "Android Phone"},
		{ID: "p3", Title: "Tablet"},
	}
	got := SearchProducts(products, "PHONE")
	if len(got) != 2 {
		t.Fatalf("got %d products, want 2", len(got))
	}
	// Relative fetch order preserved.
	if got[0].ID != "p1" || got[1].ID != "p2" {
		t.Fatalf("order not preserved: %v, %v", got[0].ID, got[1].ID)
	}
}

func TestSearchProductsMatchesCategoryTitle(t *testing.T) {
	products := []Product{
		{ID: "p1", Title: "Library Stool", Category: CategoryRef{Title: "Wooden"}},
		{ID: "p2", Title: "Desk", Category: CategoryRef{Title: "Office"}},
	}
	got := SearchProducts(products, "wood")
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("expected category-title match for p1, got %v", got)
	}
}

func TestSearchProductsEmptyQuery(t *testing.T) {
	products := []Product{{ID: "p1"}, {ID: "p2"}}
	if got := SearchProducts(products, "  "); len(got) != 2 {
		t.Fatalf("blank query should return all, got %d", len(got))
	}
}

func TestSearchOrdersByNumberAndItemTitle(t *testing.T) {
	orders := []Order{
		{ID: "o1", Number: "ORD-1001"},
		{ID: "o2", Number: "ORD-2002", Items: []OrderItem{{Product: ProductRef{Title: "Comfy Chair"}}}},
		{ID: "o3", Number: "ORD-3003"},
	}
	if got := SearchOrders(orders, "1001"); len(got) != 1 || got[0].ID != "o1" {
		t.Fatalf("number search failed: %v", got)
	}
	if got := SearchOrders(orders, "chair"); len(got) != 1 || got[0].ID != "o2" {
		t.Fatalf("item title search failed: %v", got)
	}
}

func TestFilterOrdersByStatus(t *testing.T) {
	orders := []Order{
		{ID: "o1", Status: StatusPending},
		{ID: "o2", Status: StatusCompleted},
		{ID: "o3", Status: StatusPending},
	}
	got := FilterOrdersByStatus(orders, StatusPending)
	if len(got) != 2 || got[0].ID != "o1" || got[1].ID != "o3" {
		t.Fatalf("status filter failed: %v", got)
	}
	if got := FilterOrdersByStatus(orders, ""); len(got) != 3 {
		t.Fatalf("empty filter should return all, got %d", len(got))
	}
}

func TestSortOrdersStable(t *testing.T) {
	// Identical totals must keep fetch order.
	orders := []Order{
		{ID: "o1", Total: 50},
		{ID: "o2", Total: 20},
		{ID: "o3", Total: 50},
		{ID: "o4", Total: 50},
	}
	got := SortOrders(orders, OrderSortAmount)
	wantIDs := []string{"o2", "o1", "o3", "o4"}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, want)
		}
	}
	// Input untouched.
	if orders[0].ID != "o1" {
		t.Fatalf("input slice was reordered")
	}
}

func TestSortOrdersByDateAndNumber(t *testing.T) {
	orders := []Order{
		{ID: "o1", Number: "B", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "o2", Number: "A", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	if got := SortOrders(orders, OrderSortDate); got[0].ID != "o2" {
		t.Fatalf("date sort failed: %v", got[0].ID)
	}
	if got := SortOrders(orders, OrderSortNumber); got[0].ID != "o2" {
		t.Fatalf("number sort failed: %v", got[0].ID)
	}
	if got := SortOrders(orders, "bogus"); got[0].ID != "o1" {
		t.Fatalf("unknown key should keep fetch order: %v", got[0].ID)
	}
}

func TestVisibleOrdersPipeline(t *testing.T) {
	orders := []Order{
		{ID: "o1", Number: "ORD-2", Status: StatusPending, Total: 30},
		{ID: "o2", Number: "ORD-1", Status: StatusPending, Total: 10},
		{ID: "o3", Number: "ORD-3", Status: StatusCompleted, Total: 20},
	}
	got := VisibleOrders(orders, "ord", StatusPending, OrderSortAmount)
	if len(got) != 2 || got[0].ID != "o2" || got[1].ID != "o1" {
		t.Fatalf("pipeline result wrong: %v", got)
	}
	// A second call with different inputs starts from the full set again.
	got = VisibleOrders(orders, "", "", OrderSortNumber)
	if len(got) != 3 || got[0].ID != "o2" {
		t.Fatalf("pipeline did not recompute from full set: %v", got)
	}
}

func TestSearchCategories(t *testing.T) {
	cats := []Category{
		{ID: "c1", Title: "Wing Chair"},
		{ID: "c2", Title: "Desk Chair"},
		{ID: "c3", Title: "Park Bench"},
	}
	got := SearchCategories(cats, "chair")
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2", len(got))
	}
}

func TestStatusDisplay(t *testing.T) {
	cases := []struct {
		status OrderStatus
		want   string
	}{
		{StatusPending, "PENDING"},
		{StatusDelivered, "DELIVERED"},
		{"refunded", "Unknown"},
		{"", "Unknown"},
	}
	for _, tc := range cases {
		if got := tc.status.Display(); got != tc.want {
			t.Fatalf("Display(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"abc123", "abc123"},
		{" drafts.x1 ", "drafts.x1"},
		{float64(42), "42"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := NormalizeID(tc.in); got != tc.want {
			t.Fatalf("NormalizeID(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
