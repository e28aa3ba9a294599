package core

import (
	"sort"
	"strings"
)

// Listing helpers shared by the product, order and category browsers. All of
// them are pure and recompute from the full fetched set on every call, so
// consecutive filters never compound destructively.

const (
	OrderSortDate   OrderSortKey = "orderDate"
	OrderSortAmount OrderSortKey = "totalAmount"
	OrderSortNumber OrderSortKey = "orderNumber"

	ProductSortTitle   ProductSortKey = "title"
	ProductSortPrice   ProductSortKey = "price"
	ProductSortCreated ProductSortKey = "created"
)

type (
	OrderSortKey   string
	ProductSortKey string
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SearchProducts returns the products whose title or category title contains
// the query, case-insensitively. An empty query returns the input unchanged.
func SearchProducts(in []Product, query string) []Product {
	if strings.TrimSpace(query) == "" {
		return in
	}
	out := make([]Product, 0, len(in))
	for _, p := range in {
		if containsFold(p.Title, query) || containsFold(p.Category.Title, query) {
			out = append(out, p)
		}
	}
	return out
}

// SearchOrders matches the query against the order number and against the
// titles of the ordered products.
func SearchOrders(in []Order, query string) []Order {
	if strings.TrimSpace(query) == "" {
		return in
	}
	out := make([]Order, 0, len(in))
	for _, o := range in {
		if containsFold(o.Number, query) || orderItemsMatch(o.Items, query) {
			out = append(out, o)
		}
	}
	return out
}

func orderItemsMatch(items []OrderItem, query string) bool {
	for _, it := range items {
		if containsFold(it.Product.Title, query) {
			return true
		}
	}
	return false
}

// SearchCategories returns the categories whose title contains the query.
func SearchCategories(in []Category, query string) []Category {
	if strings.TrimSpace(query) == "" {
		return in
	}
	out := make([]Category, 0, len(in))
	for _, c := range in {
		if containsFold(c.Title, query) {
			out = append(out, c)
		}
	}
	return out
}

// FilterOrdersByStatus keeps orders whose stored status equals the filter
// exactly. An empty filter means no restriction.
func FilterOrdersByStatus(in []Order, status OrderStatus) []Order {
	if status == "" {
		return in
	}
	out := make([]Order, 0, len(in))
	for _, o := range in {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// SortOrders returns a new slice ordered by the given key, ascending. The sort
// is stable: ties keep their original fetch order. An unrecognized key returns
// the input order.
func SortOrders(in []Order, key OrderSortKey) []Order {
	out := append([]Order(nil), in...)
	switch key {
	case OrderSortDate:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	case OrderSortAmount:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Total < out[j].Total })
	case OrderSortNumber:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	}
	return out
}

// SortProducts returns a new slice ordered by the given key, ascending.
func SortProducts(in []Product, key ProductSortKey) []Product {
	out := append([]Product(nil), in...)
	switch key {
	case ProductSortTitle:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case ProductSortPrice:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case ProductSortCreated:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	}
	return out
}

// VisibleOrders is the browser pipeline: search, then status filter, then
// sort, always starting from the full unfiltered set.
func VisibleOrders(all []Order, query string, status OrderStatus, key OrderSortKey) []Order {
	return SortOrders(FilterOrdersByStatus(SearchOrders(all, query), status), key)
}

// VisibleProducts is the product browser pipeline.
func VisibleProducts(all []Product, query string, key ProductSortKey) []Product {
	return SortProducts(SearchProducts(all, query), key)
}
