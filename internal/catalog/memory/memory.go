package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"comforty/internal/core"
)

// Store is an in-memory catalog backend for development and tests. Records
// are returned in insertion order, matching the fetch-order contract of the
// real content store.
type Store struct {
	mu         sync.Mutex
	products   []core.Product
	orders     []core.Order
	categories []core.Category
}

func New(products []core.Product, orders []core.Order, categories []core.Category) *Store {
	return &Store{products: products, orders: orders, categories: categories}
}

// NewFromFiles seeds the store from JSON files under base, if present:
// seed_products.json, seed_orders.json, seed_categories.json. Missing or
// malformed files leave the corresponding set empty.
func NewFromFiles(base string) *Store {
	s := &Store{}
	readSeed(filepath.Join(base, "seed_products.json"), &s.products)
	readSeed(filepath.Join(base, "seed_orders.json"), &s.orders)
	readSeed(filepath.Join(base, "seed_categories.json"), &s.categories)
	return s
}

func readSeed[T any](path string, into *[]T) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, into)
}

// ListProducts returns a copy of the seeded products.
func (s *Store) ListProducts(_ context.Context) ([]core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Product(nil), s.products...), nil
}

// ListOrders returns a copy of the seeded orders.
func (s *Store) ListOrders(_ context.Context) ([]core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Order(nil), s.orders...), nil
}

// ListCategories returns a copy of the seeded categories.
func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

// Replace swaps the full record sets, preserving the given order.
func (s *Store) Replace(products []core.Product, orders []core.Order, categories []core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.orders = orders
	s.categories = categories
}
