package catalog

import (
	"context"

	"comforty/internal/core"
)

// Ports for the record-fetching adapters. The content store behind them is a
// black box: each call returns the full record set for its entity type in the
// order the store produced it, or a fetch error. No retries are built in.
type (
	ProductLister interface {
		ListProducts(ctx context.Context) ([]core.Product, error)
	}

	OrderLister interface {
		ListOrders(ctx context.Context) ([]core.Order, error)
	}

	CategoryLister interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// Store bundles the three listers; every backend implements all of them.
	Store interface {
		ProductLister
		OrderLister
		CategoryLister
	}
)
