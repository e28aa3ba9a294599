package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusShipped   OrderStatus = "shipped"
	StatusCancelled OrderStatus = "cancelled"
	StatusDelivered OrderStatus = "delivered"
)

type (
	// OrderStatus is the lifecycle state stored on an order. Records coming
	// from the content store may carry anything here, including nothing.
	OrderStatus string

	Rating struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	}

	Dimensions struct {
		Height string `json:"height"`
		Depth  string `json:"depth"`
		Width  string `json:"width"`
	}

	// CategoryRef is the category reference embedded in a product.
	CategoryRef struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		ImageURL string `json:"imageUrl"`
	}

	Product struct {
		ID            string      `json:"id"`
		Title         string      `json:"title"`
		Price         float64     `json:"price"`
		OriginalPrice float64     `json:"originalPrice,omitempty"`
		Discount      float64     `json:"discount,omitempty"`
		Inventory     int         `json:"inventory"`
		Rating        *Rating     `json:"rating,omitempty"`
		Badge         string      `json:"badge,omitempty"`
		Tags          []string    `json:"tags,omitempty"`
		Dimensions    *Dimensions `json:"dimensions,omitempty"`
		ImageURL      string      `json:"imageUrl"`
		Category      CategoryRef `json:"category"`
		Description   string      `json:"description"`
		CreatedAt     time.Time   `json:"createdAt"`
	}

	Category struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		ImageURL string `json:"imageUrl"`
		Products int    `json:"products"`
	}

	// ProductRef is the product reference embedded in an order item.
	ProductRef struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	OrderItem struct {
		Price    float64    `json:"price"`
		Quantity int        `json:"quantity"`
		Product  ProductRef `json:"product"`
	}

	Order struct {
		ID        string      `json:"id"`
		Number    string      `json:"orderNumber"`
		Date      time.Time   `json:"orderDate"`
		Total     float64     `json:"totalAmount"`
		Status    OrderStatus `json:"status,omitempty"`
		Items     []OrderItem `json:"items"`
		CreatedAt time.Time   `json:"createdAt"`
	}
)

// KnownStatuses lists the recognized order states in display order.
var KnownStatuses = []OrderStatus{
	StatusPending,
	StatusCompleted,
	StatusShipped,
	StatusCancelled,
	StatusDelivered,
}

// Known reports whether s is one of the recognized order states.
func (s OrderStatus) Known() bool {
	for _, k := range KnownStatuses {
		if s == k {
			return true
		}
	}
	return false
}

// Display returns the status label for status-labeled views. Orders with an
// absent or unrecognized status render as "Unknown".
func (s OrderStatus) Display() string {
	if !s.Known() {
		return "Unknown"
	}
	return strings.ToUpper(string(s))
}

// NormalizeID coerces a backend-generated identifier to its canonical string
// form. All externally sourced IDs pass through here once, at the ingestion
// boundary, instead of being coerced inline wherever they are read.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		// JSON numbers decode as float64; IDs are always integral.
		return fmt.Sprintf("%.0f", id)
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

// TotalQuantity sums the item quantities of the order.
func (o Order) TotalQuantity() int {
	var n int
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
