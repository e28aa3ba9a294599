package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"comforty/internal/core"
)

// Client fetches catalog records from a hosted Sanity content store through
// its HTTP query API. Queries are GROQ; responses arrive as {"result": [...]}.
type Client struct {
	httpClient *http.Client
	queryURL   string
	token      string
}

// GROQ projections for each entity type. Field aliases keep the wire shape
// aligned with core's JSON tags so records decode in one pass.
const (
	productQuery = `*[_type == "products"]{
  "id": _id,
  "createdAt": _createdAt,
  title,
  price,
  originalPrice,
  discount,
  "inventory": stock,
  rating{rate, count},
  badge,
  tags,
  dimensions{height, depth, width},
  "imageUrl": image.asset->url,
  "category": category->{"id": _id, title, "imageUrl": image.asset->url},
  description
}`

	orderQuery = `*[_type == "orders"]{
  "id": _id,
  "createdAt": _createdAt,
  orderNumber,
  orderDate,
  totalAmount,
  "items": orderItems[]{price, quantity, "product": product->{"id": _id, title}},
  "status": orderStatus
}`

	categoryQuery = `*[_type == "categories"]{
  "id": _id,
  title,
  "imageUrl": image.asset->url,
  products
}`
)

// NewFromEnv builds a client from environment variables.
// Required: SANITY_PROJECT_ID. Optional: SANITY_DATASET (default "production"),
// SANITY_API_VERSION (default "2024-01-01"), SANITY_TOKEN for private datasets.
func NewFromEnv() (*Client, error) {
	projectID := strings.TrimSpace(os.Getenv("SANITY_PROJECT_ID"))
	if projectID == "" {
		return nil, errors.New("missing SANITY_PROJECT_ID")
	}
	dataset := strings.TrimSpace(os.Getenv("SANITY_DATASET"))
	if dataset == "" {
		dataset = "production"
	}
	apiVersion := strings.TrimSpace(os.Getenv("SANITY_API_VERSION"))
	if apiVersion == "" {
		apiVersion = "2024-01-01"
	}
	return NewFromProject(projectID, dataset, apiVersion, os.Getenv("SANITY_TOKEN")), nil
}

// NewFromProject builds a client for a hosted project. Empty dataset and API
// version fall back to the defaults.
func NewFromProject(projectID, dataset, apiVersion, token string) *Client {
	if dataset == "" {
		dataset = "production"
	}
	if apiVersion == "" {
		apiVersion = "2024-01-01"
	}
	queryURL := fmt.Sprintf("https://%s.api.sanity.io/v%s/data/query/%s", projectID, apiVersion, dataset)
	return New(queryURL, token)
}

// New builds a client against an explicit query endpoint. Tests point this at
// a local server.
func New(queryURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		queryURL:   queryURL,
		token:      strings.TrimSpace(token),
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]core.Product, error) {
	var raw []rawProduct
	if err := c.query(ctx, productQuery, &raw); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	out := make([]core.Product, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toProduct())
	}
	return out, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]core.Order, error) {
	var raw []rawOrder
	if err := c.query(ctx, orderQuery, &raw); err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	out := make([]core.Order, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toOrder())
	}
	return out, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var raw []rawCategory
	if err := c.query(ctx, categoryQuery, &raw); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	out := make([]core.Category, 0, len(raw))
	for _, r := range raw {
		out = append(out, core.Category{
			ID:       string(r.ID),
			Title:    r.Title,
			ImageURL: r.ImageURL,
			Products: r.Products,
		})
	}
	return out, nil
}

// query runs one GROQ query and decodes the result array into out.
func (c *Client) query(ctx context.Context, groq string, out any) error {
	u := c.queryURL + "?query=" + url.QueryEscape(groq)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("query content store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("content store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// flexID tolerates identifiers arriving as strings or numbers and normalizes
// them once, at the decode boundary.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexID(core.NormalizeID(v))
	return nil
}

type (
	rawCategoryRef struct {
		ID       flexID `json:"id"`
		Title    string `json:"title"`
		ImageURL string `json:"imageUrl"`
	}

	rawProduct struct {
		ID            flexID           `json:"id"`
		CreatedAt     string           `json:"createdAt"`
		Title         string           `json:"title"`
		Price         float64          `json:"price"`
		OriginalPrice float64          `json:"originalPrice"`
		Discount      float64          `json:"discount"`
		Inventory     int              `json:"inventory"`
		Rating        *core.Rating     `json:"rating"`
		Badge         string           `json:"badge"`
		Tags          []string         `json:"tags"`
		Dimensions    *core.Dimensions `json:"dimensions"`
		ImageURL      string           `json:"imageUrl"`
		Category      *rawCategoryRef  `json:"category"`
		Description   string           `json:"description"`
	}

	rawOrderItem struct {
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
		Product  *struct {
			ID    flexID `json:"id"`
			Title string `json:"title"`
		} `json:"product"`
	}

	rawOrder struct {
		ID        flexID         `json:"id"`
		CreatedAt string         `json:"createdAt"`
		Number    string         `json:"orderNumber"`
		Date      string         `json:"orderDate"`
		Total     float64        `json:"totalAmount"`
		Items     []rawOrderItem `json:"items"`
		Status    string         `json:"status"`
	}

	rawCategory struct {
		ID       flexID `json:"id"`
		Title    string `json:"title"`
		ImageURL string `json:"imageUrl"`
		Products int    `json:"products"`
	}
)

func (r rawProduct) toProduct() core.Product {
	p := core.Product{
		ID:            string(r.ID),
		Title:         r.Title,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Discount:      r.Discount,
		Inventory:     r.Inventory,
		Rating:        r.Rating,
		Badge:         r.Badge,
		Tags:          r.Tags,
		Dimensions:    r.Dimensions,
		ImageURL:      r.ImageURL,
		Description:   r.Description,
		CreatedAt:     parseTimestamp(r.CreatedAt),
	}
	if r.Category != nil {
		p.Category = core.CategoryRef{
			ID:       string(r.Category.ID),
			Title:    r.Category.Title,
			ImageURL: r.Category.ImageURL,
		}
	}
	return p
}

func (r rawOrder) toOrder() core.Order {
	o := core.Order{
		ID:        string(r.ID),
		Number:    r.Number,
		Date:      parseTimestamp(r.Date),
		Total:     r.Total,
		Status:    core.OrderStatus(strings.TrimSpace(r.Status)),
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
	o.Items = make([]core.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		item := core.OrderItem{Price: it.Price, Quantity: it.Quantity}
		if it.Product != nil {
			item.Product = core.ProductRef{ID: string(it.Product.ID), Title: it.Product.Title}
		}
		o.Items = append(o.Items, item)
	}
	return o
}

// parseTimestamp is permissive: an unparseable or absent timestamp yields the
// zero time, which the series bucketer skips rather than crashing on.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
