package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"comforty/internal/core"

	_ "modernc.org/sqlite"
)

// SnapshotRepository mirrors the hosted catalog into a local SQLite database.
// The worker replaces whole record sets atomically; the server reads them in
// the original fetch order, so aggregation over a snapshot behaves exactly
// like aggregation over a live fetch.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListProducts implements catalog.ProductLister.
func (r *SnapshotRepository) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, price, original_price, discount, inventory,
		       rating_rate, rating_count, badge, tags,
		       dim_height, dim_depth, dim_width,
		       image_url, category_id, category_title, category_image_url,
		       description, created_at
		FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		var (
			p          core.Product
			rate       sql.NullFloat64
			count      sql.NullInt64
			tagsJSON   string
			dimH, dimD sql.NullString
			dimW       sql.NullString
			createdAt  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.OriginalPrice, &p.Discount,
			&p.Inventory, &rate, &count, &p.Badge, &tagsJSON,
			&dimH, &dimD, &dimW,
			&p.ImageURL, &p.Category.ID, &p.Category.Title, &p.Category.ImageURL,
			&p.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if rate.Valid {
			p.Rating = &core.Rating{Rate: rate.Float64, Count: int(count.Int64)}
		}
		if dimH.Valid || dimD.Valid || dimW.Valid {
			p.Dimensions = &core.Dimensions{Height: dimH.String, Depth: dimD.String, Width: dimW.String}
		}
		if tagsJSON != "" {
			_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
		}
		p.CreatedAt = parseStoredTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOrders implements catalog.OrderLister.
func (r *SnapshotRepository) ListOrders(ctx context.Context) ([]core.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_number, order_date, total_amount, status, created_at
		FROM orders ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []core.Order
	for rows.Next() {
		var (
			o         core.Order
			status    sql.NullString
			orderDate sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Number, &orderDate, &o.Total, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = core.OrderStatus(status.String)
		o.Date = parseStoredTime(orderDate)
		o.CreatedAt = parseStoredTime(createdAt)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.listOrderItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *SnapshotRepository) listOrderItems(ctx context.Context, orderID string) ([]core.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT price, quantity, product_id, product_title
		FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items for %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []core.OrderItem
	for rows.Next() {
		var it core.OrderItem
		if err := rows.Scan(&it.Price, &it.Quantity, &it.Product.ID, &it.Product.Title); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListCategories implements catalog.CategoryLister.
func (r *SnapshotRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, image_url, products FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.ImageURL, &c.Products); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceProducts swaps the product snapshot in one transaction, preserving
// the fetch order through the position column.
func (r *SnapshotRepository) ReplaceProducts(ctx context.Context, products []core.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin products replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	for i, p := range products {
		var (
			rate  sql.NullFloat64
			count sql.NullInt64
		)
		if p.Rating != nil {
			rate = sql.NullFloat64{Float64: p.Rating.Rate, Valid: true}
			count = sql.NullInt64{Int64: int64(p.Rating.Count), Valid: true}
		}
		var dimH, dimD, dimW sql.NullString
		if p.Dimensions != nil {
			dimH = sql.NullString{String: p.Dimensions.Height, Valid: true}
			dimD = sql.NullString{String: p.Dimensions.Depth, Valid: true}
			dimW = sql.NullString{String: p.Dimensions.Width, Valid: true}
		}
		tags, _ := json.Marshal(p.Tags)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, position, title, price, original_price, discount,
			       inventory, rating_rate, rating_count, badge, tags,
			       dim_height, dim_depth, dim_width,
			       image_url, category_id, category_title, category_image_url,
			       description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, p.Title, p.Price, p.OriginalPrice, p.Discount,
			p.Inventory, rate, count, p.Badge, string(tags),
			dimH, dimD, dimW,
			p.ImageURL, p.Category.ID, p.Category.Title, p.Category.ImageURL,
			p.Description, storeTime(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	if err := markRefreshed(ctx, tx, "products", len(products)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit products replace: %w", err)
	}

	slog.InfoContext(ctx, "Product snapshot replaced", "count", len(products))
	return nil
}

// ReplaceOrders swaps the order snapshot, items included, in one transaction.
func (r *SnapshotRepository) ReplaceOrders(ctx context.Context, orders []core.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin orders replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items`); err != nil {
		return fmt.Errorf("clear order items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	for i, o := range orders {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, position, order_number, order_date, total_amount, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, o.Number, storeTime(o.Date), o.Total, string(o.Status), storeTime(o.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert order %s: %w", o.ID, err)
		}
		for j, it := range o.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, position, price, quantity, product_id, product_title)
				VALUES (?, ?, ?, ?, ?, ?)`,
				o.ID, j, it.Price, it.Quantity, it.Product.ID, it.Product.Title)
			if err != nil {
				return fmt.Errorf("insert item for order %s: %w", o.ID, err)
			}
		}
	}
	if err := markRefreshed(ctx, tx, "orders", len(orders)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit orders replace: %w", err)
	}

	slog.InfoContext(ctx, "Order snapshot replaced", "count", len(orders))
	return nil
}

// ReplaceCategories swaps the category snapshot in one transaction.
func (r *SnapshotRepository) ReplaceCategories(ctx context.Context, categories []core.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin categories replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for i, c := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, position, title, image_url, products)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, i, c.Title, c.ImageURL, c.Products)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	if err := markRefreshed(ctx, tx, "categories", len(categories)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit categories replace: %w", err)
	}

	slog.InfoContext(ctx, "Category snapshot replaced", "count", len(categories))
	return nil
}

// LastRefresh reports when the given entity snapshot was last replaced and
// how many records it holds. A snapshot that was never refreshed returns a
// zero time.
func (r *SnapshotRepository) LastRefresh(ctx context.Context, entity string) (time.Time, int, error) {
	var (
		refreshedAt string
		count       int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT refreshed_at, record_count FROM refreshes WHERE entity = ?`, entity).
		Scan(&refreshedAt, &count)
	if err == sql.ErrNoRows {
		return time.Time{}, 0, nil
	}
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("query refresh state: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, refreshedAt)
	if err != nil {
		return time.Time{}, count, nil
	}
	return t, count, nil
}

func markRefreshed(ctx context.Context, tx *sql.Tx, entity string, count int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO refreshes (entity, refreshed_at, record_count)
		VALUES (?, ?, ?)
		ON CONFLICT(entity) DO UPDATE SET refreshed_at = excluded.refreshed_at,
		                                  record_count = excluded.record_count`,
		entity, time.Now().UTC().Format(time.RFC3339Nano), count)
	if err != nil {
		return fmt.Errorf("mark %s refreshed: %w", entity, err)
	}
	return nil
}

func storeTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseStoredTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}
