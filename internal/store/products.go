package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
	"github.com/shopspring/decimal"
)

type NewProduct struct {
	CategoryID  *int64
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Stock       int
}

const productSelect = `
	SELECT p.id, p.category_id, p.name, p.slug, p.description, p.price, p.image,
	       p.stock_quantity, p.created_at, p.updated_at, p.version,
	       c.id, c.name, c.created_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var (
		categoryID   sql.NullInt64
		catID        sql.NullInt64
		catName      sql.NullString
		catCreatedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID,
		&categoryID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.Image,
		&p.StockQuantity,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Version,
		&catID,
		&catName,
		&catCreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		p.CategoryID = &id
	}
	if catID.Valid {
		p.Category = &models.Category{ID: catID.Int64, Name: catName.String, CreatedAt: catCreatedAt.Time}
	}
	return p, nil
}

// uniqueSlug derives a slug from name and suffixes it until no product uses it.
func uniqueSlug(ctx context.Context, q database.Querier, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "product"
	}

	candidate := base
	for n := 2; ; n++ {
		var taken bool
		err := q.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1)", candidate).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func CreateProduct(ctx context.Context, q database.Querier, np NewProduct) (*models.Product, error) {
	productSlug, err := uniqueSlug(ctx, q, np.Name)
	if err != nil {
		return nil, err
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO products (category_id, name, slug, description, price, image, stock_quantity, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), 1)
		 RETURNING id`,
		np.CategoryID, np.Name, productSlug, np.Description, np.Price, np.Image, np.Stock).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return GetProduct(ctx, q, id)
}

func GetProduct(ctx context.Context, q database.Querier, id int64) (*models.Product, error) {
	product, err := scanProduct(q.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func ListProducts(ctx context.Context, q database.Querier, page, pageSize int) (*OffsetPage[models.Product], error) {
	var total int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := q.QueryContext(ctx,
		productSelect+` ORDER BY p.created_at ASC, p.id ASC LIMIT $1 OFFSET $2`,
		pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

// CatalogEntry is the part of a product an order snapshots.
type CatalogEntry struct {
	Name  string
	Price decimal.Decimal
}

// GetCatalogEntries returns the current name and price of each existing id.
// Unknown ids are absent from the map.
func GetCatalogEntries(ctx context.Context, q database.Querier, ids []int64) (map[int64]CatalogEntry, error) {
	entries := make(map[int64]CatalogEntry, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name, price FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get catalog entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var e CatalogEntry
		if err := rows.Scan(&id, &e.Name, &e.Price); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries[id] = e
	}
	return entries, rows.Err()
}

// UpdatePriceOptimistic changes a price only if the row is still at version.
func UpdatePriceOptimistic(ctx context.Context, q database.Querier, productID int64, price decimal.Decimal, version int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE products
		 SET price = $1,
		     updated_at = NOW(),
		     version = version + 1
		 WHERE id = $2 AND version = $3`,
		price, productID, version)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrOptimisticLock
	}
	return nil
}

func CreateCategory(ctx context.Context, q database.Querier, name string) (*models.Category, error) {
	c := &models.Category{}
	err := q.QueryRowContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES ($1, NOW())
		 RETURNING id, name, created_at`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func ListCategories(ctx context.Context, q database.Querier) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
