package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
	"github.com/shopspring/decimal"
)

var ErrEmptyOrder = errors.New("order has no items")

type CreateOrderRequest struct {
	UserID int64
	Items  []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

// PriceOrderLines snapshots catalog data onto each requested line. Products
// absent from the catalog are priced at zero with an empty name.
func PriceOrderLines(items []OrderItemRequest, catalog map[int64]CatalogEntry) ([]models.OrderItem, decimal.Decimal) {
	lines := make([]models.OrderItem, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		entry := catalog[item.ProductID]
		subtotal := entry.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: entry.Name,
			Quantity:    item.Quantity,
			UnitPrice:   entry.Price,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	return lines, total
}

func distinctProductIDs(items []OrderItemRequest) []int64 {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

// CreateOrder prices the request from the catalog and persists a pending
// order with one line per requested item. Prices are read in the same
// serializable transaction that writes the order.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		exists, err := UserExists(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return database.ErrUserNotFound
		}

		catalog, err := GetCatalogEntries(ctx, tx, distinctProductIDs(req.Items))
		if err != nil {
			return err
		}
		lines, total := PriceOrderLines(req.Items, catalog)

		order = &models.Order{}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, status, total_amount, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 RETURNING id, user_id, status, total_amount, created_at, updated_at`,
			req.UserID, models.OrderStatusPending, total).Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.TotalAmount,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range lines {
			line := &lines[i]
			line.OrderID = order.ID
			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())
				 RETURNING id, created_at`,
				order.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, line.Subtotal,
			).Scan(&line.ID, &line.CreatedAt)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}
		order.Items = lines

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

const orderColumns = `id, user_id, status, total_amount, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func GetOrder(ctx context.Context, q database.Querier, id int64) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := listOrderItems(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		order.Items = append(order.Items, item.OrderItem)
	}

	return order, nil
}

// orderLineView is an order line plus the product's current image.
type orderLineView struct {
	models.OrderItem
	Image string
}

func listOrderItems(ctx context.Context, q database.Querier, orderIDs []int64) ([]orderLineView, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.quantity,
		        oi.unit_price, oi.subtotal, oi.created_at, COALESCE(p.image, '')
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.order_id, oi.id`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []orderLineView
	for rows.Next() {
		var item orderLineView
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
			&item.CreatedAt,
			&item.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

// UpdateOrderStatus locks the order and applies the transition. changed is
// false when the order was already in the target status.
func UpdateOrderStatus(ctx context.Context, q database.Querier, orderID int64, to string) (changed bool, err error) {
	var from string
	err = q.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&from)
	if err != nil {
		if database.IsNoRows(err) {
			return false, database.ErrOrderNotFound
		}
		return false, fmt.Errorf("lock order: %w", err)
	}

	if !models.CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, from, to)
	}
	if from == to {
		return false, nil
	}

	_, err = q.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, to, orderID)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return true, nil
}

// GroupOrderProducts merges lines of the same product, keeping first-seen
// order. Quantities and line totals are summed.
func GroupOrderProducts(items []orderLineView) []models.OrderProduct {
	index := make(map[int64]int)
	grouped := []models.OrderProduct{}

	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			grouped[i].Quantity += item.Quantity
			grouped[i].TotalPrice = grouped[i].TotalPrice.Add(item.Subtotal)
			continue
		}
		index[item.ProductID] = len(grouped)
		grouped = append(grouped, models.OrderProduct{
			ProductID:  item.ProductID,
			Name:       item.ProductName,
			Image:      item.Image,
			Quantity:   item.Quantity,
			Price:      item.UnitPrice,
			TotalPrice: item.Subtotal,
		})
	}

	return grouped
}

// ListOrderSummaries returns the user's orders newest first, each with its
// grouped products and payment.
func ListOrderSummaries(ctx context.Context, q database.Querier, userID int64) ([]models.OrderSummary, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT o.id, o.total_amount, o.status, o.created_at,
		        pay.status, pay.amount, pay.currency, pay.created_at
		 FROM orders o
		 LEFT JOIN payments pay ON pay.order_id = o.id
		 WHERE o.user_id = $1
		 ORDER BY o.created_at DESC, o.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	summaries := []models.OrderSummary{}
	var orderIDs []int64
	for rows.Next() {
		var (
			s            models.OrderSummary
			payStatus    sql.NullString
			payAmount    sql.NullInt64
			payCurrency  sql.NullString
			payCreatedAt sql.NullTime
		)
		err := rows.Scan(&s.ID, &s.TotalAmount, &s.Status, &s.CreatedAt,
			&payStatus, &payAmount, &payCurrency, &payCreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if payStatus.Valid {
			s.Payment = &models.PaymentSummary{
				Status:    payStatus.String,
				Amount:    payAmount.Int64,
				Currency:  payCurrency.String,
				CreatedAt: payCreatedAt.Time,
			}
		}
		summaries = append(summaries, s)
		orderIDs = append(orderIDs, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orderIDs) == 0 {
		return summaries, nil
	}

	items, err := listOrderItems(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]orderLineView, len(orderIDs))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range summaries {
		summaries[i].Products = GroupOrderProducts(byOrder[summaries[i].ID])
	}

	return summaries, nil
}

// ListOrdersCursor pages through the user's orders newest first.
func ListOrdersCursor(ctx context.Context, q database.Querier, userID int64, encodedCursor string, limit int) (*CursorPage[models.Order], error) {
	cursor, err := DecodeCursor(encodedCursor)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE user_id = $1 AND (created_at, id) < ($2, $3)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4`,
		userID, cursor.CreatedAt, cursor.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	page := &CursorPage[models.Order]{Items: orders}
	if len(orders) > limit {
		page.HasMore = true
		page.Items = orders[:limit]
		last := page.Items[limit-1]
		page.NextCursor = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
