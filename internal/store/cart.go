package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
)

func scanCartLine(row rowScanner) (*models.CartLine, error) {
	line := &models.CartLine{Product: &models.ProductSummary{}}
	err := row.Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
		&line.Product.ID,
		&line.Product.Name,
		&line.Product.Price,
		&line.Product.Image,
		&line.Product.Stock,
	)
	if err != nil {
		return nil, err
	}
	return line, nil
}

const cartLineColumns = `
	ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
	p.id, p.name, p.price, p.image, p.stock_quantity`

// mapProductFKError tells a missing product apart from a missing user.
func mapProductFKError(err error) error {
	if strings.Contains(database.ConstraintName(err), "product") {
		return database.ErrProductNotFound
	}
	return database.ErrUserNotFound
}

// AddOrIncrementCartItem inserts the (user, product) line or adds quantity to
// the existing one in a single statement. created reports whether a new line
// was inserted.
func AddOrIncrementCartItem(ctx context.Context, q database.Querier, userID, productID int64, quantity int) (line *models.CartLine, created bool, err error) {
	query := `
		WITH upserted AS (
			INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (user_id, product_id) DO UPDATE
			SET quantity = cart_items.quantity + EXCLUDED.quantity,
			    updated_at = NOW()
			RETURNING *, (xmax = 0) AS inserted
		)
		SELECT ` + cartLineColumns + `, ci.inserted
		FROM upserted ci
		JOIN products p ON p.id = ci.product_id`

	line = &models.CartLine{Product: &models.ProductSummary{}}
	err = q.QueryRowContext(ctx, query, userID, productID, quantity).Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
		&line.Product.ID,
		&line.Product.Name,
		&line.Product.Price,
		&line.Product.Image,
		&line.Product.Stock,
		&created,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, false, mapProductFKError(err)
		}
		return nil, false, fmt.Errorf("add cart item: %w", err)
	}
	return line, created, nil
}

// SetCartItemQuantity overwrites the quantity of an existing line.
func SetCartItemQuantity(ctx context.Context, q database.Querier, userID, productID int64, quantity int) (*models.CartLine, error) {
	query := `
		WITH updated AS (
			UPDATE cart_items
			SET quantity = $3, updated_at = NOW()
			WHERE user_id = $1 AND product_id = $2
			RETURNING *
		)
		SELECT ` + cartLineColumns + `
		FROM updated ci
		JOIN products p ON p.id = ci.product_id`

	line, err := scanCartLine(q.QueryRowContext(ctx, query, userID, productID, quantity))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("set cart quantity: %w", err)
	}
	return line, nil
}

// ListCartItems returns the user's lines oldest first.
func ListCartItems(ctx context.Context, q database.Querier, userID int64) ([]models.CartLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+cartLineColumns+`
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.created_at ASC, ci.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, *line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart: %w", err)
	}
	return lines, nil
}

func RemoveCartItem(ctx context.Context, q database.Querier, userID, productID int64) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}
	return nil
}

// ClearCart removes every line of the user and reports how many were removed.
func ClearCart(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return result.RowsAffected()
}
