package store

import (
	"context"
	"fmt"

	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
)

// ToggleWishlist removes the product if it is on the list, otherwise adds it.
// added reports the resulting membership.
func ToggleWishlist(ctx context.Context, q database.Querier, userID, productID int64) (added bool, err error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("toggle wishlist: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if removed > 0 {
		return false, nil
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO wishlist_items (user_id, product_id, created_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, mapProductFKError(err)
		}
		return false, fmt.Errorf("toggle wishlist: %w", err)
	}
	return true, nil
}

func ListWishlist(ctx context.Context, q database.Querier, userID int64) ([]models.WishlistItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT w.id, w.user_id, w.product_id, w.created_at,
		        p.id, p.name, p.price, p.image, p.stock_quantity
		 FROM wishlist_items w
		 JOIN products p ON p.id = w.product_id
		 WHERE w.user_id = $1
		 ORDER BY w.created_at DESC, w.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		item := models.WishlistItem{Product: &models.ProductSummary{}}
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.CreatedAt,
			&item.Product.ID,
			&item.Product.Name,
			&item.Product.Price,
			&item.Product.Image,
			&item.Product.Stock,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func RemoveWishlistItem(ctx context.Context, q database.Querier, userID, productID int64) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrWishlistNotFound
	}
	return nil
}
