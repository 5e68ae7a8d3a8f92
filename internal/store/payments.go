package store

import (
	"context"
	"fmt"

	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
)

type NewPayment struct {
	PaymentIntentID string
	Amount          int64
	Currency        string
	OrderID         int64
	UserID          int64
}

const paymentColumns = `id, payment_intent_id, amount, currency, status, order_id, user_id, created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID,
		&p.PaymentIntentID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.OrderID,
		&p.UserID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePayment records a freshly created intent for an order. An order has
// at most one payment.
func CreatePayment(ctx context.Context, q database.Querier, np NewPayment) (*models.Payment, error) {
	p, err := scanPayment(q.QueryRowContext(ctx,
		`INSERT INTO payments (payment_intent_id, amount, currency, status, order_id, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+paymentColumns,
		np.PaymentIntentID, np.Amount, np.Currency, models.PaymentStatusCreated, np.OrderID, np.UserID))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrPaymentExists
		}
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return p, nil
}

func GetPaymentByIntentID(ctx context.Context, q database.Querier, intentID string) (*models.Payment, error) {
	return getPayment(ctx, q, intentID, "")
}

// LockPaymentByIntentID is GetPaymentByIntentID with a row lock; q must be a
// transaction.
func LockPaymentByIntentID(ctx context.Context, q database.Querier, intentID string) (*models.Payment, error) {
	return getPayment(ctx, q, intentID, " FOR UPDATE")
}

func getPayment(ctx context.Context, q database.Querier, intentID, suffix string) (*models.Payment, error) {
	p, err := scanPayment(q.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = $1`+suffix, intentID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// MarkPaymentSucceeded reports whether the payment changed. It is a no-op for a
// payment that already succeeded.
func MarkPaymentSucceeded(ctx context.Context, q database.Querier, paymentID int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status <> $1`,
		models.PaymentStatusSucceeded, paymentID)
	if err != nil {
		return false, fmt.Errorf("mark payment succeeded: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}
