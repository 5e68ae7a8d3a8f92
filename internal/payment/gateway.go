// Package payment talks to the remote payment provider.
package payment

import (
	"context"

	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/shopspring/decimal"
)

const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
)

type IntentRequest struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the provider's payment intent. ClientSecret is only set on
// creation and must not be logged or stored.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to cents, rounding half up.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func externalErr(op string, err error) error {
	return apperr.Wrap(apperr.KindExternal, op, "payment provider unavailable", err)
}
