package payment

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

type StripeGateway struct {
	client paymentintent.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return newStripeGateway(secretKey, stripe.GetBackend(stripe.APIBackend))
}

func newStripeGateway(secretKey string, backend stripe.Backend) *StripeGateway {
	return &StripeGateway{
		client: paymentintent.Client{B: backend, Key: secretKey},
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.client.New(params)
	if err != nil {
		return nil, externalErr("payment.CreateIntent", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.client.Cancel(intentID, params); err != nil {
		return externalErr("payment.CancelIntent", err)
	}
	return nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.client.Get(intentID, params)
	if err != nil {
		return nil, externalErr("payment.GetIntent", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}
}
