package payment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
)

// BreakerGateway fails fast while the provider keeps failing.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[*Intent]
}

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func NewBreakerGateway(next Gateway, s BreakerSettings, log zerolog.Logger) *BreakerGateway {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker[*Intent](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isRejection(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &BreakerGateway{next: next, cb: cb}
}

func (g *BreakerGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	intent, err := g.cb.Execute(func() (*Intent, error) {
		return g.next.CreateIntent(ctx, req)
	})
	return intent, g.wrap("payment.CreateIntent", err)
}

func (g *BreakerGateway) CancelIntent(ctx context.Context, intentID string) error {
	_, err := g.cb.Execute(func() (*Intent, error) {
		return nil, g.next.CancelIntent(ctx, intentID)
	})
	return g.wrap("payment.CancelIntent", err)
}

func (g *BreakerGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	intent, err := g.cb.Execute(func() (*Intent, error) {
		return g.next.GetIntent(ctx, intentID)
	})
	return intent, g.wrap("payment.GetIntent", err)
}

func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}

// isRejection reports whether the provider refused the request itself. Those
// are caller errors and say nothing about the provider's health.
func isRejection(err error) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.HTTPStatusCode > 0 && se.HTTPStatusCode < 500
}

// wrap keeps errors from the wrapped gateway and classifies the breaker's own.
func (g *BreakerGateway) wrap(op string, err error) error {
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return externalErr(op, err)
}
