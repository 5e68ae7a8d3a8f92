package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway keeps intents in memory. It is used in development and tests.
type FakeGateway struct {
	mu       sync.Mutex
	intents  map[string]*Intent
	canceled []string

	// Errors returned by the next calls, when set.
	CreateErr error
	CancelErr error
	GetErr    error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{intents: make(map[string]*Intent)}
}

func (g *FakeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, externalErr("payment.CreateIntent", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CreateErr != nil {
		return nil, externalErr("payment.CreateIntent", g.CreateErr)
	}

	id := "pi_fake_" + uuid.NewString()
	intent := &Intent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_%s", id, uuid.NewString()[:8]),
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       StatusRequiresPaymentMethod,
	}
	g.intents[id] = intent

	out := *intent
	return &out, nil
}

func (g *FakeGateway) CancelIntent(ctx context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CancelErr != nil {
		return externalErr("payment.CancelIntent", g.CancelErr)
	}
	intent, ok := g.intents[intentID]
	if !ok {
		return externalErr("payment.CancelIntent", fmt.Errorf("no such intent %s", intentID))
	}
	intent.Status = StatusCanceled
	g.canceled = append(g.canceled, intentID)
	return nil
}

func (g *FakeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.GetErr != nil {
		return nil, externalErr("payment.GetIntent", g.GetErr)
	}
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, externalErr("payment.GetIntent", fmt.Errorf("no such intent %s", intentID))
	}
	out := *intent
	out.ClientSecret = ""
	return &out, nil
}

// Complete simulates the client finishing payment for an intent.
func (g *FakeGateway) Complete(intentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.intents[intentID]; ok {
		intent.Status = StatusSucceeded
	}
}

func (g *FakeGateway) Canceled() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.canceled...)
}

func (g *FakeGateway) Created() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.intents)
}
