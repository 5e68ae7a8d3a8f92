// Package events publishes order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated   = "order.created"
	TypeOrderDelivered = "order.delivered"
)

type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Key        string          `json:"-"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderCreated struct {
	OrderID         int64           `json:"orderId"`
	UserID          int64           `json:"userId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentIntentID string          `json:"paymentIntentId"`
}

type OrderDelivered struct {
	OrderID         int64  `json:"orderId"`
	UserID          int64  `json:"userId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// New wraps payload in an envelope keyed by order id.
func New(eventType string, orderID int64, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Key:        strconv.FormatInt(orderID, 10),
		Payload:    raw,
	}, nil
}

// Publisher must not block the caller on broker availability.
type Publisher interface {
	Publish(ctx context.Context, e Envelope) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) error { return nil }

// Recorder keeps published envelopes in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, e Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}
