// Package checkout turns a cart into a pending order with a payment intent
// and reconciles payment confirmation into order state.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/events"
	"github.com/safar/vintagebikes/internal/models"
	"github.com/safar/vintagebikes/internal/payment"
	"github.com/safar/vintagebikes/internal/store"
)

type Stage string

const (
	StageValidation  Stage = "validation"
	StagePersistence Stage = "persistence"
	StageGateway     Stage = "gateway"
	StageReconcile   Stage = "reconcile"
)

// StageError records where a checkout failed and what was already created.
type StageError struct {
	Stage    Stage
	OrderID  int64
	IntentID string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("checkout %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Config struct {
	Currency     string
	VerifyIntent bool
}

type Service struct {
	db        *sql.DB
	gateway   payment.Gateway
	publisher events.Publisher
	cfg       Config
	log       zerolog.Logger
}

func NewService(db *sql.DB, gateway payment.Gateway, publisher events.Publisher, cfg Config, log zerolog.Logger) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{db: db, gateway: gateway, publisher: publisher, cfg: cfg, log: log}
}

// CartItem is one submitted line. ProductID is nil when the client sent a
// line without a product reference.
type CartItem struct {
	ProductID *int64
	Quantity  int
}

type Result struct {
	OrderID      int64
	ClientSecret string
}

func fail(stage Stage, kind apperr.Kind, msg string, orderID int64, intentID string, err error) error {
	return apperr.Wrap(kind, "checkout.Checkout", msg, &StageError{
		Stage:    stage,
		OrderID:  orderID,
		IntentID: intentID,
		Err:      err,
	})
}

// Checkout prices the items from the catalog, persists a pending order,
// creates a payment intent for it and records the payment. The client secret
// is returned to the caller only.
func (s *Service) Checkout(ctx context.Context, userID int64, items []CartItem) (*Result, error) {
	req := store.CreateOrderRequest{UserID: userID}
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		if item.Quantity < 1 {
			return nil, fail(StageValidation, apperr.KindValidation, "quantity must be at least 1", 0, "",
				fmt.Errorf("product %d has quantity %d", *item.ProductID, item.Quantity))
		}
		if item.Quantity > models.MaxItemQuantity {
			return nil, fail(StageValidation, apperr.KindValidation,
				fmt.Sprintf("quantity must be at most %d", models.MaxItemQuantity), 0, "",
				fmt.Errorf("product %d has quantity %d", *item.ProductID, item.Quantity))
		}
		req.Items = append(req.Items, store.OrderItemRequest{ProductID: *item.ProductID, Quantity: item.Quantity})
	}
	if len(req.Items) == 0 {
		return nil, fail(StageValidation, apperr.KindValidation, "no valid products provided in cart", 0, "", store.ErrEmptyOrder)
	}

	order, err := store.CreateOrder(ctx, s.db, req)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, fail(StageValidation, apperr.KindNotFound, "user not found", 0, "", err)
		}
		if database.IsOutOfRange(err) {
			return nil, fail(StageValidation, apperr.KindValidation, "order total is too large", 0, "", err)
		}
		return nil, fail(StagePersistence, apperr.KindPersistence, "", 0, "", err)
	}

	amount := payment.ToMinorUnits(order.TotalAmount)
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		Amount:   amount,
		Currency: s.cfg.Currency,
		Metadata: map[string]string{"orderId": strconv.FormatInt(order.ID, 10)},
	})
	if err != nil {
		s.log.Error().Err(err).Int64("orderId", order.ID).Int64("amount", amount).Msg("create payment intent failed, order left pending")
		return nil, fail(StageGateway, apperr.KindExternal, "payment provider unavailable", order.ID, "", err)
	}

	_, err = store.CreatePayment(ctx, s.db, store.NewPayment{
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        s.cfg.Currency,
		OrderID:         order.ID,
		UserID:          userID,
	})
	if err != nil {
		s.cancelDangling(ctx, order.ID, intent.ID, err)
		return nil, fail(StageReconcile, apperr.KindPersistence, "", order.ID, intent.ID, err)
	}

	s.publish(ctx, events.TypeOrderCreated, order.ID, events.OrderCreated{
		OrderID:         order.ID,
		UserID:          userID,
		TotalAmount:     order.TotalAmount,
		Amount:          amount,
		Currency:        s.cfg.Currency,
		PaymentIntentID: intent.ID,
	})

	s.log.Info().Int64("orderId", order.ID).Int64("userId", userID).Str("paymentIntentId", intent.ID).
		Int64("amount", amount).Msg("checkout completed")

	return &Result{OrderID: order.ID, ClientSecret: intent.ClientSecret}, nil
}

// cancelDangling voids an intent whose payment row could not be written.
func (s *Service) cancelDangling(ctx context.Context, orderID int64, intentID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logEvent := s.log.Error().Err(cause).Int64("orderId", orderID).Str("paymentIntentId", intentID)
	if err := s.gateway.CancelIntent(ctx, intentID); err != nil {
		logEvent.AnErr("cancelErr", err).Msg("payment row not persisted, intent cancel failed")
		return
	}
	logEvent.Msg("payment row not persisted, intent canceled")
}

func (s *Service) publish(ctx context.Context, eventType string, orderID int64, payload any) {
	e, err := events.New(eventType, orderID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Int64("orderId", orderID).Msg("publish event failed")
	}
}

type Confirmation struct {
	OrderID int64
	// AlreadyDelivered is true when the order had been confirmed before.
	AlreadyDelivered bool
}

// ConfirmPayment marks the order paid by intentID as delivered and its
// payment as succeeded. Confirming twice is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, userID int64, intentID string) (*Confirmation, error) {
	const op = "checkout.ConfirmPayment"

	if intentID == "" {
		return nil, apperr.Validation(op, "paymentIntentId is required")
	}

	p, err := store.GetPaymentByIntentID(ctx, s.db, intentID)
	if err != nil {
		if errors.Is(err, database.ErrPaymentNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, op, "payment not found", err)
		}
		return nil, apperr.Wrap(apperr.KindPersistence, op, "", err)
	}
	if p.UserID != userID {
		return nil, apperr.NotFound(op, "payment not found")
	}

	if s.cfg.VerifyIntent {
		if err := s.verifyIntent(ctx, p); err != nil {
			return nil, err
		}
	}

	var changed bool
	err = database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		locked, err := store.LockPaymentByIntentID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		changed, err = store.UpdateOrderStatus(ctx, tx, locked.OrderID, models.OrderStatusDelivered)
		if err != nil {
			return err
		}
		_, err = store.MarkPaymentSucceeded(ctx, tx, locked.ID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, database.ErrInvalidTransition):
			return nil, apperr.Wrap(apperr.KindConflict, op, "order cannot be delivered", err)
		case errors.Is(err, database.ErrOrderNotFound), errors.Is(err, database.ErrPaymentNotFound):
			return nil, apperr.Wrap(apperr.KindNotFound, op, "payment not found", err)
		default:
			return nil, apperr.Wrap(apperr.KindPersistence, op, "", err)
		}
	}

	if changed {
		s.publish(ctx, events.TypeOrderDelivered, p.OrderID, events.OrderDelivered{
			OrderID:         p.OrderID,
			UserID:          userID,
			PaymentIntentID: intentID,
		})
		s.log.Info().Int64("orderId", p.OrderID).Str("paymentIntentId", intentID).Msg("payment confirmed")
	}

	return &Confirmation{OrderID: p.OrderID, AlreadyDelivered: !changed}, nil
}

// verifyIntent checks with the provider that the intent was paid in full.
func (s *Service) verifyIntent(ctx context.Context, p *models.Payment) error {
	const op = "checkout.ConfirmPayment"

	intent, err := s.gateway.GetIntent(ctx, p.PaymentIntentID)
	if err != nil {
		return err
	}
	if intent.Status != payment.StatusSucceeded {
		return apperr.Validation(op, "payment has not succeeded")
	}
	if intent.Amount != p.Amount {
		s.log.Error().Int64("orderId", p.OrderID).Int64("expected", p.Amount).Int64("got", intent.Amount).
			Msg("payment amount mismatch")
		return apperr.Validation(op, "payment amount does not match order")
	}
	return nil
}
