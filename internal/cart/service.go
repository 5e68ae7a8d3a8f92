// Package cart aggregates cart lines per (user, product) and caches reads.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/models"
	"github.com/safar/vintagebikes/internal/store"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	db    database.Querier
	cache Cache
	sfg   singleflight.Group
	log   zerolog.Logger
}

func NewService(db database.Querier, cache Cache, log zerolog.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{db: db, cache: cache, log: log}
}

// Add inserts a line or increments the existing one. created reports whether
// the line is new.
func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, bool, error) {
	const op = "cart.Add"

	if err := checkQuantity(op, quantity); err != nil {
		return nil, false, err
	}

	line, created, err := store.AddOrIncrementCartItem(ctx, s.db, userID, productID, quantity)
	if err != nil {
		return nil, false, translate(op, err)
	}

	s.invalidate(userID)
	return line, created, nil
}

func (s *Service) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error) {
	const op = "cart.SetQuantity"

	if err := checkQuantity(op, quantity); err != nil {
		return nil, err
	}

	line, err := store.SetCartItemQuantity(ctx, s.db, userID, productID, quantity)
	if err != nil {
		return nil, translate(op, err)
	}

	s.invalidate(userID)
	return line, nil
}

// List returns the user's lines oldest first, from cache when possible.
// Concurrent callers share one load; a caller that gives up does not cancel it
// for the others.
func (s *Service) List(ctx context.Context, userID int64) ([]models.CartLine, error) {
	const op = "cart.List"

	ch := s.sfg.DoChan(strconv.FormatInt(userID, 10), func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		lines, err := s.cache.Get(ctx, userID)
		if err == nil {
			return lines, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Int64("userId", userID).Msg("cart cache get failed")
		}

		lines, err = store.ListCartItems(ctx, s.db, userID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, userID, lines); err != nil {
			s.log.Warn().Err(err).Int64("userId", userID).Msg("cart cache set failed")
		}
		return lines, nil
	})

	select {
	case <-ctx.Done():
		return nil, translate(op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, translate(op, res.Err)
		}
		return res.Val.([]models.CartLine), nil
	}
}

// Remove deletes one line and returns what is left.
func (s *Service) Remove(ctx context.Context, userID, productID int64) ([]models.CartLine, error) {
	const op = "cart.Remove"

	if err := store.RemoveCartItem(ctx, s.db, userID, productID); err != nil {
		return nil, translate(op, err)
	}

	s.invalidate(userID)
	return s.List(ctx, userID)
}

// Clear is idempotent.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	const op = "cart.Clear"

	removed, err := store.ClearCart(ctx, s.db, userID)
	if err != nil {
		return translate(op, err)
	}

	s.invalidate(userID)
	s.log.Debug().Int64("userId", userID).Int64("removed", removed).Msg("cart cleared")
	return nil
}

func (s *Service) invalidate(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn().Err(err).Int64("userId", userID).Msg("cart cache invalidate failed")
	}
}

func checkQuantity(op string, quantity int) error {
	switch {
	case quantity < 1:
		return apperr.Validation(op, "quantity must be at least 1")
	case quantity > models.MaxItemQuantity:
		return apperr.Validation(op, fmt.Sprintf("quantity must be at most %d", models.MaxItemQuantity))
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case database.IsOutOfRange(err):
		return apperr.Wrap(apperr.KindValidation, op, "quantity is too large", err)
	case errors.Is(err, database.ErrProductNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "product not found", err)
	case errors.Is(err, database.ErrCartItemNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "cart item not found", err)
	case errors.Is(err, database.ErrUserNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "user not found", err)
	default:
		return apperr.Wrap(apperr.KindPersistence, op, "", err)
	}
}
