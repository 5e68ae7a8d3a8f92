package store

import (
	"context"
	"sync"
	"testing"

	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrIncrementCartItem(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	product := seedProduct(t, db, "saddle", "45.50")

	line, created, err := AddOrIncrementCartItem(ctx, db, user.ID, product.ID, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, line.Quantity)

	line, created, err = AddOrIncrementCartItem(ctx, db, user.ID, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, "saddle", line.Product.Name)

	lines, err := ListCartItems(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestAddOrIncrementUnknownProduct(t *testing.T) {
	db := dbtest.New(t)
	user := seedUser(t, db)

	_, _, err := AddOrIncrementCartItem(context.Background(), db, user.ID, 4242, 1)
	assert.ErrorIs(t, err, database.ErrProductNotFound)
}

func TestConcurrentCartIncrement(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	product := seedProduct(t, db, "bell", "5.00")

	concurrency := 10
	var wg sync.WaitGroup
	errs := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := AddOrIncrementCartItem(ctx, db, user.ID, product.ID, 1)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	lines, err := ListCartItems(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, concurrency, lines[0].Quantity)
}

func TestSetCartItemQuantity(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	product := seedProduct(t, db, "pump", "12.00")

	_, err := SetCartItemQuantity(ctx, db, user.ID, product.ID, 4)
	assert.ErrorIs(t, err, database.ErrCartItemNotFound)

	_, _, err = AddOrIncrementCartItem(ctx, db, user.ID, product.ID, 1)
	require.NoError(t, err)

	line, err := SetCartItemQuantity(ctx, db, user.ID, product.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)
	assert.True(t, line.Product.Price.Equal(product.Price))
}

func TestCartOrderingAndRemoval(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	first := seedProduct(t, db, "chain", "20.00")
	second := seedProduct(t, db, "tyre", "30.00")

	_, _, err := AddOrIncrementCartItem(ctx, db, user.ID, first.ID, 1)
	require.NoError(t, err)
	_, _, err = AddOrIncrementCartItem(ctx, db, user.ID, second.ID, 1)
	require.NoError(t, err)

	lines, err := ListCartItems(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, first.ID, lines[0].ProductID)
	assert.Equal(t, second.ID, lines[1].ProductID)

	require.NoError(t, RemoveCartItem(ctx, db, user.ID, first.ID))
	assert.ErrorIs(t, RemoveCartItem(ctx, db, user.ID, first.ID), database.ErrCartItemNotFound)

	removed, err := ClearCart(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = ClearCart(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
