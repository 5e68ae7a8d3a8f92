package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/database/dbtest"
	"github.com/safar/vintagebikes/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceOrderLines(t *testing.T) {
	catalog := map[int64]CatalogEntry{
		1: {Name: "Frame", Price: decimal.RequireFromString("10.00")},
		2: {Name: "Fork", Price: decimal.RequireFromString("5.25")},
	}

	lines, total := PriceOrderLines([]OrderItemRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 99, Quantity: 3},
	}, catalog)

	require.Len(t, lines, 3)
	assert.True(t, total.Equal(decimal.RequireFromString("25.25")), total.String())
	assert.True(t, lines[0].Subtotal.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "", lines[2].ProductName)
	assert.True(t, lines[2].UnitPrice.IsZero())
	assert.True(t, lines[2].Subtotal.IsZero())
}

func TestGroupOrderProducts(t *testing.T) {
	line := func(productID int64, qty int, unit string) orderLineView {
		price := decimal.RequireFromString(unit)
		return orderLineView{OrderItem: models.OrderItem{
			ProductID:   productID,
			ProductName: "p",
			Quantity:    qty,
			UnitPrice:   price,
			Subtotal:    price.Mul(decimal.NewFromInt(int64(qty))),
		}}
	}

	grouped := GroupOrderProducts([]orderLineView{
		line(7, 1, "10.00"),
		line(8, 2, "3.00"),
		line(7, 2, "10.00"),
	})

	require.Len(t, grouped, 2)
	assert.Equal(t, int64(7), grouped[0].ProductID)
	assert.Equal(t, 3, grouped[0].Quantity)
	assert.True(t, grouped[0].TotalPrice.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 2, grouped[1].Quantity)

	assert.Empty(t, GroupOrderProducts(nil))
}

func TestCreateOrder(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	a := seedProduct(t, db, "wheel", "100.00")
	b := seedProduct(t, db, "brake", "20.50")

	order, err := CreateOrder(ctx, db, CreateOrderRequest{
		UserID: user.ID,
		Items: []OrderItemRequest{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("220.50")), order.TotalAmount.String())
	require.Len(t, order.Items, 2)
	assert.Equal(t, "wheel", order.Items[0].ProductName)
}

func TestCreateOrderUnknownProductPricedAtZero(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	a := seedProduct(t, db, "grip", "7.00")

	order, err := CreateOrder(ctx, db, CreateOrderRequest{
		UserID: user.ID,
		Items: []OrderItemRequest{
			{ProductID: a.ID, Quantity: 1},
			{ProductID: 123456, Quantity: 4},
		},
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(7)))
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[1].UnitPrice.IsZero())
}

func TestCreateOrderIsAllOrNothing(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	a := seedProduct(t, db, "cable", "3.00")

	// quantity 0 violates the order_items check after the order row exists
	_, err := CreateOrder(ctx, db, CreateOrderRequest{
		UserID: user.ID,
		Items: []OrderItemRequest{
			{ProductID: a.ID, Quantity: 1},
			{ProductID: a.ID, Quantity: 0},
		},
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items`).Scan(&count))
	assert.Zero(t, count)
}

func TestCreateOrderUnknownUser(t *testing.T) {
	db := dbtest.New(t)

	_, err := CreateOrder(context.Background(), db, CreateOrderRequest{
		UserID: 999,
		Items:  []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	_, err = CreateOrder(context.Background(), db, CreateOrderRequest{UserID: 999})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestOrderSnapshotSurvivesPriceChange(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	product := seedProduct(t, db, "bottle", "10.00")

	order, err := CreateOrder(ctx, db, CreateOrderRequest{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, UpdatePriceOptimistic(ctx, db, product.ID, decimal.NewFromInt(99), product.Version))

	got, err := GetOrder(ctx, db, order.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("30.00")), got.TotalAmount.String())
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)))
}

func TestUpdateOrderStatus(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	product := seedProduct(t, db, "bag", "15.00")
	order, err := CreateOrder(ctx, db, CreateOrderRequest{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	var changed bool
	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		changed, err = UpdateOrderStatus(ctx, tx, order.ID, models.OrderStatusDelivered)
		return err
	})
	require.NoError(t, err)
	assert.True(t, changed)

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		changed, err = UpdateOrderStatus(ctx, tx, order.ID, models.OrderStatusDelivered)
		return err
	})
	require.NoError(t, err)
	assert.False(t, changed)

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := UpdateOrderStatus(ctx, tx, order.ID, models.OrderStatusPending)
		return err
	})
	assert.ErrorIs(t, err, database.ErrInvalidTransition)
}

func TestListOrderSummaries(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	a := seedProduct(t, db, "pedal", "10.00")
	b := seedProduct(t, db, "spoke", "1.00")

	older, err := CreateOrder(ctx, db, CreateOrderRequest{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: b.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	newer, err := CreateOrder(ctx, db, CreateOrderRequest{
		UserID: user.ID,
		Items: []OrderItemRequest{
			{ProductID: a.ID, Quantity: 1},
			{ProductID: a.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	_, err = CreatePayment(ctx, db, NewPayment{
		PaymentIntentID: "pi_summary",
		Amount:          3000,
		Currency:        "usd",
		OrderID:         newer.ID,
		UserID:          user.ID,
	})
	require.NoError(t, err)

	summaries, err := ListOrderSummaries(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, newer.ID, summaries[0].ID)
	require.Len(t, summaries[0].Products, 1)
	assert.Equal(t, 3, summaries[0].Products[0].Quantity)
	assert.True(t, summaries[0].Products[0].TotalPrice.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "/img/pedal.jpg", summaries[0].Products[0].Image)
	require.NotNil(t, summaries[0].Payment)
	assert.Equal(t, int64(3000), summaries[0].Payment.Amount)

	assert.Equal(t, older.ID, summaries[1].ID)
	assert.Nil(t, summaries[1].Payment)
}

func TestListOrdersCursor(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	user := seedUser(t, db)
	product := seedProduct(t, db, "tube", "4.00")

	for i := 0; i < 15; i++ {
		_, err := CreateOrder(ctx, db, CreateOrderRequest{
			UserID: user.ID,
			Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		})
		require.NoError(t, err, "create order %d", i)
	}

	page1, err := ListOrdersCursor(ctx, db, user.ID, "", 10)
	require.NoError(t, err)
	assert.True(t, page1.HasMore)
	assert.NotEmpty(t, page1.NextCursor)
	assert.Len(t, page1.Items, 10)

	page2, err := ListOrdersCursor(ctx, db, user.ID, page1.NextCursor, 10)
	require.NoError(t, err)
	assert.False(t, page2.HasMore)
	assert.Len(t, page2.Items, 5)

	_, err = ListOrdersCursor(ctx, db, user.ID, "garbage!", 10)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}
