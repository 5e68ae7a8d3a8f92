package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/safar/vintagebikes/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var seq atomic.Int64

func seedUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	n := seq.Add(1)
	user, err := CreateUser(context.Background(), db, NewUser{
		Name:         fmt.Sprintf("Rider %d", n),
		Email:        fmt.Sprintf("rider%d@example.com", n),
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func seedProduct(t *testing.T, db *sql.DB, name, price string) *models.Product {
	t.Helper()
	product, err := CreateProduct(context.Background(), db, NewProduct{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Image: "/img/" + name + ".jpg",
		Stock: 5,
	})
	require.NoError(t, err)
	return product
}
