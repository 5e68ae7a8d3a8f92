package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID            int64           `json:"id"`
	CategoryID    *int64          `json:"categoryId,omitempty"`
	Category      *Category       `json:"category,omitempty"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image"`
	StockQuantity int             `json:"stock"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Version       int             `json:"version"`
}

// ProductSummary is the live catalog data joined onto cart and wishlist rows.
type ProductSummary struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Stock int             `json:"stock"`
}

// CartLine is one aggregated (user, product) row. Its product data is the
// current catalog state, not a snapshot.
type CartLine struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Product   *ProductSummary `json:"product,omitempty"`
}

type WishlistItem struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	ProductID int64           `json:"productId"`
	CreatedAt time.Time       `json:"createdAt"`
	Product   *ProductSummary `json:"product,omitempty"`
}

type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem snapshots price and name at order time.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Payment struct {
	ID              int64     `json:"id"`
	PaymentIntentID string    `json:"paymentIntentId"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	OrderID         int64     `json:"orderId"`
	UserID          int64     `json:"userId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// OrderSummary is an order as shown in a user's history: lines for the same
// product are merged.
type OrderSummary struct {
	ID          int64           `json:"id"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	Payment     *PaymentSummary `json:"payment"`
	Products    []OrderProduct  `json:"products"`
}

type OrderProduct struct {
	ProductID  int64           `json:"productId"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type PaymentSummary struct {
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// MaxItemQuantity bounds a single cart or order line.
const MaxItemQuantity = 10000

const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
)

const (
	PaymentStatusCreated   = "created"
	PaymentStatusSucceeded = "succeeded"
)

var orderTransitions = map[string]map[string]bool{
	OrderStatusPending:   {OrderStatusDelivered: true},
	OrderStatusDelivered: {OrderStatusDelivered: true},
}

// CanTransition reports whether an order may move from one status to another.
// Re-applying delivered is allowed so confirmation stays idempotent.
func CanTransition(from, to string) bool {
	return orderTransitions[from][to]
}
