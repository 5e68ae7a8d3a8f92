package api

import (
	"net/http"

	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/safar/vintagebikes/internal/checkout"
)

type checkoutProduct struct {
	ID *int64 `json:"id"`
}

type checkoutItem struct {
	Product  *checkoutProduct `json:"product"`
	Quantity int              `json:"quantity"`
}

type checkoutRequest struct {
	CartItems []checkoutItem `json:"cartItems" validate:"required"`
	// UserID is accepted for compatibility and must match the caller.
	UserID *int64 `json:"userId"`
}

type checkoutResponse struct {
	ClientSecret string `json:"clientSecret"`
	OrderID      int64  `json:"orderId"`
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	userID := principal(r).UserID
	if req.UserID != nil && *req.UserID != userID {
		writeError(w, r, apperr.Forbidden("api.checkout", "cannot check out for another user"))
		return
	}

	items := make([]checkout.CartItem, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		item := checkout.CartItem{Quantity: it.Quantity}
		if it.Product != nil {
			item.ProductID = it.Product.ID
		}
		items = append(items, item)
	}

	res, err := s.deps.Checkout.Checkout(r.Context(), userID, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{ClientSecret: res.ClientSecret, OrderID: res.OrderID})
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	conf, err := s.deps.Checkout.ConfirmPayment(r.Context(), principal(r).UserID, req.PaymentIntentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "Payment confirmed successfully"
	if conf.AlreadyDelivered {
		msg = "Payment already confirmed"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "orderId": conf.OrderID})
}
