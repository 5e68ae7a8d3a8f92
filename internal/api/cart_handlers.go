package api

import (
	"net/http"
)

type addToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"min=1,max=10000"`
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	line, created, err := s.deps.Cart.Add(r.Context(), principal(r).UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, line)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	lines, err := s.deps.Cart.List(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=10000"`
}

func (s *Server) updateCartQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateQuantityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	line, err := s.deps.Cart.SetQuantity(r.Context(), principal(r).UserID, productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	remaining, err := s.deps.Cart.Remove(r.Context(), principal(r).UserID, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remaining)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Cart.Clear(r.Context(), principal(r).UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Cart cleared")
}
