package api

import (
	"errors"
	"net/http"

	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/store"
)

// storeErr classifies errors returned by store calls made directly from
// handlers.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, database.ErrProductNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "product not found", err)
	case errors.Is(err, database.ErrWishlistNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "product not found in wishlist", err)
	case errors.Is(err, database.ErrUserNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "user not found", err)
	case errors.Is(err, store.ErrInvalidCursor):
		return apperr.Wrap(apperr.KindValidation, op, "invalid cursor", err)
	default:
		return apperr.Wrap(apperr.KindPersistence, op, "", err)
	}
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := ownUserParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summaries, err := store.ListOrderSummaries(r.Context(), s.deps.DB, userID)
	if err != nil {
		writeError(w, r, storeErr("api.myOrders", err))
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 100)

	page, err := store.ListOrdersCursor(r.Context(), s.deps.DB, principal(r).UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, r, storeErr("api.listOrders", err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 0)
	pageSize := queryInt(r, "page_size", 20, 100)

	products, err := store.ListProducts(r.Context(), s.deps.DB, page, pageSize)
	if err != nil {
		writeError(w, r, storeErr("api.listProducts", err))
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	product, err := store.GetProduct(r.Context(), s.deps.DB, id)
	if err != nil {
		writeError(w, r, storeErr("api.getProduct", err))
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), s.deps.DB)
	if err != nil {
		writeError(w, r, storeErr("api.listCategories", err))
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type wishlistRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

func (s *Server) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	added, err := store.ToggleWishlist(r.Context(), s.deps.DB, principal(r).UserID, req.ProductID)
	if err != nil {
		writeError(w, r, storeErr("api.toggleWishlist", err))
		return
	}

	if added {
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Added to wishlist", "added": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Removed from wishlist", "added": false})
}

func (s *Server) getWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := ownUserParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := store.ListWishlist(r.Context(), s.deps.DB, userID)
	if err != nil {
		writeError(w, r, storeErr("api.getWishlist", err))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.RemoveWishlistItem(r.Context(), s.deps.DB, principal(r).UserID, productID); err != nil {
		writeError(w, r, storeErr("api.removeFromWishlist", err))
		return
	}
	writeMessage(w, http.StatusOK, "Removed from wishlist")
}
