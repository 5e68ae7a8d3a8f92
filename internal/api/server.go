// Package api exposes the storefront over HTTP.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/safar/vintagebikes/internal/auth"
	"github.com/safar/vintagebikes/internal/cart"
	"github.com/safar/vintagebikes/internal/checkout"
)

type Deps struct {
	DB       *sql.DB
	Auth     *auth.Service
	Tokens   *auth.TokenManager
	Cart     *cart.Service
	Checkout *checkout.Service
	Log      zerolog.Logger

	RequestTimeout  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookies   bool
}

type Server struct {
	deps Deps
}

func NewRouter(deps Deps) http.Handler {
	s := &Server{deps: deps}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(deps.Log))
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.RequestTimeout))

	r.Get("/healthz", s.health)
	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Get("/verify-email", s.verifyEmail)
	r.Get("/verify-email/{token}", s.verifyEmail)
	r.Post("/refresh-token", s.refreshToken)

	r.Group(func(r chi.Router) {
		r.Use(authenticate(deps.Tokens))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", s.addToCart)
			r.Get("/", s.getCart)
			r.Delete("/", s.clearCart)
			r.Patch("/{productId}", s.updateCartQuantity)
			r.Delete("/{productId}", s.removeFromCart)
		})

		r.Post("/checkout", s.checkout)
		r.Post("/confirm-payment", s.confirmPayment)

		r.Get("/myorders/{userId}", s.myOrders)
		r.Get("/orders", s.listOrders)

		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getProduct)
		r.Get("/categories", s.listCategories)

		r.Post("/wishlist", s.toggleWishlist)
		r.Get("/wishlist/{userId}", s.getWishlist)
		r.Delete("/wishlist/{productId}", s.removeFromWishlist)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			writeError(w, r, apperr.Wrap(apperr.KindPersistence, "api.health", "", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// idParam parses a positive int64 path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("api.idParam", name+" must be a positive integer")
	}
	return id, nil
}

// ownUserParam parses the userId path parameter and requires it to be the
// caller.
func ownUserParam(r *http.Request) (int64, error) {
	id, err := idParam(r, "userId")
	if err != nil {
		return 0, err
	}
	if id != principal(r).UserID {
		return 0, apperr.Forbidden("api.ownUserParam", "cannot access another user's data")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}
