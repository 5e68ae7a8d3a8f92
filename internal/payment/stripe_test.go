package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/safar/vintagebikes/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func newTestStripe(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return newStripeGateway("sk_test_123", backend)
}

func TestStripeCreateIntent(t *testing.T) {
	g := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "3000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[orderId]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":3000,"currency":"usd","status":"requires_payment_method","client_secret":"pi_1_secret_x"}`))
	})

	intent, err := g.CreateIntent(context.Background(), IntentRequest{
		Amount:   3000,
		Currency: "usd",
		Metadata: map[string]string{"orderId": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret_x", intent.ClientSecret)
	assert.Equal(t, StatusRequiresPaymentMethod, intent.Status)
}

func TestStripeErrorIsExternal(t *testing.T) {
	g := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Amount must be at least 50 cents"}}`))
	})

	_, err := g.CreateIntent(context.Background(), IntentRequest{Amount: 1, Currency: "usd"})
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))

	_, err = g.GetIntent(context.Background(), "pi_1")
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))
}
