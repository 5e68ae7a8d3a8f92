package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PAYMENT_PROVIDER", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "fake", cfg.Payment.Provider)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.False(t, cfg.Payment.VerifyIntent)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadStripeRequiresKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PAYMENT_PROVIDER", "Stripe")
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "stripe", cfg.Payment.Provider)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitCSV(" a:9092, ,b:9092 "))
	assert.Empty(t, splitCSV(""))
}
