package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, 24*time.Hour, time.Hour)

	token, err := m.Issue(Principal{UserID: 42, Email: "rider@example.com"}, PurposeAccess)
	require.NoError(t, err)

	p, err := m.Parse(token, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, "rider@example.com", p.Email)
}

func TestTokenWrongPurpose(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, 24*time.Hour, time.Hour)

	token, err := m.Issue(Principal{UserID: 1}, PurposeRefresh)
	require.NoError(t, err)

	_, err = m.Parse(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour, time.Hour)
	issued := time.Now().Add(-2 * time.Minute)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(Principal{UserID: 1}, PurposeAccess)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	a := NewTokenManager("secret-a", time.Hour, time.Hour, time.Hour)
	b := NewTokenManager("secret-b", time.Hour, time.Hour, time.Hour)

	token, err := a.Issue(Principal{UserID: 1}, PurposeAccess)
	require.NoError(t, err)

	_, err = b.Parse(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Parse("not.a.token", PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "hunter2"))
	assert.ErrorIs(t, CheckPassword(hash, "hunter3"), ErrPasswordMismatch)
}
