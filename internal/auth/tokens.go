package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
	PurposeVerify  Purpose = "verify"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("token used for the wrong purpose")
)

type Claims struct {
	Email   string  `json:"email,omitempty"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Email  string
}

type TokenManager struct {
	secret []byte
	ttl    map[Purpose]time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL, verifyTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl: map[Purpose]time.Duration{
			PurposeAccess:  accessTTL,
			PurposeRefresh: refreshTTL,
			PurposeVerify:  verifyTTL,
		},
		now: time.Now,
	}
}

// Issue signs an HS256 token for the principal. Verify tokens carry only the
// email since the account id is not needed to verify it.
func (m *TokenManager) Issue(p Principal, purpose Purpose) (string, error) {
	ttl, ok := m.ttl[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}

	now := m.now()
	claims := Claims{
		Email:   p.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, expiry and purpose and returns the principal.
func (m *TokenManager) Parse(tokenString string, purpose Purpose) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != purpose {
		return Principal{}, ErrWrongPurpose
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return Principal{UserID: id, Email: claims.Email}, nil
}
