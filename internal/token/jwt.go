// Package token signs and verifies the bearer tokens handed to users.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ping-auth-server/internal/domain/auth"
	apperrors "ping-auth-server/pkg/errors"
)

const DefaultTTL = 7 * 24 * time.Hour

type Claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Issuer)

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) { i.ttl = ttl }
}

// NewIssuer holds secret for the life of the process.
func NewIssuer(secret string, opts ...Option) *Issuer {
	i := &Issuer{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) Issue(user *auth.User) (string, error) {
	if user == nil {
		return "", errors.New("token: nil user")
	}
	now := i.now()
	claims := Claims{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify rejects tokens with a bad signature, a non-HMAC algorithm, or a past expiry.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, apperrors.NewInvalidTokenError(err)
	}
	return claims, nil
}
