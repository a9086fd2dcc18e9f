// Package auth implements the session and authorization core: password
// hashing, signed session tokens, the request gateway that resolves an
// identity from a bearer token, and the per-resource ownership guard.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies HS256-signed session tokens that carry the
// user id as the subject claim.
//
// Verification is stateless: a token stays valid until it expires, there is
// no server-side revocation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService signing with secret. The secret is
// copied; ttl must be positive.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL is the lifetime given to every issued token.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for userID valid from now until now+TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id must not be empty")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry against the current clock
// and returns the subject. Every failure wraps common.ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", common.ErrTokenInvalid
	}

	return claims.Subject, nil
}
