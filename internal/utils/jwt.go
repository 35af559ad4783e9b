// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const sessionIssuer = "ip-nexus"

// WalletClaims is the session token issued when a wallet provider reports an
// active account.
type WalletClaims struct {
	Provider string `json:"provider"`
	Address  string `json:"address"`
	jwt.RegisteredClaims
}

// SessionSigner issues and validates wallet session tokens.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewSessionSigner(secret string, ttlHours int, now Clock) *SessionSigner {
	if now == nil {
		now = SystemClock
	}
	return &SessionSigner{
		secret: []byte(secret),
		ttl:    time.Duration(ttlHours) * time.Hour,
		now:    now,
	}
}

func (s *SessionSigner) Issue(provider, address string) (string, *WalletClaims, error) {
	now := s.now()
	claims := &WalletClaims{
		Provider: provider,
		Address:  address,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
			Subject:   address,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (s *SessionSigner) Validate(tokenString string) (*WalletClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &WalletClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*WalletClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}

	// Time checks run against the injected clock rather than the wall clock.
	now := s.now()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, errors.New("session token expired")
	}
	if !claims.VerifyNotBefore(now, true) {
		return nil, errors.New("session token not yet valid")
	}
	if !claims.VerifyIssuer(sessionIssuer, true) {
		return nil, errors.New("unexpected session token issuer")
	}
	return claims, nil
}
