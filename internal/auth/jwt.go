// Package auth verifies session tokens and exposes the caller's identity to
// handlers. Token issuance and the OAuth sign-in flow live in the external
// auth service; this package only consumes its tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tasteboard"

// Identity is the authenticated caller as asserted by the token. The role
// claim is informational; authorization decisions load the stored role.
type Identity struct {
	UserID string
	Role   string
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a session token for the user. Lifetime is 24 hours; after
// that the client re-authenticates against the auth service.
func (s *TokenService) Generate(userID, role string) (string, error) {
	return s.GenerateWithDuration(userID, role, 24*time.Hour)
}

// GenerateWithDuration signs a token with a custom lifetime. Used in tests.
func (s *TokenService) GenerateWithDuration(userID, role string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature, expiry, issuer and algorithm, and returns
// the asserted identity. Restricting the method list blocks algorithm
// confusion attacks.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, errors.New("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, errors.New("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Role: c.Role}, nil
}
