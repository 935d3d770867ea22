// Package auth mints and validates the HS256-signed opaque tokens used for
// pool presence tokens and match tickets. It is a trim of the reference
// backend's internal/auth package: the Privy/ES256/JWKS external-identity
// validation and the role-based gin middlewares are dropped entirely, since
// end-user authentication is an explicit Non-goal. What remains is the
// HS256 signing helper, shrunk to a single purpose, so a token handed back
// to /pool/leave or /match/status can be integrity-checked without a lookup
// table surviving a restart.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies an opaque token's purpose and subject. No end-user
// identity is carried.
type Claims struct {
	Purpose string `json:"purpose"` // "pool" | "ticket"
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// Config configures the Signer.
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// Signer mints and validates HS256 tokens with a fixed secret.
type Signer struct {
	config Config
}

// New creates a new Signer. An empty secret falls back to a fixed
// development key, and a zero TTL falls back to 24h — acceptable because
// these tokens protect the integrity of an opaque identifier, not a
// security boundary; actual lifecycle is owned by pool/matchmaker state.
func New(config Config) *Signer {
	if config.Secret == "" {
		config.Secret = "turingwire-dev-secret"
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return &Signer{config: config}
}

// Sign mints a token for the given purpose/subject.
func (s *Signer) Sign(purpose, subject string) (string, error) {
	claims := &Claims{
		Purpose: purpose,
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "turingwire",
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return tokenString, nil
}

// Verify validates a token's signature and expiry and returns its claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %v", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("failed to extract claims")
	}
	return claims, nil
}

// VerifyPurpose validates a token and checks it was minted for the expected
// purpose, so a pool token can't be replayed as a match ticket or vice versa.
func (s *Signer) VerifyPurpose(tokenString, purpose string) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q does not match expected %q", claims.Purpose, purpose)
	}
	return claims, nil
}
