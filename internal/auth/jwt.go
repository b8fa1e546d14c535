// Package auth verifies bearer tokens issued by the main application and
// extracts the acting user from them. This service never issues tokens; it only
// needs a verified actor identity for the audit trail.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/portfolio-cms/portfolio-cms/internal/config"
)

// ErrInvalidToken is returned for tokens that fail signature or claims checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims structure
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates tokens against the shared signing secret.
type Verifier struct {
	secret []byte
	issuer string
	leeway jwt.ParserOption
}

// NewVerifier creates a Verifier from the auth configuration.
func NewVerifier(cfg *config.AuthConfig) (*Verifier, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		leeway: jwt.WithLeeway(cfg.Leeway),
	}, nil
}

// ValidateToken parses and validates a bearer token and returns its claims.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		v.leeway,
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		// Fall back to the standard subject claim
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
