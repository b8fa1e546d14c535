package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/portfolio-cms/portfolio-cms/internal/config"
)

const testSecret = "test-secret-that-is-32-characters!!"

func newTestVerifier(t *testing.T, issuer string) *Verifier {
	t.Helper()
	v, err := NewVerifier(&config.AuthConfig{JWTSecret: testSecret, Issuer: issuer})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// NewVerifier
// ---------------------------------------------------------------------------

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(&config.AuthConfig{})
	if err == nil {
		t.Error("expected error for missing secret")
	}
}

// ---------------------------------------------------------------------------
// ValidateToken
// ---------------------------------------------------------------------------

func TestValidateToken_Valid(t *testing.T) {
	v := newTestVerifier(t, "")
	tokenString := signToken(t, testSecret, Claims{
		UserID: "user-1",
		Email:  "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %s, want alice@example.com", claims.Email)
	}
}

func TestValidateToken_FallsBackToSubject(t *testing.T) {
	v := newTestVerifier(t, "")
	tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "user-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user-2" {
		t.Errorf("UserID = %s, want sub fallback user-2", claims.UserID)
	}
}

func TestValidateToken_NoIdentity(t *testing.T) {
	v := newTestVerifier(t, "")
	tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	if _, err := v.ValidateToken(tokenString); err == nil {
		t.Error("expected error for token without user_id or sub")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	v := newTestVerifier(t, "")
	tokenString := signToken(t, "some-other-secret-32-characters!!!", Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := v.ValidateToken(tokenString); err == nil {
		t.Error("expected error for wrong signing secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	v := newTestVerifier(t, "")
	tokenString := signToken(t, testSecret, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	if _, err := v.ValidateToken(tokenString); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateToken_IssuerMismatch(t *testing.T) {
	v := newTestVerifier(t, "portfolio-cms")
	tokenString := signToken(t, testSecret, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := v.ValidateToken(tokenString); err == nil {
		t.Error("expected error for issuer mismatch")
	}
}

func TestValidateToken_RejectsUnsignedToken(t *testing.T) {
	v := newTestVerifier(t, "")
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	if _, err := v.ValidateToken(tokenString); err == nil {
		t.Error("expected error for alg=none token")
	}
}
