package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestJWTVerifier(t *testing.T) {
	const secret = "tokensupersecret"
	v := NewJWTVerifier(secret)

	valid := sign(t, secret, jwt.SigningMethodHS256, Claims{
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	expired := sign(t, secret, jwt.SigningMethodHS256, Claims{
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	wrongKey := sign(t, "other", jwt.SigningMethodHS256, Claims{
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	noExp := sign(t, secret, jwt.SigningMethodHS256, Claims{Username: "alice"})
	noUser := sign(t, secret, jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	wrongAlg := sign(t, secret, jwt.SigningMethodHS512, Claims{
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{"valid", valid, "alice", false},
		{"empty", "", "", true},
		{"garbage", "not.a.token", "", true},
		{"expired", expired, "", true},
		{"wrong key", wrongKey, "", true},
		{"missing exp", noExp, "", true},
		{"missing username", noUser, "", true},
		{"wrong algorithm", wrongAlg, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("username = %q, want %q", got, tt.want)
			}
		})
	}
}
