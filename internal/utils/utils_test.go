package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "OWNER", 5)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(tok.Exp) <= 0 {
		t.Errorf("Exp = %v, want future", tok.Exp)
	}
	claims, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Errorf("UserID() = %d, %v", id, err)
	}
	if claims.Role != "OWNER" {
		t.Errorf("Role = %q", claims.Role)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("secret", 1, "VIEWER", 5)
	expired, _ := NewAccessToken("secret", 1, "VIEWER", -5)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	badSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc"}).SignedString([]byte("secret"))

	tests := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expired.Token},
		"alg none":     {"secret", none},
		"garbage":      {"secret", "not.a.jwt"},
		"non numeric":  {"secret", badSub},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); err != ErrInvalidToken {
				t.Errorf("error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewRefreshToken(7)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Errorf("raw tokens %q / %q", a.Raw, b.Raw)
	}
	h := HashRefreshRaw(a.Raw)
	if len(h) != 64 || h != HashRefreshRaw(a.Raw) || strings.Contains(h, a.Raw) {
		t.Errorf("HashRefreshRaw = %q", h)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Error("VerifyPassword rejected the right password")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Error("VerifyPassword accepted the wrong password")
	}
}
