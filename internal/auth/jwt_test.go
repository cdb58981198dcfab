package auth

import (
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken(secret, "u-42", 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseToken(secret, tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "u-42" {
		t.Errorf("user id = %q", claims.UserID)
	}
}

func TestTokenRejections(t *testing.T) {
	tok, err := GenerateToken(secret, "u-42", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(secret, tok); err == nil {
		t.Error("expired token accepted")
	}

	tok, _ = GenerateToken(secret, "u-42", 15*time.Minute)
	if _, err := ParseToken("another-secret-another-secret-ab", tok); err == nil {
		t.Error("wrong secret accepted")
	}
	if _, err := ParseToken(secret, "not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
}
