package setup

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", 0)

	signed, err := tokens.Generate("client-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	clientID, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if clientID != "client-123" {
		t.Errorf("client id = %q, want client-123", clientID)
	}
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Hour)

	signed, err := tokens.Generate("client-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := tokens.Verify(signed); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	signed, err := NewTokens("secret-a", 0).Generate("client-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewTokens("secret-b", 0).Verify(signed); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	tokens := NewTokens("test-secret", 0)
	if _, err := tokens.Verify("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
