package crypto

import (
	"context"
	"testing"
	"time"

	"gitlab.com/code-engine.net/internal/config"
)

func newService(secret string) *TokenServiceImpl {
	return &TokenServiceImpl{HMACSecretKey: secret}
}

func TestGenerateAndVerifyTokenHMAC(t *testing.T) {
	svc := NewTokenService(&config.JwtConfig{Secret: "test-secret"})

	token, err := svc.GenerateTokenHMAC(context.Background(), "HS256", map[string]interface{}{
		"sub": "code-engine",
	})
	if err != nil {
		t.Fatalf("GenerateTokenHMAC returned error: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateTokenHMAC returned an empty token")
	}

	ok, err := svc.VerifyTokenHMAC(context.Background(), token, "HS256")
	if err != nil {
		t.Fatalf("VerifyTokenHMAC returned error: %v", err)
	}
	if !ok {
		t.Fatal("a freshly issued token failed verification")
	}
}

func TestVerifyTokenHMACRejectsWrongSecret(t *testing.T) {
	issuer := newService("secret-a")
	verifier := newService("secret-b")

	token, err := issuer.GenerateTokenHMAC(context.Background(), "HS256", map[string]interface{}{
		"sub": "code-engine",
	})
	if err != nil {
		t.Fatalf("GenerateTokenHMAC returned error: %v", err)
	}

	ok, err := verifier.VerifyTokenHMAC(context.Background(), token, "HS256")
	if err == nil {
		t.Fatal("expected verification error for a token signed with a different secret")
	}
	if ok {
		t.Fatal("token signed with a different secret verified as valid")
	}
}

func TestVerifyTokenHMACRejectsExpiredToken(t *testing.T) {
	svc := newService("test-secret")

	token, err := svc.GenerateTokenHMAC(context.Background(), "HS256", map[string]interface{}{
		"sub": "code-engine",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("GenerateTokenHMAC returned error: %v", err)
	}

	ok, err := svc.VerifyTokenHMAC(context.Background(), token, "HS256")
	if err == nil {
		t.Fatal("expected verification error for an expired token")
	}
	if ok {
		t.Fatal("expired token verified as valid")
	}
}

func TestGenerateTokenHMACUnsupportedMethod(t *testing.T) {
	svc := newService("test-secret")

	if _, err := svc.GenerateTokenHMAC(context.Background(), "HS999", nil); err == nil {
		t.Fatal("expected error for an unknown signing method")
	}
}

func TestAPIKeyHashRoundTrip(t *testing.T) {
	svc := newService("")

	hash, err := svc.HashAPIKey(context.Background(), "super-secret-key")
	if err != nil {
		t.Fatalf("HashAPIKey returned error: %v", err)
	}

	ok, err := svc.VerifyAPIKey(context.Background(), hash, "super-secret-key")
	if err != nil {
		t.Fatalf("VerifyAPIKey returned error: %v", err)
	}
	if !ok {
		t.Fatal("the original key failed verification against its own hash")
	}

	ok, _ = svc.VerifyAPIKey(context.Background(), hash, "wrong-key")
	if ok {
		t.Fatal("a wrong key verified against the hash")
	}
}
