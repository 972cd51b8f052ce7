package auth

import (
	"context"
	"errors"
	"testing"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Setenv("RENTLEDGER_AUTH_SECRET", "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	token, err := GenerateToken("0xowner")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "0xowner" {
		t.Fatalf("subject = %q, want 0xowner", claims.Subject)
	}
	if claims.Issuer != "rentledger" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Setenv("RENTLEDGER_AUTH_SECRET", "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := ParseAndValidate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Setenv("RENTLEDGER_AUTH_SECRET", "secret-one")
	ResetSecretForTests()
	token, err := GenerateToken("0xowner")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	t.Setenv("RENTLEDGER_AUTH_SECRET", "secret-two")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGenerateWithoutSecret(t *testing.T) {
	t.Setenv("RENTLEDGER_AUTH_SECRET", "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("0xowner"); err == nil {
		t.Fatalf("expected error when secret is unset")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := ContextWithUser(context.Background(), "0xtenant")
	got, ok := UserIDFromContext(ctx)
	if !ok || got != "0xtenant" {
		t.Fatalf("UserIDFromContext = %q, %v", got, ok)
	}
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatalf("expected no user on empty context")
	}
}
