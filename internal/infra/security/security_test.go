//go:build !integration

package security

import (
	"errors"
	"testing"
	"time"

	"ai-interview-engine/internal/domain"
)

func TestEncryptionService(t *testing.T) {
	svc, err := NewEncryptionService("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewEncryptionService failed: %v", err)
	}

	t.Run("should reject keys of invalid length", func(t *testing.T) {
		if _, err := NewEncryptionService("short"); err == nil {
			t.Fatal("expected error for a 5-byte key")
		}
	})

	t.Run("should open what it sealed with the same aad", func(t *testing.T) {
		sealed, err := svc.Seal([]byte(`{"email":"a@b.c"}`), []byte("cred-1"))
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		got, err := svc.Open(sealed, []byte("cred-1"))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if string(got) != `{"email":"a@b.c"}` {
			t.Errorf("unexpected plaintext %q", got)
		}
	})

	t.Run("should refuse to open with a different aad", func(t *testing.T) {
		sealed, _ := svc.Seal([]byte("payload"), []byte("cred-1"))
		if _, err := svc.Open(sealed, []byte("cred-2")); err == nil {
			t.Fatal("expected authentication failure")
		}
	})

	t.Run("should use a fresh nonce per message", func(t *testing.T) {
		a, _ := svc.Encrypt("same")
		b, _ := svc.Encrypt("same")
		if a == b {
			t.Error("two encryptions of the same text must differ")
		}
	})

	t.Run("should report short ciphertext", func(t *testing.T) {
		if _, err := svc.Decrypt("AAAA"); !errors.Is(err, ErrCiphertextTooShort) {
			t.Errorf("expected ErrCiphertextTooShort, got %v", err)
		}
	})
}

func TestTokenSigner(t *testing.T) {
	signer, err := NewTokenSigner("a-very-long-secret-used-in-tests-only")
	if err != nil {
		t.Fatalf("NewTokenSigner failed: %v", err)
	}

	t.Run("should round-trip credential and invitation ids", func(t *testing.T) {
		tok, err := signer.Mint("cred-1", "inv-1", time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
		claims, err := signer.Parse(tok)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if claims.Subject != "cred-1" || claims.InvitationID != "inv-1" {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("should reject expired tokens", func(t *testing.T) {
		tok, _ := signer.Mint("cred-1", "inv-1", time.Now().Add(-time.Minute))
		if _, err := signer.Parse(tok); !errors.Is(err, domain.ErrCredentialInvalid) {
			t.Errorf("expected ErrCredentialInvalid, got %v", err)
		}
	})

	t.Run("should reject tokens signed with another secret", func(t *testing.T) {
		other, _ := NewTokenSigner("another-secret-that-is-long-enough")
		tok, _ := other.Mint("cred-1", "inv-1", time.Now().Add(time.Hour))
		if _, err := signer.Parse(tok); !errors.Is(err, domain.ErrCredentialInvalid) {
			t.Errorf("expected ErrCredentialInvalid, got %v", err)
		}
	})
}
