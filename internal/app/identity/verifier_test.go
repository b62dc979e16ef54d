package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
)

func TestVerifyChecksPerAccountSecret(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(bcrypt.MinCost)
	if err := v.Register("user1", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := v.Register("user2", "other"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := v.Verify(ctx, "user1", "password123"); err != nil {
		t.Fatalf("valid secret rejected: %v", err)
	}
	if err := v.Verify(ctx, "user2", "password123"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("secret of another account accepted: %v", err)
	}
	if err := v.Verify(ctx, "user1", "wrong"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if err := v.Verify(ctx, "nobody", "password123"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown account, got %v", err)
	}
}

func TestRegisterRequiresAccountID(t *testing.T) {
	v := NewVerifier(bcrypt.MinCost)
	if err := v.Register("", "x"); !errors.Is(err, domain.ErrInvalidAccountID) {
		t.Fatalf("expected ErrInvalidAccountID, got %v", err)
	}
}

func TestPrepareRejectsInvalidSecret(t *testing.T) {
	v := NewVerifier(bcrypt.MinCost)
	for name, secret := range map[string]string{
		"empty":    "",
		"blank":    "   ",
		"too long": strings.Repeat("s", 73),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Prepare(secret); !errors.Is(err, domain.ErrInvalidSecret) {
				t.Fatalf("expected ErrInvalidSecret, got %v", err)
			}
		})
	}
}

func TestPrepareDoesNotEnroll(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(bcrypt.MinCost)
	cred, err := v.Prepare("password123")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := v.Verify(ctx, "user1", "password123"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("secret usable before enroll: %v", err)
	}
	if err := v.Enroll("user1", cred); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := v.Verify(ctx, "user1", "password123"); err != nil {
		t.Fatalf("valid secret rejected after enroll: %v", err)
	}
	if err := v.Enroll("user2", Credential{}); !errors.Is(err, domain.ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret for zero credential, got %v", err)
	}
}
