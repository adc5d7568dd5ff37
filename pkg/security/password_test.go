package security_test

import (
	"strings"
	"testing"

	"github.com/sweetfrozen/storefront/pkg/config"
	"github.com/sweetfrozen/storefront/pkg/security"
)

var testParams = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("demo123", testParams)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyPassword("demo123", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = security.VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for mismatch: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch to fail verification")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", testParams); err == nil {
		t.Fatal("expected empty password to fail")
	}
}

func TestVerifyPasswordInvalidHash(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"} {
		if _, err := security.VerifyPassword("demo123", encoded); err != security.ErrInvalidHash {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}

func TestStrongEnough(t *testing.T) {
	if security.StrongEnough("12345") {
		t.Fatal("5 characters should be too short")
	}
	if !security.StrongEnough("123456") {
		t.Fatal("6 characters should be accepted")
	}
}

func TestValidEmail(t *testing.T) {
	for _, email := range []string{"somchai@email.com", "a.b@c.co"} {
		if !security.ValidEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}
	for _, email := range []string{
		"", "plain", "a@b", "a b@c.com", "@c.com",
		"a..b@c.d", "a@b..c", "a@-b.c", ".a@b.c",
	} {
		if security.ValidEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
	if got := security.NormalizeEmail("  Malee@Email.COM "); got != "malee@email.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
