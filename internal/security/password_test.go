package security_test

import (
	"testing"

	"github.com/geocoder89/microblog/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := security.Hasher{Cost: bcrypt.MinCost}

	tests := []struct {
		name  string
		plain string
	}{
		{name: "regular", plain: "password1"},
		{name: "empty", plain: ""},
		{name: "unicode", plain: "pässwörd✓"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.plain)
			if err != nil {
				t.Fatalf("hash: %v", err)
			}

			if hash == "" || hash == tt.plain {
				t.Fatalf("hash must be non-empty and differ from plaintext, got %q", hash)
			}

			if err := h.Check(hash, tt.plain); err != nil {
				t.Fatalf("check with original plaintext failed: %v", err)
			}

			if err := h.Check(hash, tt.plain+"x"); err == nil {
				t.Fatalf("check with a different plaintext should fail")
			}
		})
	}
}

func TestHasher_SaltedDigests(t *testing.T) {
	h := security.Hasher{Cost: bcrypt.MinCost}

	a, err := h.Hash("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	b, err := h.Hash("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if a == b {
		t.Fatalf("two hashes of the same password should differ (salt)")
	}
}

func TestPackageHelpers_DefaultCost(t *testing.T) {
	hash, err := security.HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}

	if cost != bcrypt.DefaultCost {
		t.Fatalf("got cost %d, want %d", cost, bcrypt.DefaultCost)
	}

	if err := security.CheckPassword(hash, "secret-pass"); err != nil {
		t.Fatalf("check: %v", err)
	}
}
