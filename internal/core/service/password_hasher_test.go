package service

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/webgate/authportal/internal/core/domain"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, pw := range []string{"pw123", "", "correct horse battery staple", "ünïcødé"} {
		digest, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q): %v", pw, err)
		}
		if digest == pw {
			t.Fatalf("digest equals plaintext")
		}
		if !h.Verify(pw, digest) {
			t.Fatalf("Verify(%q) = false, want true", pw)
		}
		if h.Verify(pw+"x", digest) {
			t.Fatalf("Verify accepted a different password")
		}
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	h := NewBcryptHasher(0)
	digest, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Fatalf("expected cost %d, got %d", DefaultBcryptCost, cost)
	}
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	if h.Verify("pw", "not-a-bcrypt-hash") {
		t.Fatalf("malformed digest must not verify")
	}
	if h.Verify("pw", "") {
		t.Fatalf("empty digest must not verify")
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("a", 100)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for password longer than 72 bytes, got %v", err)
	}
}
