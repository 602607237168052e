package auth_test

import (
	"testing"

	"github.com/stocklist-app/stocklist/internal/auth"
)

func TestHashProducesDistinctOutputs(t *testing.T) {
	t.Parallel()

	hasher := auth.NewPasswordHasher()

	first, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected embedded salt to vary output, got identical hashes")
	}
	if first == "secret1" {
		t.Fatalf("hash must not equal plaintext")
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	hasher := auth.NewPasswordHasher()
	hash, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !hasher.Verify("secret1", hash) {
		t.Fatalf("expected correct password to verify")
	}
	if hasher.Verify("wrongpass", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestVerifyMalformedHashFailsClosed(t *testing.T) {
	t.Parallel()

	hasher := auth.NewPasswordHasher()
	if hasher.Verify("secret1", "not-a-bcrypt-hash") {
		t.Fatalf("expected malformed stored hash to verify as false")
	}
	if hasher.Verify("secret1", "") {
		t.Fatalf("expected empty stored hash to verify as false")
	}
}
