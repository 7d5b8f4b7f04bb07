package security

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Valid123")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "Valid123" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("got %q, want a bcrypt hash", hash)
	}

	if err := CheckPassword(hash, "Valid123"); err != nil {
		t.Fatalf("check with correct password: %v", err)
	}

	if err := CheckPassword(hash, "Wrong456"); err == nil {
		t.Fatal("check with wrong password should fail")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("Valid123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	h2, err := HashPassword("Valid123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ (salt)")
	}
}
