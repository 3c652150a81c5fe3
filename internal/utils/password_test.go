package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("stored credential must never equal the plaintext")
	}
	if !VerifyPassword(hash, "secret123") {
		t.Fatal("correct password must verify")
	}
	if VerifyPassword(hash, "secret124") {
		t.Fatal("wrong password must not verify")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"The Forest Hiker", "the-forest-hiker"},
		{"  Sea   &   Sun!  ", "sea-sun"},
		{"Été 2026 Tour", "t-2026-tour"},
		{"already-slugged", "already-slugged"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
