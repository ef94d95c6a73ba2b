package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("hash = %q, want argon2id encoding", hash)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical, salt missing")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$t=3,m=65536,p=2$only-four-parts",
		"$bcrypt$v=19$t=3,m=65536,p=2$c2FsdA==$aGFzaA==",
	} {
		if _, err := VerifyPassword("anything", encoded); err == nil {
			t.Errorf("VerifyPassword(%q) accepted a malformed hash", encoded)
		}
	}
}

func TestSecretMatches(t *testing.T) {
	t.Parallel()

	if !SecretMatches("letmein", "letmein") {
		t.Error("matching secret rejected")
	}
	if SecretMatches("guess", "letmein") {
		t.Error("wrong secret accepted")
	}
	// An unset secret must close the registration path entirely.
	if SecretMatches("", "") {
		t.Error("empty configured secret accepted")
	}
}

func TestSecretFingerprint(t *testing.T) {
	t.Parallel()

	fp := SecretFingerprint("letmein")
	if len(fp) != 16 {
		t.Errorf("fingerprint length = %d, want 16 hex chars", len(fp))
	}
	if fp == "letmein" {
		t.Error("fingerprint leaked the secret")
	}
	if fp != SecretFingerprint("letmein") {
		t.Error("fingerprint not deterministic")
	}
}
