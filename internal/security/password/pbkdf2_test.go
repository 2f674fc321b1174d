package password

import (
	"encoding/base64"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	salt, err := CreateSalt()
	if err != nil {
		t.Fatalf("CreateSalt err: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		t.Fatalf("salt is not base64: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("salt length = %d, want 32", len(raw))
	}

	h, err := Hash("s3cret-password", salt)
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	dk, err := base64.StdEncoding.DecodeString(h)
	if err != nil {
		t.Fatalf("hash is not base64: %v", err)
	}
	if len(dk) != 64 {
		t.Fatalf("derived key length = %d, want 64", len(dk))
	}

	if !Verify("s3cret-password", salt, h) {
		t.Fatal("Verify should accept the original password")
	}
	if Verify("wrong-password", salt, h) {
		t.Fatal("Verify should reject a wrong password")
	}
}

func TestVerify_DifferentSalt(t *testing.T) {
	t.Parallel()

	s1, _ := CreateSalt()
	s2, _ := CreateSalt()
	if s1 == s2 {
		t.Fatal("two fresh salts should differ")
	}
	h1, err := Hash("same-password", s1)
	if err != nil {
		t.Fatal(err)
	}
	if Verify("same-password", s2, h1) {
		t.Fatal("hash under a different salt must not verify")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	t.Parallel()

	salt, _ := CreateSalt()
	if _, err := Hash("", salt); err == nil {
		t.Fatal("empty password must be rejected")
	}
}

func TestVerify_BadStoredSalt(t *testing.T) {
	t.Parallel()

	if Verify("pw", "%%%not-base64%%%", "whatever") {
		t.Fatal("corrupt salt must not verify")
	}
}
