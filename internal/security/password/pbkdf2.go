// Package password implements the PBKDF2 password hasher used by the
// password authenticator. Salt and derived key are stored base64-encoded.
package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Fixed KDF parameters. Not configurable per call: changing either value
// invalidates every previously stored hash and requires a credential
// migration, so treat them as part of the storage format.
const (
	iterations = 100_000
	keyLen     = 64 // 512-bit derived key
	saltLen    = 32
)

// CreateSalt returns a fresh random salt, base64-encoded for storage.
func CreateSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Hash derives a key from the password and base64-encoded salt.
// The result is base64-encoded for storage.
func Hash(plain, saltB64 string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return "", fmt.Errorf("bad salt: %w", err)
	}
	dk := pbkdf2.Key([]byte(plain), salt, iterations, keyLen, sha512.New)
	return base64.StdEncoding.EncodeToString(dk), nil
}

// Verify recomputes the derived key and compares it byte-for-byte in
// constant time against the stored hash.
func Verify(plain, saltB64, expectedB64 string) bool {
	computed, err := Hash(plain, saltB64)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expectedB64)) == 1
}
