// Package token issues opaque random tokens for public links and refresh sessions.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// MinBytes is the smallest accepted entropy, 128 bits.
const MinBytes = 16

// Generate returns a URL-safe token built from n random bytes. Values below
// MinBytes are raised to MinBytes.
func Generate(n int) (string, error) {
	if n < MinBytes {
		n = MinBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Digest returns the hex SHA-256 of a token, used when only a lookup key must be stored.
func Digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
