// Package shared provides helpers for handling secret material.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// APIKeyBytes is the entropy of a generated API key. Hex encoding doubles
// it, which matches the 64 character limit of clients.api_key.
const APIKeyBytes = 32

// NewAPIKey returns a random hex encoded key of APIKeyBytes bytes.
func NewAPIKey() (string, error) {
	b := make([]byte, APIKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Wipe zeroes b in place. A nil slice is a no-op.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
