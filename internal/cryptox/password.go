// Package cryptox implements password hashing for stored user records.
//
// A digest is PBKDF2-HMAC-SHA512 over the UTF-8 password, salted with the
// 16 bytes of the user's UUID (RFC 4122 byte order), 150 000 iterations,
// 32-byte output, encoded as standard base64. The parameter set is part of
// the stored format: changing it invalidates every existing digest, so a new
// set must get a new version instead of editing PasswordParamsV1.
//
// Salts come from user ids, so they are unique only as long as ids are.
// They are not secret.
package cryptox

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"hash"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// PasswordParams fixes the derivation inputs that are not per-user.
type PasswordParams struct {
	Version    int
	Iterations int
	KeyLength  int
	Hash       func() hash.Hash
}

// PasswordParamsV1 is the only parameter set in use.
var PasswordParamsV1 = PasswordParams{
	Version:    1,
	Iterations: 150000,
	KeyLength:  32,
	Hash:       sha512.New,
}

// PasswordHasher derives and checks password digests. The zero value is not
// usable; build it with NewPasswordHasher.
type PasswordHasher struct {
	params PasswordParams
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{params: PasswordParamsV1}
}

func (h *PasswordHasher) derive(userID uuid.UUID, plaintext []byte) []byte {
	return pbkdf2.Key(plaintext, userID[:], h.params.Iterations, h.params.KeyLength, h.params.Hash)
}

// Hash returns the base64 digest of plaintext salted with userID.
// It is deterministic for a given (userID, plaintext) pair.
func (h *PasswordHasher) Hash(userID uuid.UUID, plaintext string) string {
	return h.HashBytes(userID, []byte(plaintext))
}

// HashBytes is Hash for a password held in a caller-owned buffer, which the
// caller may zero afterwards. It neither retains nor modifies plaintext.
func (h *PasswordHasher) HashBytes(userID uuid.UUID, plaintext []byte) string {
	return base64.StdEncoding.EncodeToString(h.derive(userID, plaintext))
}

// Verify reports whether plaintext matches storedDigest for userID.
// The comparison runs in constant time; a digest that is not valid base64
// never matches.
func (h *PasswordHasher) Verify(plaintext, storedDigest string, userID uuid.UUID) bool {
	stored, err := base64.StdEncoding.DecodeString(storedDigest)
	if err != nil {
		return false
	}
	candidate := h.derive(userID, []byte(plaintext))
	return subtle.ConstantTimeCompare(candidate, stored) == 1
}

// VerifyAsync runs Verify on its own goroutine so the caller can give up
// when ctx ends. A cancelled wait reports false together with ctx.Err().
func (h *PasswordHasher) VerifyAsync(ctx context.Context, plaintext, storedDigest string, userID uuid.UUID) (bool, error) {
	done := make(chan bool, 1)
	go func() {
		done <- h.Verify(plaintext, storedDigest, userID)
	}()

	select {
	case ok := <-done:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
