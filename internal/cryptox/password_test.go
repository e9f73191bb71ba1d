package cryptox

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userA = uuid.MustParse("617867E5-1B5F-45F4-8BDC-96A9109C3A27")
	userB = uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
)

func TestHash_Snapshot(t *testing.T) {
	h := NewPasswordHasher()

	assert.Equal(t, "qTjkh1kr+kUo+KpHyIV08Joxo53HKu+AC2n1WYNCtQU=", h.Hash(userA, "Secret#123"))
	assert.Equal(t, "E3MV3NFHAnQQakI6OAz1iEJTemF1MgR9F+lcmGuRsNQ=", h.Hash(userB, "pässwörd"))
}

func TestHashBytes_MatchesHashAndKeepsBuffer(t *testing.T) {
	h := NewPasswordHasher()
	buf := []byte("Secret#123")

	assert.Equal(t, "qTjkh1kr+kUo+KpHyIV08Joxo53HKu+AC2n1WYNCtQU=", h.HashBytes(userA, buf))
	assert.Equal(t, []byte("Secret#123"), buf)
}

func TestHash_Deterministic(t *testing.T) {
	h := NewPasswordHasher()

	d1 := h.Hash(userA, "correct horse")
	d2 := h.Hash(userA, "correct horse")
	assert.Equal(t, d1, d2)

	raw, err := base64.StdEncoding.DecodeString(d1)
	require.NoError(t, err)
	assert.Len(t, raw, PasswordParamsV1.KeyLength)
}

func TestHash_DifferentUsersDifferentDigests(t *testing.T) {
	h := NewPasswordHasher()
	assert.NotEqual(t, h.Hash(userA, "same"), h.Hash(userB, "same"))
}

func TestVerify(t *testing.T) {
	h := NewPasswordHasher()
	const password = "Secret#123"
	digest := h.Hash(userA, password)

	raw, err := base64.StdEncoding.DecodeString(digest)
	require.NoError(t, err)
	raw[0] ^= 0xff
	corrupted := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name     string
		password string
		digest   string
		user     uuid.UUID
		want     bool
	}{
		{"match", password, digest, userA, true},
		{"last char changed", "Secret#124", digest, userA, false},
		{"first char changed", "secret#123", digest, userA, false},
		{"char appended", password + "!", digest, userA, false},
		{"char removed", "Secret#12", digest, userA, false},
		{"other user's salt", password, digest, userB, false},
		{"corrupted digest", password, corrupted, userA, false},
		{"truncated digest", password, digest[:len(digest)-4], userA, false},
		{"not base64", password, "!!not-base64!!", userA, false},
		{"empty digest", password, "", userA, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Verify(tt.password, tt.digest, tt.user))
		})
	}
}

func TestVerifyAsync(t *testing.T) {
	h := NewPasswordHasher()
	digest := h.Hash(userB, "pw")

	ok, err := h.VerifyAsync(context.Background(), "pw", digest, userB)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyAsync(context.Background(), "px", digest, userB)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAsync_CancelledContext(t *testing.T) {
	h := NewPasswordHasher()
	digest := h.Hash(userB, "pw")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := h.VerifyAsync(ctx, "pw", digest, userB)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
