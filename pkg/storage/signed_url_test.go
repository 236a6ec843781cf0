package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("material:m-1", "materials/notes.pdf")
	require.NoError(t, err)
	assert.NotContains(t, token, "materials/")

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "material:m-1", claims.Subject)
	assert.Equal(t, "materials/notes.pdf", claims.Path)
	assert.True(t, expiresAt.Equal(claims.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	token, _, err := signer.Generate("user-1", "users/user-1/cv.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("user-1", "users/user-1/cv.pdf")
	require.NoError(t, err)

	forged, _, err := NewSignedURLSigner("other", time.Hour).Generate("user-1", "users/user-2/cv.pdf")
	require.NoError(t, err)
	payload, _, _ := strings.Cut(forged, ".")
	_, sig, _ := strings.Cut(token, ".")

	for name, candidate := range map[string]string{
		"foreign secret":   forged,
		"swapped payload":  payload + "." + sig,
		"missing mac":      payload,
		"garbage encoding": "!!!.???",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := signer.Verify(candidate)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Generate("user-1", "users/user-1/cv.pdf")
	assert.Error(t, err)
}
