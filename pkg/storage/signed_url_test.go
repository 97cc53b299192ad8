package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "weekly/file.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", claims.JobID)
	assert.Equal(t, "weekly/file.csv", claims.Path)
	assert.True(t, expiresAt.Equal(claims.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("job-1", "file.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	claims, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "file.pdf", claims.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "file.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Parse(token, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("job-2"+token[len("job-1"):], false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("not-a-token", false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Generate("a.b", "file.csv")
	assert.Error(t, err)
	_, _, err = NewSignedURLSigner("", time.Hour).Generate("job", "file.csv")
	assert.Error(t, err)
}
