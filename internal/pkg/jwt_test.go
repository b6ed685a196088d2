package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParsePair(t *testing.T) {
	pair, err := GeneratePair(42, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), pair.ExpiresIn)

	claims, err := ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, 1, claims.Role)

	rc, err := ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), rc.UserID)
	assert.Equal(t, pair.RefreshID, rc.ID)
	assert.Empty(t, claims.ID)

	other, err := GeneratePair(42, 1)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshID, other.RefreshID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	pair, err := GeneratePair(7, 0)
	require.NoError(t, err)

	_, err = ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestExpiredAccessToken(t *testing.T) {
	tok, err := sign(1, 0, subjectAccess, "", time.Minute, accessSecret, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseAccess(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestGarbageToken(t *testing.T) {
	_, err := ParseAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
