package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := MintToken("secret", 42, time.Hour)
	require.NoError(t, err)

	userID, err := parseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := MintToken("secret", 42, time.Hour)
	require.NoError(t, err)

	_, err = parseToken("other", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := MintToken("secret", 42, -time.Minute)
	require.NoError(t, err)

	_, err = parseToken("secret", token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := parseToken("secret", "not-a-token")
	assert.Error(t, err)
}
