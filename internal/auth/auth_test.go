package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestMakeAndParseToken(t *testing.T) {
	raw, err := MakeToken("acct-1", secret)
	require.NoError(t, err)

	c, err := ParseToken(raw, secret)

	require.NoError(t, err)
	assert.Equal(t, "acct-1", c.UserID)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), c.ExpiresAt.Time, 5*time.Second)
}

func TestParseTokenWrongSecret(t *testing.T) {
	raw, err := MakeToken("acct-1", secret)
	require.NoError(t, err)

	_, err = ParseToken(raw, "other-secret")

	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	raw, err := MakeTokenTTL("acct-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(raw, secret)

	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseTokenRejectsNoneAlg(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "acct-1"})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(raw, secret)

	assert.Error(t, err)
}

func TestMakeTokenNeedsAccount(t *testing.T) {
	_, err := MakeToken("", secret)

	assert.Error(t, err)
}
