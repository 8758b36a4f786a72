package jwt

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signToken(t *testing.T, claims gojwt.MapClaims, key string) string {
	t.Helper()

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)

	return token
}

func TestParseToken_StringUID(t *testing.T) {
	p := New(secret)

	uid, err := p.ParseToken(signToken(t, gojwt.MapClaims{"uid": "user-42"}, secret))
	require.NoError(t, err)
	assert.Equal(t, "user-42", uid)
}

func TestParseToken_NumericUID(t *testing.T) {
	p := New(secret)

	uid, err := p.ParseToken(signToken(t, gojwt.MapClaims{"uid": 42}, secret))
	require.NoError(t, err)
	assert.Equal(t, "42", uid)
}

func TestParseToken_WrongSecret(t *testing.T) {
	p := New(secret)

	_, err := p.ParseToken(signToken(t, gojwt.MapClaims{"uid": "user-42"}, "other-secret"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_MissingUID(t *testing.T) {
	p := New(secret)

	_, err := p.ParseToken(signToken(t, gojwt.MapClaims{"sub": "user-42"}, secret))
	require.ErrorIs(t, err, ErrMissingUserIDClaim)
}

func TestParseToken_Garbage(t *testing.T) {
	p := New(secret)

	_, err := p.ParseToken("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
