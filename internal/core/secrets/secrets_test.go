package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPassword_Length(t *testing.T) {
	for _, length := range []int{1, 4, 24, 64} {
		pw, err := Password(length)
		require.NoError(t, err)
		assert.Len(t, pw, length)
	}
}

func TestPassword_InvalidLength(t *testing.T) {
	_, err := Password(0)
	assert.ErrorIs(t, err, ErrInvalidLength)
	_, err = Password(-5)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestPassword_ContainsAllClasses(t *testing.T) {
	for i := 0; i < 20; i++ {
		pw, err := Password(12)
		require.NoError(t, err)
		assert.True(t, strings.ContainsAny(pw, upperChars), pw)
		assert.True(t, strings.ContainsAny(pw, lowerChars), pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), pw)
		assert.True(t, strings.ContainsAny(pw, specialChars), pw)
	}
}

func TestPassword_NoInterpolationHazard(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := Password(32)
		require.NoError(t, err)
		assert.NotContains(t, pw, "$")
	}
}

func TestPassword_Unique(t *testing.T) {
	a, err := Password(24)
	require.NoError(t, err)
	b, err := Password(24)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAPIKey(t *testing.T) {
	key, err := APIKey(64)
	require.NoError(t, err)
	assert.Len(t, key, 64)
	assert.NotContains(t, key, "+")
	assert.NotContains(t, key, "/")
	assert.NotContains(t, key, "=")
}

func TestToken(t *testing.T) {
	token, err := Token()
	require.NoError(t, err)
	assert.Len(t, token, 48)
}

func TestHexID(t *testing.T) {
	id, err := HexID()
	require.NoError(t, err)
	assert.Len(t, id, 32)
	assert.Regexp(t, "^[0-9a-f]+$", id)
}

func TestGenerate_Kinds(t *testing.T) {
	pw, err := Generate("password")
	require.NoError(t, err)
	assert.Len(t, pw, 32)

	key, err := Generate("api_key")
	require.NoError(t, err)
	assert.Len(t, key, 64)

	_, err = Generate("token")
	require.NoError(t, err)

	_, err = Generate("hex")
	require.NoError(t, err)
}

func TestGenerate_UnknownKind(t *testing.T) {
	_, err := Generate("uuid")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestHtpasswdEntry(t *testing.T) {
	entry, err := HtpasswdEntry("admin", "hunter2")
	require.NoError(t, err)

	user, hash, found := strings.Cut(entry, ":")
	require.True(t, found)
	assert.Equal(t, "admin", user)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
}
