package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApiKey(t *testing.T) {
	ak, secret, err := NewApiKey(7, "ci pipeline")
	require.NoError(t, err)

	assert.Equal(t, uint(7), ak.UserID)
	assert.Equal(t, "ci pipeline", ak.Name)
	assert.True(t, ak.IsActive)
	assert.True(t, strings.HasPrefix(ak.Key, "pmk_"))
	assert.True(t, strings.HasPrefix(secret, "pms_"))

	// only the hash is stored
	assert.NotEqual(t, secret, ak.SecretHash)
	assert.Equal(t, HashAPISecret(secret), ak.SecretHash)
}

func TestApiKeyVerifySecret(t *testing.T) {
	ak, secret, err := NewApiKey(7, "test")
	require.NoError(t, err)

	assert.True(t, ak.VerifySecret(secret))
	assert.True(t, ak.VerifySecret(" "+secret+" "))
	assert.False(t, ak.VerifySecret("pms_wrong"))
	assert.False(t, ak.VerifySecret(""))
}

func TestApiKeyPairsAreUnique(t *testing.T) {
	a, secretA, err := NewApiKey(1, "a")
	require.NoError(t, err)
	b, secretB, err := NewApiKey(1, "b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
	assert.NotEqual(t, secretA, secretB)
}

func TestApiKeyMarkUsed(t *testing.T) {
	ak := &ApiKey{}
	assert.Nil(t, ak.LastUsedAt)

	ak.MarkUsed()
	assert.NotNil(t, ak.LastUsedAt)
}
