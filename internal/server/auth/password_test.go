package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashCompare(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "pw123456")

	ok, err := h.Compare(hash, "pw123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "pw1234567")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_CostClamped(t *testing.T) {
	h, err := NewPasswordHasher(1)
	require.NoError(t, err)

	hash, err := h.Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := h.Compare([]byte("not-a-hash"), "pw")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	require.Error(t, err)
}

func TestPasswordHasher_CompareDummy(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotPanics(t, func() { h.CompareDummy("anything") })
}
