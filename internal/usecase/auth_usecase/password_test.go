package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptPasswordHasher(t *testing.T) {
	h := NewBcryptPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("pw1")
	require.NoError(t, err)
	b, err := h.Hash("pw1")
	require.NoError(t, err)

	// saltが違うので毎回別のハッシュ
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "pw1")

	v := NewBcryptPasswordVerifier()
	assert.True(t, v.Verify("pw1", a))
	assert.True(t, v.Verify("pw1", b))
	assert.False(t, v.Verify("pw2", a))
}

func TestBcryptPasswordHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewBcryptPasswordHasher(99)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}

func TestBcryptPasswordVerifier_EmptyHash(t *testing.T) {
	v := NewBcryptPasswordVerifier()
	assert.False(t, v.Verify("anything", ""))
	assert.False(t, v.Verify("", ""))
}
