package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndMatch(t *testing.T) {
	Cost = bcrypt.MinCost

	hash, err := Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, Matches(hash, "password123"))
	assert.False(t, Matches(hash, "password124"))
	assert.False(t, Matches("", ""))
	assert.False(t, Matches("not-a-hash", "password123"))
}
