package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pw", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pw", hash)
	assert.True(t, VerifyPassword(hash, "s3cret-pw"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestGenerateTempPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GenerateTempPassword()
		require.NoError(t, err)
		assert.Len(t, pw, 8)
		for _, r := range pw {
			assert.True(t, strings.ContainsRune(tempPasswordChars, r), "unexpected character %q", r)
		}
		seen[pw] = true
	}
	// 20 draws from a 62^8 space colliding would mean a broken source.
	assert.Greater(t, len(seen), 1)
}
