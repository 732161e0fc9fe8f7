package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_CheckPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("kitchen-open")
	require.NoError(t, err)
	assert.NotEqual(t, "kitchen-open", h)

	assert.True(t, CheckPassword(h, "kitchen-open"))
	assert.False(t, CheckPassword(h, "kitchen-closed"))
	assert.False(t, CheckPassword("not-a-hash", "kitchen-open"))
}
