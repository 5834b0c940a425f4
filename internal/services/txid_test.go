package services

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTransactionID_Format(t *testing.T) {
	id := NextTransactionID()

	assert.Equal(t, strings.ToUpper(id), id, "must be uppercase")

	ms, err := strconv.ParseInt(strings.ToLower(id), 36, 64)
	require.NoError(t, err)
	assert.Greater(t, ms, int64(0))
}

func TestNextTransactionID_StrictlyIncreasing(t *testing.T) {
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := NextTransactionID()
		ms, err := strconv.ParseInt(strings.ToLower(id), 36, 64)
		require.NoError(t, err)
		assert.Greater(t, ms, prev)
		prev = ms
	}
}

func TestNextTransactionID_ConcurrentUnique(t *testing.T) {
	const n = 200
	ids := make(chan string, n)

	for i := 0; i < n; i++ {
		go func() {
			ids <- NextTransactionID()
		}()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := <-ids
		assert.False(t, seen[id], "duplicate transaction id: %s", id)
		seen[id] = true
	}
}
