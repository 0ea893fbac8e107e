package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateFast(t *testing.T) {
	require.Equal(t, 0, EstimateFast("   "))
	require.Equal(t, 1, EstimateFast("hi"))

	// Word count dominates for short words.
	require.Equal(t, 4, EstimateFast("a b c d"))

	// Rune count / 4 dominates for long runs.
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	require.Equal(t, 100, EstimateFast(string(long)))
}

func TestCountIsPositiveForText(t *testing.T) {
	require.Greater(t, Count("estimate how many tokens this sentence needs"), 0)
}
