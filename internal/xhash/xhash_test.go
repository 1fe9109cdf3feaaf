package xhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashUint64Deterministic(t *testing.T) {
	t.Parallel()

	require.Equal(t, HashUint64(42), HashUint64(42))
	require.NotEqual(t, HashUint64(42), HashUint64(43))
}

func TestHashStringDeterministic(t *testing.T) {
	t.Parallel()

	require.Equal(t, HashString("abc"), HashString("abc"))
	require.NotEqual(t, HashString("abc"), HashString("abcd"))
}
