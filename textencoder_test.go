package zopfli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextEncoder(t *testing.T) {
	src := []byte("abcabcX")
	matches := []Match{{Unmatched: 3, Length: 3, Distance: 3}}
	require.Equal(t, "abc<3,3>X", string(TextEncoder{}.Encode(nil, src, matches, false)))
	require.Equal(t, "abc<3,3>X\n", string(TextEncoder{BlockSeparator: "\n"}.Encode(nil, src, matches, true)))
	require.Equal(t, "abcabcX", string(TextEncoder{}.Encode(nil, src, nil, true)))
}
