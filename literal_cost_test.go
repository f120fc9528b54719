package zopfli

import (
	"bytes"
	"testing"

	"github.com/andybalholm/zopfli/internal/corpus"
	"github.com/stretchr/testify/require"
)

func TestFastLog2(t *testing.T) {
	require.Zero(t, fastLog2(0))
	require.Zero(t, fastLog2(1))
	require.Equal(t, 3.0, fastLog2(8))
}

func TestIsMostlyUTF8(t *testing.T) {
	require.True(t, isMostlyUTF8(corpus.Text(10000, 13), minUTF8Ratio))
	require.True(t, isMostlyUTF8(bytes.Repeat([]byte("naïve café "), 100), minUTF8Ratio))
	require.False(t, isMostlyUTF8(corpus.Random(10000, 14), minUTF8Ratio))
	require.False(t, isMostlyUTF8(nil, minUTF8Ratio))
}

func TestParseAsUTF8(t *testing.T) {
	for _, c := range []struct {
		in     string
		symbol int
		size   int
	}{
		{"a", 'a', 1},
		{"\x00", 0x110000, 1},
		{"é", 0xE9, 2},
		{"\xC1\xBF", 0x1100C1, 1},
		{"€", 0x20AC, 3},
		{"\xED\xA0\x80", 0xD800, 3},
		{"𝄞", 0x1D11E, 4},
		{"\xF4\x90\x80\x80", 0x1100F4, 1},
		{"\xE2\x82", 0x1100E2, 1},
	} {
		symbol, size := parseAsUTF8([]byte(c.in))
		require.Equal(t, c.symbol, symbol, "%q", c.in)
		require.Equal(t, c.size, size, "%q", c.in)
	}

	// Surrogates count as UTF-8, and zero bytes don't.
	require.True(t, isMostlyUTF8(bytes.Repeat([]byte("\xED\xA0\x80"), 100), minUTF8Ratio))
	require.False(t, isMostlyUTF8(make([]byte, 100), minUTF8Ratio))
}

func averageLiteralCost(t *testing.T, data []byte) float64 {
	t.Helper()
	cost := make([]float32, len(data))
	estimateBitCostsForLiterals(data, cost)
	sum := 0.0
	for i, c := range cost {
		require.Greater(t, c, float32(0), "cost of byte %d", i)
		sum += float64(c)
	}
	return sum / float64(len(data))
}

func TestLiteralCosts(t *testing.T) {
	text := averageLiteralCost(t, corpus.Text(20000, 15))
	require.True(t, text > 2 && text < 7, "average text literal cost %v", text)

	random := averageLiteralCost(t, corpus.Random(20000, 16))
	require.Greater(t, random, 6.0)

	cost := make([]float32, 5000)
	estimateBitCostsForLiterals(make([]byte, 5000), cost)
	for _, c := range cost {
		require.LessOrEqual(t, c, float32(1.25))
	}
}
