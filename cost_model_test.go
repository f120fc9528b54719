package zopfli

import (
	"math"
	"testing"

	"github.com/andybalholm/zopfli/internal/corpus"
	"github.com/stretchr/testify/require"
)

func TestSetCostEmptyHistogram(t *testing.T) {
	literal := make([]float32, 256)
	setCost(make([]uint32, 256), true, literal)
	for _, c := range literal {
		require.Equal(t, float32(2), c)
	}

	cmd := make([]float32, 8)
	setCost(make([]uint32, 8), false, cmd)
	for _, c := range cmd {
		require.Equal(t, float32(5), c)
	}
}

func TestSetCost(t *testing.T) {
	cost := make([]float32, 4)
	setCost([]uint32{1, 1, 2, 0}, true, cost)
	require.InDelta(t, 2, cost[0], 1e-6)
	require.InDelta(t, 2, cost[1], 1e-6)
	require.InDelta(t, 1, cost[2], 1e-6)
	require.InDelta(t, 4, cost[3], 1e-6)

	// A symbol that takes up the whole histogram still costs one bit.
	setCost([]uint32{0, 7, 0, 0}, false, cost)
	require.Equal(t, float32(1), cost[1])
	require.InDelta(t, math.Log2(10)+2, cost[0], 1e-5)
}

func TestLiteralCostsMonotonic(t *testing.T) {
	data := corpus.Mixed(20000, 1)
	m := newCostModel(len(data), DefaultParams(QualityBest).distanceAlphabetSize())
	m.setFromLiteralCosts(data, 0)
	for i := 0; i < len(data); i++ {
		require.Greater(t, m.literalCost(i, i+1), float32(0))
	}
	require.InDelta(t, m.literalCosts[len(data)], m.literalCost(0, len(data)), 1e-3)
}

func TestSetFromCommands(t *testing.T) {
	data := corpus.Text(20000, 2)
	result := parse(t, data, QualityFast, &HashChain{})

	m := newCostModel(len(data), DefaultParams(QualityBest).distanceAlphabetSize())
	m.setFromCommands(data, 0, result.Commands, 0)

	used := make(map[uint16]bool)
	for _, c := range result.Commands {
		used[c.cmdPrefix] = true
	}
	for code := range used {
		require.Less(t, m.commandCost(code), float32(fastLog2(uint(len(result.Commands))))+2)
	}
	require.Equal(t, m.minCommandCost(), minFloat32(m.costCmd[:]))

	// The cost of the parse under its own statistics is close to its
	// entropy, which is far less than 8 bits per byte for text.
	require.Less(t, m.estimateCost(result.Commands, 0), float32(len(data)*4))
}

func minFloat32(s []float32) float32 {
	m := s[0]
	for _, v := range s[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func TestEstimateCostSkipsCarriedLiterals(t *testing.T) {
	data := []byte("0123456789abcdef")
	m := newCostModel(10, DefaultParams(QualityBest).distanceAlphabetSize())
	m.setFromLiteralCosts(data, 6)

	// Six literals from before the block, and the ten in it.
	commands := []Command{newInsertCommand(16)}
	require.InDelta(t, m.literalCost(0, 10)+m.commandCost(commands[0].cmdPrefix)+float32(commands[0].extraBits()),
		m.estimateCost(commands, 6), 1e-3)

	// Literals that are still pending are counted too.
	require.InDelta(t, m.literalCost(0, 10), m.estimateCost(nil, 0), 1e-3)
}
