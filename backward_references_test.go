package zopfli

import (
	"bytes"
	"testing"

	"github.com/andybalholm/zopfli/internal/corpus"
	"github.com/google/go-cmp/cmp"
	"github.com/nuclio/errors"
	"github.com/stretchr/testify/require"
)

// literalStream returns the literals that commands take from data, in
// order, starting at the beginning of data.
func literalStream(data []byte, commands []Command) []byte {
	var literals []byte
	pos := 0
	for _, c := range commands {
		literals = append(literals, data[pos:pos+int(c.InsertLen)]...)
		pos += int(c.InsertLen) + int(c.CopyLen)
	}
	return literals
}

// checkReconstruction verifies that commands decode to data.
func checkReconstruction(t *testing.T, data []byte, commands []Command) {
	t.Helper()
	literals := literalStream(data, commands)
	decoded, used, _, err := Replay(nil, literals, commands, DefaultDistanceCache)
	require.NoError(t, err)
	require.Equal(t, len(literals), used)
	if !bytes.Equal(decoded, data) {
		t.Fatalf("decoded %d bytes, which don't match the %d bytes of input", len(decoded), len(data))
	}
}

func parse(t *testing.T, data []byte, quality int, mf MatchFinder) Result {
	t.Helper()
	result, err := CreateBackwardReferences(Input{
		Data:          data,
		NumBytes:      len(data),
		DistanceCache: DefaultDistanceCache,
		Last:          true,
		MatchFinder:   mf,
		Params:        DefaultParams(quality),
	})
	require.NoError(t, err)
	return result
}

func TestReconstructSmall(t *testing.T) {
	for _, quality := range []int{QualityFast, QualityBest} {
		for _, s := range []string{"", "a", "ab", "abc", "abcd", "aaaa", "aaaaa"} {
			data := []byte(s)
			result := parse(t, data, quality, &HashChain{})
			checkReconstruction(t, data, result.Commands)
			require.Zero(t, result.LastInsertLen)
		}
	}
}

func TestReconstruct(t *testing.T) {
	inputs := map[string][]byte{
		"text":   corpus.Text(100000, 1),
		"mixed":  corpus.Mixed(100000, 2),
		"random": corpus.Random(20000, 3),
		"zeros":  make([]byte, 50000),
	}
	for name, data := range inputs {
		for _, quality := range []int{QualityFast, QualityBest} {
			result := parse(t, data, quality, &HashChain{})
			checkReconstruction(t, data, result.Commands)

			literals := 0
			for _, c := range result.Commands {
				literals += int(c.InsertLen)
			}
			require.Equal(t, literals, result.NumLiterals, "%s at quality %d", name, quality)
			require.Greater(t, result.Cost, float32(0), "%s at quality %d", name, quality)
		}
	}
}

func TestPureLiterals(t *testing.T) {
	data := []byte("0123456789")
	for _, quality := range []int{QualityFast, QualityBest} {
		result := parse(t, data, quality, &HashChain{})
		require.Equal(t, []Command{newInsertCommand(10)}, result.Commands)
		require.Equal(t, 10, result.NumLiterals)
		require.Zero(t, result.LastInsertLen)
		require.Equal(t, DefaultDistanceCache, result.DistanceCache)
	}
}

func TestLiteralsCarriedOver(t *testing.T) {
	data := []byte("0123456789")
	result, err := CreateBackwardReferences(Input{
		Data:          data,
		NumBytes:      len(data),
		DistanceCache: DefaultDistanceCache,
		MatchFinder:   &HashChain{},
	})
	require.NoError(t, err)
	require.Empty(t, result.Commands)
	require.Equal(t, 10, result.LastInsertLen)
	require.Zero(t, result.NumLiterals)
}

func TestRepeatedPattern(t *testing.T) {
	data := bytes.Repeat([]byte("wxyz"), 20)
	for _, quality := range []int{QualityFast, QualityBest} {
		result := parse(t, data, quality, &HashChain{})
		checkReconstruction(t, data, result.Commands)

		// Every copy reuses the last distance, 4, which is already in the
		// distance cache.
		matches, _, err := ResolveMatches(nil, result.Commands, DefaultDistanceCache)
		require.NoError(t, err)
		require.Equal(t, 4, matches[0].Unmatched)
		copied := 0
		for i, c := range result.Commands {
			if c.CopyLen == 0 {
				continue
			}
			require.Zero(t, c.DistanceCode, "command %d", i)
			require.Equal(t, 4, matches[i].Distance, "command %d", i)
			copied += int(c.CopyLen)
		}
		require.Equal(t, 76, copied)
	}
}

func TestRepeatedPatternCost(t *testing.T) {
	// A single 76-byte copy needs copy length code 16, which can't use the
	// implicit last distance, so it codes distance symbol 0 explicitly.
	// Copies of 69 and 7 both fit the implicit form, and cost less.
	data := bytes.Repeat([]byte("wxyz"), 20)
	result := parse(t, data, QualityFast, &scriptedFinder{script: map[int][]BackwardMatch{
		4: {{Distance: 4, Length: 76}},
	}})
	checkReconstruction(t, data, result.Commands)

	params := DefaultParams(QualityFast)
	m := newCostModel(len(data), params.distanceAlphabetSize())
	m.setFromLiteralCosts(data, 0)
	single := []Command{newCommand(4, 76, 0, 0)}
	require.True(t, single[0].usesDistance())
	require.LessOrEqual(t, m.estimateCost(result.Commands, 0), m.estimateCost(single, 0))
	require.InDelta(t, result.Cost, m.estimateCost(result.Commands, 0), 1e-3)
}

// scriptedFinder returns the matches in script for each position, and
// nothing elsewhere.
type scriptedFinder struct {
	script map[int][]BackwardMatch
}

func (f *scriptedFinder) Reset()                                {}
func (f *scriptedFinder) HashLen() int                          { return 4 }
func (f *scriptedFinder) StoreLookahead() int                   { return 4 }
func (f *scriptedFinder) StoreRange(data []byte, from, to int) {}

func (f *scriptedFinder) FindAllMatches(dst []BackwardMatch, data []byte, pos, maxLength, maxDistance int) []BackwardMatch {
	for _, m := range f.script[pos] {
		if m.Distance <= maxDistance && m.Length <= maxLength {
			dst = append(dst, m)
		}
	}
	return dst
}

func TestScriptedMatch(t *testing.T) {
	data := []byte("ABCDEFGHABCDEFGH")
	mf := &scriptedFinder{script: map[int][]BackwardMatch{
		8: {{Distance: 8, Length: 8}},
	}}
	for _, quality := range []int{QualityFast, QualityBest} {
		result := parse(t, data, quality, mf)
		matches, _, err := ResolveMatches(nil, result.Commands, DefaultDistanceCache)
		require.NoError(t, err)
		require.Equal(t, []Match{{Unmatched: 8, Length: 8, Distance: 8}}, matches)
	}
}

func TestScriptedMatchBeyondWindow(t *testing.T) {
	data := append(corpus.Random(2000, 4), corpus.Random(2000, 4)...)
	mf := &scriptedFinder{script: map[int][]BackwardMatch{
		2000: {{Distance: 2000, Length: 2000}},
	}}
	params := DefaultParams(QualityBest)
	params.WindowBits = 10
	result, err := CreateBackwardReferences(Input{
		Data:          data,
		NumBytes:      len(data),
		DistanceCache: DefaultDistanceCache,
		Last:          true,
		MatchFinder:   mf,
		Params:        params,
	})
	require.NoError(t, err)
	// The match is farther back than the window allows, so it is never
	// offered to the parser.
	matches, _, err := ResolveMatches(nil, result.Commands, DefaultDistanceCache)
	require.NoError(t, err)
	for _, m := range matches {
		require.LessOrEqual(t, m.Distance, 1<<10-16)
	}
	require.Greater(t, result.NumLiterals, 3800)
	checkReconstruction(t, data, result.Commands)
}

func TestMaxBackward(t *testing.T) {
	data := corpus.Text(50000, 5)
	result, err := CreateBackwardReferences(Input{
		Data:          data,
		NumBytes:      len(data),
		MaxBackward:   100,
		DistanceCache: DefaultDistanceCache,
		Last:          true,
		MatchFinder:   &HashChain{},
	})
	require.NoError(t, err)
	matches, _, err := ResolveMatches(nil, result.Commands, DefaultDistanceCache)
	require.NoError(t, err)
	for _, m := range matches {
		require.LessOrEqual(t, m.Distance, 100)
	}
	checkReconstruction(t, data, result.Commands)
}

func TestLongMatches(t *testing.T) {
	// Copies longer than MaxZopfliLen and LongCopyQuickStep.
	data := append(corpus.Text(1000, 6), make([]byte, 40000)...)
	data = append(data, data[:20000]...)
	for _, quality := range []int{QualityFast, QualityBest} {
		result := parse(t, data, quality, &HashChain{})
		checkReconstruction(t, data, result.Commands)
		require.Less(t, len(result.Commands), 300)
	}
}

func TestDeterministic(t *testing.T) {
	data := corpus.Mixed(60000, 7)
	for _, quality := range []int{QualityFast, QualityBest} {
		a := parse(t, data, quality, &HashChain{})
		b := parse(t, data, quality, &HashChain{})
		if diff := cmp.Diff(a, b, cmp.AllowUnexported(Command{})); diff != "" {
			t.Fatalf("quality %d: results differ (-first +second):\n%s", quality, diff)
		}
	}
}

func TestRefinementKeepsCheaperPass(t *testing.T) {
	data := corpus.Mixed(30000, 9)
	params := DefaultParams(QualityBest)
	b := backwardReferences{
		data:             data,
		numBytes:         len(data),
		params:           &params,
		maxBackwardLimit: params.maxBackwardLimit(),
		mf:               &HashChain{},
		distCache:        DefaultDistanceCache,
	}
	require.NoError(t, b.createHqZopfliBackwardReferences())
	checkReconstruction(t, data, b.commands)

	// Cost the first pass alone with the model built from the final parse.
	first := backwardReferences{
		data:             data,
		numBytes:         len(data),
		params:           &params,
		maxBackwardLimit: params.maxBackwardLimit(),
		mf:               &HashChain{},
		distCache:        DefaultDistanceCache,
	}
	numMatches, matches, err := first.findAllMatches()
	require.NoError(t, err)
	model, nodes, err := first.newSearchState()
	require.NoError(t, err)
	model.setFromLiteralCosts(data, 0)
	s := newPathSearch(data, 0, len(data), &params, first.maxBackwardLimit, first.distCache, model, nodes)
	s.iterate(4, numMatches, matches)
	first.commands = createCommands(len(data), 0, nodes, &first.distCache, &first.lastInsertLen, first.maxBackwardLimit, nil, &first.numLiterals)

	model.setFromCommands(data, 0, first.commands, 0)
	require.LessOrEqual(t, b.cost, model.estimateCost(first.commands, 0))
}

func TestPathValidity(t *testing.T) {
	params := DefaultParams(QualityFast)
	for name, data := range map[string][]byte{
		"text":     corpus.Text(20000, 3),
		"mixed":    corpus.Mixed(20000, 4),
		"repeated": bytes.Repeat([]byte("abcabd"), 3000),
	} {
		b := backwardReferences{
			data:             data,
			numBytes:         len(data),
			params:           &params,
			maxBackwardLimit: params.maxBackwardLimit(),
			mf:               &HashChain{},
			distCache:        DefaultDistanceCache,
		}
		numMatches, matches, err := b.findAllMatches()
		require.NoError(t, err, name)
		model, nodes, err := b.newSearchState()
		require.NoError(t, err, name)
		model.setFromLiteralCosts(data, 0)
		s := newPathSearch(data, 0, len(data), &params, b.maxBackwardLimit, b.distCache, model, nodes)
		require.Positive(t, s.iterate(4, numMatches, matches), name)

		// Every reached node must come from a reached node that costs no
		// more.
		for i := 1; i < len(nodes); i++ {
			if nodes[i].cost >= costInfinity {
				continue
			}
			pred := i - nodes[i].commandLength()
			require.GreaterOrEqual(t, pred, 0, "%s: node %d", name, i)
			require.Less(t, nodes[pred].cost, costInfinity, "%s: node %d from %d", name, i, pred)
			require.LessOrEqual(t, nodes[pred].cost, nodes[i].cost, "%s: node %d from %d", name, i, pred)
		}
	}
}

func TestRecentDistanceReuse(t *testing.T) {
	// The second and third copies are at the same distance as the first,
	// so they can use the last-distance code.
	data := []byte("abcdefgh12345678abcdefghQ2345678abcdefgh")
	for _, quality := range []int{QualityFast, QualityBest} {
		result := parse(t, data, quality, &HashChain{})
		checkReconstruction(t, data, result.Commands)

		matches, _, err := ResolveMatches(nil, result.Commands, DefaultDistanceCache)
		require.NoError(t, err)
		copies := 0
		for i, c := range result.Commands {
			if c.CopyLen == 0 {
				continue
			}
			require.Equal(t, 16, matches[i].Distance, "quality %d, command %d", quality, i)
			if copies > 0 {
				require.Zero(t, c.DistanceCode, "quality %d, command %d", quality, i)
			}
			copies++
		}
		require.GreaterOrEqual(t, copies, 2, "quality %d", quality)
	}
}

func TestInvalidInput(t *testing.T) {
	data := []byte("hello, world")
	for name, in := range map[string]Input{
		"no finder":       {Data: data, NumBytes: len(data)},
		"past the end":    {Data: data, Position: 5, NumBytes: len(data), MatchFinder: &HashChain{}},
		"negative":        {Data: data, NumBytes: -1, MatchFinder: &HashChain{}},
		"carry too long":  {Data: data, Position: 2, NumBytes: 3, LastInsertLen: 3, MatchFinder: &HashChain{}},
		"bad quality":     {Data: data, NumBytes: len(data), MatchFinder: &HashChain{}, Params: Params{Quality: 9}},
		"bad window bits": {Data: data, NumBytes: len(data), MatchFinder: &HashChain{}, Params: Params{WindowBits: 30}},
	} {
		_, err := CreateBackwardReferences(in)
		require.Error(t, err, name)
	}
}

func TestOutOfMemory(t *testing.T) {
	data := corpus.Text(10000, 10)
	for _, quality := range []int{QualityFast, QualityBest} {
		budget := NewBudget(1000)
		_, err := CreateBackwardReferences(Input{
			Data:          data,
			NumBytes:      len(data),
			DistanceCache: DefaultDistanceCache,
			MatchFinder:   &HashChain{},
			Params:        DefaultParams(quality),
			Allocator:     budget,
		})
		require.Error(t, err)
		require.Equal(t, ErrOutOfMemory, errors.RootCause(err))
		require.Zero(t, budget.InUse())
	}
}

func TestBudgetReleased(t *testing.T) {
	data := corpus.Text(10000, 11)
	budget := NewBudget(1 << 30)
	_, err := CreateBackwardReferences(Input{
		Data:          data,
		NumBytes:      len(data),
		DistanceCache: DefaultDistanceCache,
		MatchFinder:   &HashChain{},
		Allocator:     budget,
	})
	require.NoError(t, err)
	require.Zero(t, budget.InUse())
	require.Greater(t, budget.Peak(), len(data)*zopfliNodeSize)
}
