package zopfli

import (
	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// DefaultDistanceCache is the distance cache at the start of a stream.
var DefaultDistanceCache = [4]int{4, 11, 15, 16}

// reservedMatches is how much room is kept free in the match buffer before
// each FindAllMatches call.
const reservedMatches = 128 + 64

// Input describes one block to parse.
type Input struct {
	// Data holds the history, followed by the block.
	Data []byte

	// Position is the index of the first byte of the block in Data, and
	// NumBytes is the length of the block.
	Position int
	NumBytes int

	// MaxBackward limits distances further than the window does, if it is
	// greater than 0.
	MaxBackward int

	// DistanceCache holds the last four distances used before the block,
	// most recent first.
	DistanceCache [4]int

	// LastInsertLen is the number of literals before Position that have not
	// been emitted yet. They are added to the first command.
	LastInsertLen int

	// Last makes the literals after the last copy an insert-only command
	// instead of carrying them over to the next block.
	Last bool

	MatchFinder MatchFinder
	Params      Params

	// Allocator is optional.
	Allocator Allocator

	// Logger is optional.
	Logger logger.Logger
}

// Result is the outcome of parsing a block.
type Result struct {
	Commands    []Command
	NumLiterals int

	// DistanceCache and LastInsertLen are the values to pass in the Input
	// for the next block.
	DistanceCache [4]int
	LastInsertLen int

	// Cost is the estimated size of the block in bits, according to the
	// final cost model.
	Cost float32
}

// CreateBackwardReferences finds the cheapest sequence of commands that
// produces the block described by in.
func CreateBackwardReferences(in Input) (Result, error) {
	params := in.Params
	params.ApplyDefaults()
	if err := params.Verify(); err != nil {
		return Result{}, errors.Wrap(err, "Invalid parameters")
	}
	if in.MatchFinder == nil {
		return Result{}, errors.New("No match finder")
	}
	if in.Position < 0 || in.NumBytes < 0 || in.Position+in.NumBytes > len(in.Data) {
		return Result{}, errors.Errorf("Block [%d,%d) is outside of the %d bytes of data",
			in.Position, in.Position+in.NumBytes, len(in.Data))
	}
	if in.LastInsertLen < 0 || in.LastInsertLen > in.Position {
		return Result{}, errors.Errorf("LastInsertLen=%d; must be in range [0,%d]", in.LastInsertLen, in.Position)
	}

	b := backwardReferences{
		data:             in.Data,
		position:         in.Position,
		numBytes:         in.NumBytes,
		params:           &params,
		maxBackwardLimit: params.maxBackwardLimit(),
		mf:               in.MatchFinder,
		arena:            arena{alloc: in.Allocator},
		logger:           in.Logger,
		distCache:        in.DistanceCache,
		lastInsertLen:    in.LastInsertLen,
	}
	if in.MaxBackward > 0 && in.MaxBackward < b.maxBackwardLimit {
		b.maxBackwardLimit = in.MaxBackward
	}
	defer b.arena.releaseAll()

	var err error
	if params.Quality == QualityFast {
		err = b.createZopfliBackwardReferences()
	} else {
		err = b.createHqZopfliBackwardReferences()
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "Failed to parse block at %d", in.Position)
	}

	if in.Last && b.lastInsertLen > 0 {
		b.commands = append(b.commands, newInsertCommand(uint(b.lastInsertLen)))
		b.numLiterals += b.lastInsertLen
		b.lastInsertLen = 0
	}

	if b.logger != nil {
		b.logger.DebugWith("Parsed block",
			"position", in.Position,
			"bytes", in.NumBytes,
			"quality", params.Quality,
			"commands", len(b.commands),
			"literals", b.numLiterals,
			"bits", b.cost)
	}

	return Result{
		Commands:      b.commands,
		NumLiterals:   b.numLiterals,
		DistanceCache: b.distCache,
		LastInsertLen: b.lastInsertLen,
		Cost:          b.cost,
	}, nil
}

// backwardReferences holds the state of one CreateBackwardReferences call.
type backwardReferences struct {
	data             []byte
	position         int
	numBytes         int
	params           *Params
	maxBackwardLimit int
	mf               MatchFinder
	arena            arena
	logger           logger.Logger

	commands      []Command
	numLiterals   int
	distCache     [4]int
	lastInsertLen int
	cost          float32
}

// storeEnd is the end of the range of positions that the match finder can
// index without reading past the block.
func (b *backwardReferences) storeEnd() int {
	if lookahead := b.mf.StoreLookahead(); b.numBytes >= lookahead {
		return b.position + b.numBytes - lookahead + 1
	}
	return b.position
}

func (b *backwardReferences) newSearchState() (*costModel, []zopfliNode, error) {
	alphabetSize := b.params.distanceAlphabetSize()
	if err := b.arena.acquire(b.numBytes+1, zopfliNodeSize); err != nil {
		return nil, nil, errors.Wrap(err, "Failed to allocate nodes")
	}
	if err := b.arena.acquire(1, costModelSize(b.numBytes, alphabetSize)); err != nil {
		return nil, nil, errors.Wrap(err, "Failed to allocate cost model")
	}
	return newCostModel(b.numBytes, alphabetSize), newZopfliNodes(b.numBytes + 1), nil
}

// createZopfliBackwardReferences is the single-pass parse. Matches are
// looked up while the nodes are being filled in, and the cost model comes
// from literal statistics only.
func (b *backwardReferences) createZopfliBackwardReferences() error {
	model, nodes, err := b.newSearchState()
	if err != nil {
		return err
	}
	model.setFromLiteralCosts(b.data, b.position)
	s := newPathSearch(b.data, b.position, b.numBytes, b.params, b.maxBackwardLimit, b.distCache, model, nodes)

	mf := b.mf
	hashLen := mf.HashLen()
	storeEnd := b.storeEnd()
	maxZopfliLen := b.params.MaxZopfliLen
	if err := b.arena.acquire(reservedMatches, backwardMatchSize); err != nil {
		return errors.Wrap(err, "Failed to allocate matches")
	}
	matches := make([]BackwardMatch, 0, reservedMatches)

	for i := 0; i+hashLen-1 < b.numBytes; i++ {
		pos := b.position + i
		maxDistance := minInt(pos, b.maxBackwardLimit)
		matches = mf.FindAllMatches(matches[:0], b.data, pos, b.numBytes-i, maxDistance)
		if n := len(matches); n > 0 && matches[n-1].Length > maxZopfliLen {
			matches[0] = matches[n-1]
			matches = matches[:1]
		}

		skip := s.updateNodes(i, matches)
		if skip < b.params.LongCopyQuickStep {
			skip = 0
		}
		if len(matches) == 1 && matches[0].Length > maxZopfliLen {
			skip = maxInt(matches[0].Length, skip)
		}

		if skip > 1 {
			// Add the tail of the copy to the match finder.
			mf.StoreRange(b.data, pos+1, minInt(pos+skip, storeEnd))
			skip--
			for skip != 0 {
				i++
				if i+hashLen-1 >= b.numBytes {
					break
				}
				s.evaluateNode(i)
				skip--
			}
		}
	}

	computeShortestPathFromNodes(b.numBytes, nodes)
	lastInsertLen := b.lastInsertLen
	b.commands = createCommands(b.numBytes, b.position, nodes, &b.distCache, &b.lastInsertLen, b.maxBackwardLimit, b.commands, &b.numLiterals)
	b.cost = model.estimateCost(b.commands, lastInsertLen)
	return nil
}

// backwardMatchSize is the in-memory size of a BackwardMatch, for the
// Allocator.
const backwardMatchSize = 24

// findAllMatches collects the matches for every position of the block.
// After a match longer than MaxZopfliLen, only that match is kept and the
// positions it covers are only indexed.
func (b *backwardReferences) findAllMatches() ([]uint32, []BackwardMatch, error) {
	mf := b.mf
	hashLen := mf.HashLen()
	storeEnd := b.storeEnd()
	maxZopfliLen := b.params.MaxZopfliLen

	if err := b.arena.acquire(b.numBytes, 4); err != nil {
		return nil, nil, errors.Wrap(err, "Failed to allocate match counts")
	}
	numMatches := make([]uint32, b.numBytes)

	matchesSize := 4 * b.numBytes
	if err := b.arena.acquire(matchesSize, backwardMatchSize); err != nil {
		return nil, nil, errors.Wrap(err, "Failed to allocate matches")
	}
	matches := make([]BackwardMatch, 0, matchesSize)

	for i := 0; i+hashLen-1 < b.numBytes; i++ {
		pos := b.position + i
		maxDistance := minInt(pos, b.maxBackwardLimit)
		maxLength := b.numBytes - i

		// Ensure that we have enough free slots.
		if matchesSize < len(matches)+reservedMatches {
			newSize := maxInt(matchesSize, reservedMatches)
			for newSize < len(matches)+reservedMatches {
				newSize *= 2
			}
			if err := b.arena.acquire(newSize, backwardMatchSize); err != nil {
				return nil, nil, errors.Wrap(err, "Failed to grow matches")
			}
			grown := make([]BackwardMatch, len(matches), newSize)
			copy(grown, matches)
			b.arena.release(matchesSize, backwardMatchSize)
			matches = grown
			matchesSize = newSize
		}

		curMatchPos := len(matches)
		matches = mf.FindAllMatches(matches, b.data, pos, maxLength, maxDistance)
		numFound := len(matches) - curMatchPos
		numMatches[i] = uint32(numFound)
		if numFound > 0 {
			matchLen := matches[len(matches)-1].Length
			if matchLen > maxZopfliLen {
				skip := matchLen - 1
				matches[curMatchPos] = matches[len(matches)-1]
				matches = matches[:curMatchPos+1]
				numMatches[i] = 1

				// Add the tail of the copy to the match finder.
				mf.StoreRange(b.data, pos+1, minInt(pos+matchLen, storeEnd))
				// numMatches stays 0 for the skipped positions.
				i += skip
			}
		}
	}
	return numMatches, matches, nil
}

// createHqZopfliBackwardReferences is the two-pass parse. The first pass
// uses literal statistics; the second reruns the search with a cost model
// built from the commands of the first pass.
func (b *backwardReferences) createHqZopfliBackwardReferences() error {
	numMatches, matches, err := b.findAllMatches()
	if err != nil {
		return err
	}
	model, nodes, err := b.newSearchState()
	if err != nil {
		return err
	}

	origNumLiterals := b.numLiterals
	origLastInsertLen := b.lastInsertLen
	origDistCache := b.distCache
	origNumCommands := len(b.commands)
	hashLen := b.mf.HashLen()

	var firstPass backwardReferences
	for i := 0; i < 2; i++ {
		if i == 0 {
			model.setFromLiteralCosts(b.data, b.position)
		} else {
			initZopfliNodes(nodes)
			model.setFromCommands(b.data, b.position, b.commands[origNumCommands:], origLastInsertLen)
			firstPass = backwardReferences{
				commands:      append([]Command(nil), b.commands[origNumCommands:]...),
				numLiterals:   b.numLiterals,
				distCache:     b.distCache,
				lastInsertLen: b.lastInsertLen,
			}
		}

		b.commands = b.commands[:origNumCommands]
		b.numLiterals = origNumLiterals
		b.lastInsertLen = origLastInsertLen
		b.distCache = origDistCache

		s := newPathSearch(b.data, b.position, b.numBytes, b.params, b.maxBackwardLimit, b.distCache, model, nodes)
		s.iterate(hashLen, numMatches, matches)
		b.commands = createCommands(b.numBytes, b.position, nodes, &b.distCache, &b.lastInsertLen, b.maxBackwardLimit, b.commands, &b.numLiterals)
	}

	b.cost = model.estimateCost(b.commands[origNumCommands:], origLastInsertLen)
	firstCost := model.estimateCost(firstPass.commands, origLastInsertLen)
	if b.logger != nil {
		b.logger.DebugWith("Refined block",
			"position", b.position,
			"firstPassBits", firstCost,
			"secondPassBits", b.cost)
	}
	if firstCost < b.cost {
		// The search is not exhaustive, so the refined model can
		// occasionally prefer the first pass. Keep whichever is cheaper.
		b.commands = append(b.commands[:origNumCommands], firstPass.commands...)
		b.numLiterals = firstPass.numLiterals
		b.distCache = firstPass.distCache
		b.lastInsertLen = firstPass.lastInsertLen
		b.cost = firstCost
	}
	return nil
}
