package zopfli

import (
	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// A Parser parses a stream one block at a time, carrying the distance
// cache and the pending literals from each block to the next.
type Parser struct {
	MatchFinder MatchFinder
	Params      Params

	// Allocator and Logger are optional.
	Allocator Allocator
	Logger    logger.Logger

	initialized   bool
	distCache     [4]int
	lastInsertLen int
	numLiterals   int
}

// Reset prepares the Parser for a new stream.
func (p *Parser) Reset() {
	if p.MatchFinder != nil {
		p.MatchFinder.Reset()
	}
	p.distCache = DefaultDistanceCache
	p.lastInsertLen = 0
	p.numLiterals = 0
	p.initialized = true
}

// DistanceCache returns the last four distances used so far.
func (p *Parser) DistanceCache() [4]int {
	if !p.initialized {
		return DefaultDistanceCache
	}
	return p.distCache
}

// PendingLiterals returns the number of literals at the end of the parsed
// data that have not been emitted in a command yet.
func (p *Parser) PendingLiterals() int {
	return p.lastInsertLen
}

// NumLiterals returns the number of literals emitted since the last Reset.
func (p *Parser) NumLiterals() int {
	return p.numLiterals
}

// Parse parses data[start:end], appends the commands to dst, and returns
// dst. The bytes before start are history that has already been parsed.
// If last is true, the pending literals are flushed as an insert-only
// command. On error, the distance cache and pending literals are unchanged,
// but the MatchFinder may already have indexed part of the block.
func (p *Parser) Parse(dst []Command, data []byte, start, end int, last bool) ([]Command, error) {
	if p.MatchFinder == nil {
		return dst, errors.New("Parser has no match finder")
	}
	if !p.initialized {
		p.Reset()
	}
	if start < 0 || end < start || end > len(data) {
		return dst, errors.Errorf("Invalid block [%d,%d) for %d bytes of data", start, end, len(data))
	}
	if s, ok := p.MatchFinder.(Stitcher); ok && start > 0 {
		s.StitchToPreviousBlock(data, start, end-start)
	}

	result, err := CreateBackwardReferences(Input{
		Data:          data,
		Position:      start,
		NumBytes:      end - start,
		DistanceCache: p.distCache,
		LastInsertLen: p.lastInsertLen,
		Last:          last,
		MatchFinder:   p.MatchFinder,
		Params:        p.Params,
		Allocator:     p.Allocator,
		Logger:        p.Logger,
	})
	if err != nil {
		return dst, errors.Wrap(err, "Failed to create backward references")
	}

	p.distCache = result.DistanceCache
	p.lastInsertLen = result.LastInsertLen
	p.numLiterals += result.NumLiterals
	return append(dst, result.Commands...), nil
}
