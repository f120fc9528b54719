// Package zopfli is an optimal LZ77 parser in the style of the Zopfli
// backward-reference search used by Brotli's highest compression levels.
//
// Compression is split into three parts:
//   - a MatchFinder that looks for repeated sequences of bytes,
//   - the parser in this package, which chooses the cheapest sequence of
//     insert-and-copy commands given those candidates and a bit-cost model,
//   - an Encoder that writes the chosen commands in some compressed format.
//
// The parser does not define a wire format. Its Commands use the Brotli
// command alphabet, and ResolveMatches turns them into plain Matches that
// other formats (LZ4, Snappy, or Brotli itself through the encoder in the
// brotli subpackage) can serialize.
package zopfli

// A Match is the basic unit of LZ77 compression, with the distance resolved
// to a plain number of bytes.
type Match struct {
	Unmatched int // the number of unmatched bytes since the previous match
	Length    int // the number of bytes in the matched string; it may be 0 at the end of the input
	Distance  int // how far back in the stream to copy from
}

// A BackwardMatch is a candidate match reported by a MatchFinder.
type BackwardMatch struct {
	Distance int
	Length   int

	// LengthCode is the length used to pick the copy length code. It is 0
	// when it is the same as Length; static dictionary references may use a
	// different code.
	LengthCode int
}

func (m BackwardMatch) lengthCode() int {
	if m.LengthCode == 0 {
		return m.Length
	}
	return m.LengthCode
}

// A MatchFinder performs the LZ77 match search for the parser. Positions are
// indexes into data, which holds the history followed by the block being
// parsed.
type MatchFinder interface {
	// Reset clears any internal state, preparing the MatchFinder to be used
	// with a new stream or a rebased history buffer.
	Reset()

	// HashLen is the number of bytes needed at a position before it can be
	// hashed.
	HashLen() int

	// StoreLookahead is the number of bytes StoreRange reads beyond each
	// position it stores.
	StoreLookahead() int

	// FindAllMatches stores pos in the finder's index, appends the matches
	// found there to dst, and returns dst. The appended matches are sorted by
	// increasing length, are no longer than maxLength, and are no farther
	// back than maxDistance.
	FindAllMatches(dst []BackwardMatch, data []byte, pos, maxLength, maxDistance int) []BackwardMatch

	// StoreRange indexes the positions in [from, to) without searching them.
	StoreRange(data []byte, from, to int)
}

// A Stitcher is a MatchFinder that needs to re-index the end of the
// previous block when data for the next block arrives.
type Stitcher interface {
	StitchToPreviousBlock(data []byte, position, numBytes int)
}

// An Encoder encodes the data in its final format.
type Encoder interface {
	// Encode appends the encoded format of src to dst, using the match
	// information from matches.
	Encode(dst []byte, src []byte, matches []Match, lastBlock bool) []byte

	// Reset clears any internal state, preparing the Encoder to be used with
	// a new stream.
	Reset()
}
