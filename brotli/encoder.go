package brotli

import (
	"github.com/andybalholm/brotli"
	"github.com/andybalholm/brotli/matchfinder"
	"github.com/andybalholm/zopfli"
)

// An Encoder implements the zopfli.Encoder interface, writing in Brotli
// format. The entropy coding is done by github.com/andybalholm/brotli.
//
// Brotli has no way to end a stream after a meta-block that was not marked
// as the last one, so the last call to Encode must have data, unless
// nothing was written before it. zopfli.Writer keeps to this.
type Encoder struct {
	enc     brotli.Encoder
	matches []matchfinder.Match
	started bool
}

// emptyStream is a complete Brotli stream with no data: a 16-bit window,
// then ISLAST and ISEMPTY.
const emptyStream = 0x06

func (e *Encoder) Reset() {
	e.enc.Reset()
	e.started = false
}

func (e *Encoder) Encode(dst []byte, src []byte, matches []zopfli.Match, lastBlock bool) []byte {
	if len(src) == 0 {
		if lastBlock && !e.started {
			e.started = true
			return append(dst, emptyStream)
		}
		return dst
	}
	e.started = true
	e.matches = e.matches[:0]
	for _, m := range matches {
		e.matches = append(e.matches, matchfinder.Match{
			Unmatched: m.Unmatched,
			Length:    m.Length,
			Distance:  m.Distance,
		})
	}
	return e.enc.Encode(dst, src, e.matches, lastBlock)
}
