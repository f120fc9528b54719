package lz4

import (
	"encoding/binary"

	"github.com/andybalholm/zopfli"
)

const (
	minMatch    = 4
	maxDistance = 65535
)

// A BlockEncoder implements the zopfli.Encoder interface, writing in the LZ4
// block format.
//
// Matches that LZ4 can't represent (shorter than 4 bytes, or more than
// 65535 bytes back) are written as literals instead.
type BlockEncoder struct {
	matches []zopfli.Match
}

func (e *BlockEncoder) Reset() {}

// foldMatches appends the matches that LZ4 can encode to dst, with the
// bytes of the others added to the literals before the next match.
// Trailing literals are dropped.
func foldMatches(dst []zopfli.Match, matches []zopfli.Match) []zopfli.Match {
	carry := 0
	for _, m := range matches {
		if m.Length < minMatch || m.Distance > maxDistance {
			carry += m.Unmatched + m.Length
			continue
		}
		m.Unmatched += carry
		carry = 0
		dst = append(dst, m)
	}
	return dst
}

func (e *BlockEncoder) Encode(dst []byte, src []byte, matches []zopfli.Match, lastBlock bool) []byte {
	e.matches = foldMatches(e.matches[:0], matches)
	matches = e.matches

	trailingLiterals := len(src)
	for _, m := range matches {
		trailingLiterals -= m.Unmatched + m.Length
	}

	// Ensure that the block ends with at least 5 literal bytes,
	// and the last match is at least 12 bytes before the end of the block.
	for len(matches) > 0 && (trailingLiterals < 5 || trailingLiterals+matches[len(matches)-1].Length < 12) {
		lastMatch := matches[len(matches)-1]
		matches = matches[:len(matches)-1]
		trailingLiterals += lastMatch.Unmatched + lastMatch.Length
	}

	pos := 0
	for _, m := range matches {
		token := byte(0)
		if m.Unmatched > 14 {
			token |= 0xf0
		} else {
			token |= byte(m.Unmatched << 4)
		}
		if m.Length > 18 {
			token |= 0x0f
		} else {
			token |= byte(m.Length - minMatch)
		}
		dst = append(dst, token)

		if m.Unmatched > 14 {
			dst = appendInt(dst, m.Unmatched-15)
		}
		dst = append(dst, src[pos:pos+m.Unmatched]...)

		dst = binary.LittleEndian.AppendUint16(dst, uint16(m.Distance))
		if m.Length > 18 {
			dst = appendInt(dst, m.Length-19)
		}

		pos += m.Unmatched + m.Length
	}

	// Write the final, literals-only sequence.
	token := byte(0)
	if trailingLiterals > 14 {
		token |= 0xf0
	} else {
		token |= byte(trailingLiterals << 4)
	}
	dst = append(dst, token)
	if trailingLiterals > 14 {
		dst = appendInt(dst, trailingLiterals-15)
	}
	dst = append(dst, src[pos:]...)

	return dst
}

// appendInt appends n to dst in LZ4's variable-length integer format.
func appendInt(dst []byte, n int) []byte {
	for n >= 255 {
		dst = append(dst, 255)
		n -= 255
	}
	dst = append(dst, byte(n))
	return dst
}
