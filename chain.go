package zopfli

import (
	"encoding/binary"
	"math/bits"
	"runtime"
)

// HashChain is an implementation of the MatchFinder interface that
// links every position to the previous position with the same hash.
type HashChain struct {
	// SearchLen is how many entries to examine on the hash chain.
	// The default is 64.
	SearchLen int

	// table holds the most recent position+1 for each hash.
	table [tableSize]uint32

	// chain[i] is the position+1 of the previous occurrence of the hash of
	// position i, or 0.
	chain []uint32

	// next is the first position that has not been indexed yet.
	next int
}

const (
	tableBits = 16
	tableSize = 1 << tableBits
	// tableMask is redundant, but helps the compiler eliminate bounds
	// checks.
	tableMask = tableSize - 1
)

func (q *HashChain) Reset() {
	q.table = [tableSize]uint32{}
	q.chain = q.chain[:0]
	q.next = 0
}

func (q *HashChain) HashLen() int        { return 4 }
func (q *HashChain) StoreLookahead() int { return 4 }

const hashMul32 = 0x1e35a7bd

func hash4(u uint32) uint32 {
	return (u * hashMul32) >> (32 - tableBits)
}

func (q *HashChain) store(data []byte, pos int) {
	if pos < q.next || pos+4 > len(data) {
		return
	}
	for len(q.chain) <= pos {
		q.chain = append(q.chain, 0)
	}
	h := hash4(binary.LittleEndian.Uint32(data[pos:])) & tableMask
	q.chain[pos] = q.table[h]
	q.table[h] = uint32(pos + 1)
	q.next = pos + 1
}

func (q *HashChain) StoreRange(data []byte, from, to int) {
	for i := from; i < to; i++ {
		q.store(data, i)
	}
}

func (q *HashChain) FindAllMatches(dst []BackwardMatch, data []byte, pos, maxLength, maxDistance int) []BackwardMatch {
	if q.SearchLen == 0 {
		q.SearchLen = 64
	}
	if pos+4 > len(data) || maxLength < 4 {
		return dst
	}
	// Index everything up to pos, so that the chain is complete.
	q.StoreRange(data, q.next, pos)

	h := hash4(binary.LittleEndian.Uint32(data[pos:])) & tableMask
	bestLen := 3
	candidate := int(q.table[h]) - 1
	for candidate >= pos {
		// pos was indexed already; skip the entries that follow it.
		candidate = int(q.chain[candidate]) - 1
	}
	for i := 0; i < q.SearchLen && candidate >= 0; i++ {
		if pos-candidate > maxDistance {
			break
		}
		if data[candidate+bestLen] == data[pos+bestLen] {
			length := findMatchLengthWithLimit(data, candidate, pos, maxLength)
			if length > bestLen {
				bestLen = length
				dst = append(dst, BackwardMatch{Distance: pos - candidate, Length: length})
				if length == maxLength {
					break
				}
			}
		}
		candidate = int(q.chain[candidate]) - 1
	}

	q.store(data, pos)
	return dst
}

// extendMatch returns the largest k such that k <= len(src) and that
// src[i:i+k-j] and src[j:k] have the same contents.
//
// It assumes that:
//
//	0 <= i && i < j && j <= len(src)
func extendMatch(src []byte, i, j int) int {
	switch runtime.GOARCH {
	case "amd64":
		// As long as we are 8 or more bytes before the end of src, we can load and
		// compare 8 bytes at a time. If those 8 bytes are equal, repeat.
		for j+8 < len(src) {
			iBytes := binary.LittleEndian.Uint64(src[i:])
			jBytes := binary.LittleEndian.Uint64(src[j:])
			if iBytes != jBytes {
				// If those 8 bytes were not equal, XOR the two 8 byte values, and return
				// the index of the first byte that differs. The BSF instruction finds the
				// least significant 1 bit, the amd64 architecture is little-endian, and
				// the shift by 3 converts a bit index to a byte index.
				return j + bits.TrailingZeros64(iBytes^jBytes)>>3
			}
			i, j = i+8, j+8
		}
	case "386":
		// On a 32-bit CPU, we do it 4 bytes at a time.
		for j+4 < len(src) {
			iBytes := binary.LittleEndian.Uint32(src[i:])
			jBytes := binary.LittleEndian.Uint32(src[j:])
			if iBytes != jBytes {
				return j + bits.TrailingZeros32(iBytes^jBytes)>>3
			}
			i, j = i+4, j+4
		}
	}
	for ; j < len(src) && src[i] == src[j]; i, j = i+1, j+1 {
	}
	return j
}
