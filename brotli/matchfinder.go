package brotli

import (
	"encoding/binary"
	"math/bits"
	"runtime"
	"sort"

	"github.com/andybalholm/zopfli"
)

// This file is based on code from github.com/golang/snappy.

//Copyright (c) 2011 The Snappy-Go Authors. All rights reserved.
//
//Redistribution and use in source and binary forms, with or without
//modification, are permitted provided that the following conditions are
//met:
//
//   * Redistributions of source code must retain the above copyright
//notice, this list of conditions and the following disclaimer.
//   * Redistributions in binary form must reproduce the above
//copyright notice, this list of conditions and the following disclaimer
//in the documentation and/or other materials provided with the
//distribution.
//   * Neither the name of Google Inc. nor the names of its
//contributors may be used to endorse or promote products derived from
//this software without specific prior written permission.
//
//THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
//"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
//LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
//A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
//OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
//SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
//LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
//DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
//THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
//(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
//OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

// HasherFinder is an implementation of zopfli.MatchFinder that uses a
// Hasher to find candidates. It is much faster than BinaryTree, but it
// finds fewer matches.
type HasherFinder struct {
	Hasher Hasher

	// ShortMatchDistance is how far back to scan byte by byte for matches
	// of 2 or 3 bytes, which the Hasher can't find. 0 disables the scan.
	ShortMatchDistance int

	// next is the first position that has not been stored yet.
	next int

	candidates []int
	found      []zopfli.BackwardMatch
}

func (q *HasherFinder) Reset() {
	q.Hasher.Init()
	q.next = 0
}

func (q *HasherFinder) HashLen() int        { return 4 }
func (q *HasherFinder) StoreLookahead() int { return q.Hasher.Lookahead() }

func (q *HasherFinder) store(data []byte, pos int) {
	if pos < q.next || pos+q.Hasher.Lookahead() > len(data) {
		return
	}
	q.Hasher.Store(data, pos)
	q.next = pos + 1
}

func (q *HasherFinder) StoreRange(data []byte, from, to int) {
	for i := from; i < to; i++ {
		q.store(data, i)
	}
}

// StitchToPreviousBlock stores the positions at the end of the previous
// block that were too close to its end to be hashed.
func (q *HasherFinder) StitchToPreviousBlock(data []byte, position, numBytes int) {
	q.StoreRange(data, q.next, position)
}

func (q *HasherFinder) FindAllMatches(dst []zopfli.BackwardMatch, data []byte, pos, maxLength, maxDistance int) []zopfli.BackwardMatch {
	found := q.found[:0]
	bestLen := 1
	if q.ShortMatchDistance > 0 {
		found, bestLen = findShortMatches(found, data, pos, maxLength, maxDistance, q.ShortMatchDistance)
	}

	if pos >= q.next && pos+q.Hasher.Lookahead() <= len(data) && bestLen < maxLength {
		q.StoreRange(data, q.next, pos)
		q.candidates = q.Hasher.Candidates(q.candidates[:0], data, pos, maxDistance)
		q.next = pos + 1
		for _, c := range q.candidates {
			if length := checkMatch(data, pos, c, maxLength); length > 0 {
				found = append(found, zopfli.BackwardMatch{Distance: pos - c, Length: length})
			}
		}
	}

	// Keep only the matches that are longer than every closer match, so
	// that lengths increase with distance.
	sort.Slice(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}
		return found[i].Length > found[j].Length
	})
	longest := 0
	for _, m := range found {
		if m.Length > longest {
			dst = append(dst, m)
			longest = m.Length
		}
	}
	q.found = found
	return dst
}

// checkMatch returns the length of the match between pos and an earlier
// candidate, or 0 if there is no match of at least 4 bytes. Hash
// collisions are common, so the first 4 bytes are compared at once.
func checkMatch(data []byte, pos, candidate, maxLength int) int {
	if maxLength < 4 {
		return 0
	}
	if binary.LittleEndian.Uint32(data[pos:]) != binary.LittleEndian.Uint32(data[candidate:]) {
		return 0
	}
	return findMatchLengthWithLimit(data, candidate, pos, maxLength)
}

// findMatchLengthWithLimit returns how many bytes at prev and cur are
// equal, up to limit. cur+limit must not be past the end of data.
func findMatchLengthWithLimit(data []byte, prev, cur, limit int) int {
	return extendMatch(data[:cur+limit], prev, cur) - cur
}

// findShortMatches scans the last maxScan positions before pos for matches
// of at least 2 bytes, stopping once one longer than 2 bytes is found. The
// matches are appended to dst in order of increasing distance and length.
// It also returns the length of the longest match, or 1 if there was none.
func findShortMatches(dst []zopfli.BackwardMatch, data []byte, pos, maxLength, maxDistance, maxScan int) ([]zopfli.BackwardMatch, int) {
	bestLen := 1
	if maxLength < 2 || pos+2 > len(data) {
		return dst, bestLen
	}
	stop := pos - maxScan
	if stop < 0 {
		stop = 0
	}
	for i := pos - 1; i > stop && bestLen <= 2; i-- {
		backward := pos - i
		if backward > maxDistance {
			break
		}
		if data[pos] != data[i] || data[pos+1] != data[i+1] {
			continue
		}
		length := findMatchLengthWithLimit(data, i, pos, maxLength)
		if length > bestLen {
			bestLen = length
			dst = append(dst, zopfli.BackwardMatch{Distance: backward, Length: length})
		}
	}
	return dst, bestLen
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
