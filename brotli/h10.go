package brotli

import (
	"encoding/binary"
	"math"

	"github.com/andybalholm/zopfli"
)

// BinaryTree is a MatchFinder similar to the one the reference
// implementation of brotli uses for compression levels 10 and 11 (H10).
//
// Each hash bucket is the root of a binary tree of the positions with that
// hash, sorted by the data that follows them. When a position is stored, it
// becomes the new root, and the tree is split around it, so walking down
// from the root visits the most recent positions with the longest common
// prefixes first.
type BinaryTree struct {
	// WindowBits is the base-2 logarithm of the window size. The default
	// is 22. Matches are never found farther back than the window size
	// minus 16.
	WindowBits int

	// MaxDepth is the number of tree nodes to visit per search. The
	// default is 64.
	MaxDepth int

	// ShortMatchDistance is how far back to scan byte by byte for matches
	// of 2 or 3 bytes. The default is 64; the reference implementation uses
	// 16 below quality 11.
	ShortMatchDistance int

	windowMask  int
	buckets     []uint32
	forest      []uint32
	initialized bool
}

const (
	h10BucketBits = 17
	h10BucketSize = 1 << h10BucketBits

	// maxTreeCompLength is the longest prefix that is compared while
	// walking the tree. Positions are only re-rooted when at least this much
	// data is available.
	maxTreeCompLength = 128

	h10InvalidPos = math.MaxUint32
)

func (h *BinaryTree) init() {
	if h.WindowBits == 0 {
		h.WindowBits = 22
	}
	if h.MaxDepth == 0 {
		h.MaxDepth = 64
	}
	if h.ShortMatchDistance == 0 {
		h.ShortMatchDistance = 64
	}
	h.windowMask = 1<<h.WindowBits - 1
	if len(h.buckets) != h10BucketSize {
		h.buckets = make([]uint32, h10BucketSize)
	}
	for i := range h.buckets {
		h.buckets[i] = h10InvalidPos
	}
	// The forest doesn't need to be cleared; every slot is written before
	// it is read.
	if len(h.forest) != 2<<h.WindowBits {
		h.forest = make([]uint32, 2<<h.WindowBits)
	}
	h.initialized = true
}

func (h *BinaryTree) Reset() {
	h.init()
}

func (h *BinaryTree) HashLen() int        { return 4 }
func (h *BinaryTree) StoreLookahead() int { return maxTreeCompLength }

func hashBytesH10(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data) * kHashMul32 >> (32 - h10BucketBits)
}

func (h *BinaryTree) leftChild(pos int) int  { return 2 * (pos & h.windowMask) }
func (h *BinaryTree) rightChild(pos int) int { return 2*(pos&h.windowMask) + 1 }

// storeAndFindMatches walks the tree for the hash of the data at cur. If
// dst is not nil, it appends every match longer than *bestLen, updating
// *bestLen. If at least maxTreeCompLength bytes are available, cur is
// stored as the new root of the tree.
func (h *BinaryTree) storeAndFindMatches(dst []zopfli.BackwardMatch, find bool, data []byte, cur, maxLength, maxBackward int, bestLen *int) []zopfli.BackwardMatch {
	maxCompLen := maxLength
	if maxCompLen > maxTreeCompLength {
		maxCompLen = maxTreeCompLength
	}
	shouldReroot := maxLength >= maxTreeCompLength
	key := hashBytesH10(data[cur:])
	prevPos := h.buckets[key]

	// The forest slots to write the next left and right subtrees into.
	nodeLeft := h.leftChild(cur)
	nodeRight := h.rightChild(cur)
	// The length of the common prefix of cur with the largest position
	// smaller than it (bestLenLeft), and with the smallest larger one.
	bestLenLeft := 0
	bestLenRight := 0

	if shouldReroot {
		h.buckets[key] = uint32(cur)
	}
	for depth := h.MaxDepth; ; depth-- {
		if prevPos == h10InvalidPos || int(prevPos) >= cur {
			if shouldReroot {
				h.forest[nodeLeft] = h10InvalidPos
				h.forest[nodeRight] = h10InvalidPos
			}
			break
		}
		prev := int(prevPos)
		backward := cur - prev
		if backward > maxBackward || depth == 0 {
			if shouldReroot {
				h.forest[nodeLeft] = h10InvalidPos
				h.forest[nodeRight] = h10InvalidPos
			}
			break
		}

		curLen := bestLenLeft
		if bestLenRight < curLen {
			curLen = bestLenRight
		}
		length := curLen + findMatchLengthWithLimit(data, prev+curLen, cur+curLen, maxLength-curLen)
		if find && length > *bestLen {
			*bestLen = length
			dst = append(dst, zopfli.BackwardMatch{Distance: backward, Length: length})
		}
		if length >= maxCompLen {
			if shouldReroot {
				h.forest[nodeLeft] = h.forest[h.leftChild(prev)]
				h.forest[nodeRight] = h.forest[h.rightChild(prev)]
			}
			break
		}
		if data[cur+length] > data[prev+length] {
			bestLenLeft = length
			if shouldReroot {
				h.forest[nodeLeft] = prevPos
			}
			nodeLeft = h.rightChild(prev)
			prevPos = h.forest[nodeLeft]
		} else {
			bestLenRight = length
			if shouldReroot {
				h.forest[nodeRight] = prevPos
			}
			nodeRight = h.leftChild(prev)
			prevPos = h.forest[nodeRight]
		}
	}
	return dst
}

func (h *BinaryTree) maxBackward() int {
	return h.windowMask - 15
}

func (h *BinaryTree) FindAllMatches(dst []zopfli.BackwardMatch, data []byte, pos, maxLength, maxDistance int) []zopfli.BackwardMatch {
	if !h.initialized {
		h.init()
	}
	if maxDistance > h.maxBackward() {
		maxDistance = h.maxBackward()
	}
	dst, bestLen := findShortMatches(dst, data, pos, maxLength, maxDistance, h.ShortMatchDistance)
	if bestLen < maxLength && pos+4 <= len(data) {
		dst = h.storeAndFindMatches(dst, true, data, pos, maxLength, maxDistance, &bestLen)
	}
	return dst
}

// StoreRange stores positions from through to-1. Only every eighth
// position is stored in the middle of a long range, since they are all
// inside a long match anyway.
func (h *BinaryTree) StoreRange(data []byte, from, to int) {
	if !h.initialized {
		h.init()
	}
	i := from
	j := from
	if from+63 <= to {
		i = to - 63
	}
	if from+512 <= i {
		for ; j < i; j += 8 {
			h.store(data, j)
		}
	}
	for ; i < to; i++ {
		h.store(data, i)
	}
}

func (h *BinaryTree) store(data []byte, pos int) {
	if pos+maxTreeCompLength > len(data) {
		return
	}
	h.storeAndFindMatches(nil, false, data, pos, maxTreeCompLength, h.maxBackward(), nil)
}

// StitchToPreviousBlock stores the last positions of the previous block,
// which could not be stored until the data after them was available.
func (h *BinaryTree) StitchToPreviousBlock(data []byte, position, numBytes int) {
	if !h.initialized {
		h.init()
	}
	if numBytes < 3 || position < maxTreeCompLength {
		return
	}
	start := position - maxTreeCompLength + 1
	end := position
	if start+numBytes < end {
		end = start + numBytes
	}
	for i := start; i < end; i++ {
		if i+maxTreeCompLength > len(data) {
			break
		}
		gap := position - i
		if gap < 15 {
			gap = 15
		}
		h.storeAndFindMatches(nil, false, data, i, maxTreeCompLength, h.windowMask-gap, nil)
	}
}
