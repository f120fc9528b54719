package brotli

import "encoding/binary"

// H6 is H5 with a configurable hash length of up to 8 bytes. Longer hashes
// give fewer, better candidates.
type H6 struct {
	// BlockBits and BucketBits are as in H5.
	BlockBits  int
	BucketBits int

	// HashLen is the number of bytes to hash. The reference implementation
	// normally sets it to 5.
	HashLen int

	hashShift uint
	hashMask  uint64
	buckets   buckets
}

func (h *H6) Init() {
	if h.HashLen == 0 {
		h.HashLen = 5
	}
	h.hashShift = uint(64 - h.BucketBits)
	h.hashMask = ^uint64(0) >> uint(64-8*h.HashLen)
	h.buckets.init(h.BucketBits, h.BlockBits)
}

func (h *H6) Lookahead() int { return 8 }

const kHashMul64Long uint64 = 0x1FE35A7BD3579BD3

func (h *H6) hash(data []byte) int {
	return int(binary.LittleEndian.Uint64(data) & h.hashMask * kHashMul64Long >> h.hashShift)
}

func (h *H6) Store(data []byte, index int) {
	h.buckets.store(h.hash(data[index:]), index)
}

func (h *H6) Candidates(dst []int, data []byte, index, maxDistance int) []int {
	key := h.hash(data[index:])
	dst = h.buckets.candidates(dst, key, index, maxDistance)
	h.buckets.store(key, index)
	return dst
}
