package brotli

import "encoding/binary"

// H5 is a Hasher similar to what the reference implementation of brotli uses
// for compression levels 5–9. It hashes 4 bytes and keeps the most recent
// 1<<BlockBits positions of each hash.
type H5 struct {
	// BlockBits is the base-2 logarithm of the number of entries per hash
	// bucket. The reference implementation sets it to one less than the
	// compression level.
	BlockBits int

	// BucketBits is the base-2 logarithm of the number of hash buckets.
	// The reference implementation sets it to 14 or 15.
	BucketBits int

	hashShift uint
	buckets   buckets
}

func (h *H5) Init() {
	h.hashShift = uint(32 - h.BucketBits)
	h.buckets.init(h.BucketBits, h.BlockBits)
}

func (h *H5) Lookahead() int { return 4 }

const kHashMul32 uint32 = 0x1E35A7BD

func (h *H5) hash(data []byte) int {
	return int(binary.LittleEndian.Uint32(data) * kHashMul32 >> h.hashShift)
}

func (h *H5) Store(data []byte, index int) {
	h.buckets.store(h.hash(data[index:]), index)
}

func (h *H5) Candidates(dst []int, data []byte, index, maxDistance int) []int {
	key := h.hash(data[index:])
	dst = h.buckets.candidates(dst, key, index, maxDistance)
	h.buckets.store(key, index)
	return dst
}
