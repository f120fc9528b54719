package brotli

import "encoding/binary"

// H4 is a Hasher similar to what the reference implementation of brotli
// uses for compression level 4. Each hash has a sweep of four slots, and a
// position goes in the slot picked by its bits 3 and 4, so the table
// forgets quickly.
type H4 struct {
	// table holds positions plus one; 0 is an empty slot.
	table []uint32
}

const (
	h4TableBits = 17
	h4Sweep     = 4
	h4HashLen   = 5
)

func (h *H4) Init() {
	tableLen := 1<<h4TableBits + h4Sweep
	if len(h.table) != tableLen {
		h.table = make([]uint32, tableLen)
		return
	}
	for i := range h.table {
		h.table[i] = 0
	}
}

// Lookahead is 8 because the hash loads a 64-bit word, even though only
// h4HashLen bytes of it are used.
func (h *H4) Lookahead() int { return 8 }

const kHashMul64 = 0x1E35A7BD1E35A7BD

func (h *H4) hash(data []byte) int {
	hash := (binary.LittleEndian.Uint64(data) << (64 - 8*h4HashLen)) * kHashMul64
	return int(hash >> (64 - h4TableBits))
}

func (h *H4) slot(data []byte, index int) int {
	return h.hash(data[index:]) + index>>3%h4Sweep
}

func (h *H4) Store(data []byte, index int) {
	h.table[h.slot(data, index)] = uint32(index + 1)
}

func (h *H4) Candidates(dst []int, data []byte, index, maxDistance int) []int {
	key := h.hash(data[index:])
	// The slots of a sweep are not ordered by position.
	for _, e := range h.table[key : key+h4Sweep] {
		if c := int(e) - 1; c >= 0 && c < index && index-c <= maxDistance {
			dst = append(dst, c)
		}
	}
	h.table[key+index>>3%h4Sweep] = uint32(index + 1)
	return dst
}
