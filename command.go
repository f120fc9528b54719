package zopfli

import "math/bits"

// Insert and copy length code tables from section 5 of RFC 7932.
var kInsBase = [24]uint32{
	0, 1, 2, 3, 4, 5, 6, 8,
	10, 14, 18, 26, 34, 50, 66, 98,
	130, 194, 322, 578, 1090, 2114, 6210, 22594,
}

var kInsExtra = [24]uint32{
	0, 0, 0, 0, 0, 0, 1, 1,
	2, 2, 3, 3, 4, 4, 5, 5,
	6, 7, 8, 9, 10, 12, 14, 24,
}

var kCopyBase = [24]uint32{
	2, 3, 4, 5, 6, 7, 8, 9,
	10, 12, 14, 18, 22, 30, 38, 54,
	70, 102, 134, 198, 326, 582, 1094, 2118,
}

var kCopyExtra = [24]uint32{
	0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 2, 2, 3, 3, 4, 4,
	5, 5, 6, 7, 8, 9, 10, 24,
}

func insertBase(code uint16) uint32  { return kInsBase[code] }
func insertExtra(code uint16) uint32 { return kInsExtra[code] }
func copyBase(code uint16) uint32    { return kCopyBase[code] }
func copyExtra(code uint16) uint32   { return kCopyExtra[code] }

func log2FloorNonZero(n uint) uint32 {
	return uint32(bits.Len(n) - 1)
}

func getInsertLengthCode(insertlen uint) uint16 {
	if insertlen < 6 {
		return uint16(insertlen)
	} else if insertlen < 130 {
		nbits := log2FloorNonZero(insertlen-2) - 1
		return uint16((nbits << 1) + uint32((insertlen-2)>>nbits) + 2)
	} else if insertlen < 2114 {
		return uint16(log2FloorNonZero(insertlen-66) + 10)
	} else if insertlen < 6210 {
		return 21
	} else if insertlen < 22594 {
		return 22
	} else {
		return 23
	}
}

func getCopyLengthCode(copylen uint) uint16 {
	if copylen < 10 {
		return uint16(copylen - 2)
	} else if copylen < 134 {
		nbits := log2FloorNonZero(copylen-6) - 1
		return uint16((nbits << 1) + uint32((copylen-6)>>nbits) + 4)
	} else if copylen < 2118 {
		return uint16(log2FloorNonZero(copylen-70) + 12)
	} else {
		return 23
	}
}

func combineLengthCodes(inscode uint16, copycode uint16, useLastDistance bool) uint16 {
	bits64 := uint16(copycode&0x7 | (inscode&0x7)<<3)
	if useLastDistance && inscode < 8 && copycode < 16 {
		if copycode < 8 {
			return bits64
		}
		return bits64 | 64
	}

	// offset = 2 * index, where index is in range [0..8]
	offset := 2 * ((uint32(copycode) >> 3) + 3*(uint32(inscode)>>3))

	// All values in the table are K * 64,
	// where   K = [2, 3, 6, 4, 5, 8, 7, 9, 10],
	//     i + 1 = [1, 2, 3, 4, 5, 6, 7, 8,  9],
	// K - i - 1 = [1, 1, 3, 0, 0, 2, 0, 1,  2] = D.
	// All values in D require only 2 bits to encode.
	// The magic constant is shifted 6 bits left, to avoid the final multiplication.
	offset = (offset << 5) + 0x40 + ((0x520D40 >> offset) & 0xC0)

	return uint16(offset | uint32(bits64))
}

func getLengthCode(insertlen uint, copylen uint, useLastDistance bool) uint16 {
	inscode := getInsertLengthCode(insertlen)
	copycode := getCopyLengthCode(copylen)
	return combineLengthCodes(inscode, copycode, useLastDistance)
}

// A Command is an insert-and-copy command: InsertLen literal bytes followed
// by a copy of CopyLen bytes.
type Command struct {
	InsertLen uint32
	CopyLen   uint32

	// CopyLenCodeDelta is the difference between the length used to choose
	// the copy length code and CopyLen. It is nonzero only for static
	// dictionary references and for insert-only commands.
	CopyLenCodeDelta int8

	// DistanceCode is 0 to reuse the last distance, 1 to 15 for the other
	// short codes relative to the last four distances, or the distance plus
	// 15.
	DistanceCode uint32

	cmdPrefix  uint16
	distPrefix uint16
	distExtra  uint32
}

func newCommand(insertLen, copyLen uint, copyLenCodeDelta int, distanceCode uint) Command {
	c := Command{
		InsertLen:        uint32(insertLen),
		CopyLen:          uint32(copyLen),
		CopyLenCodeDelta: int8(copyLenCodeDelta),
		DistanceCode:     uint32(distanceCode),
	}
	// The distance prefix is always computed with postfix bits and direct
	// codes set to 0; the block encoder recomputes it if needed.
	prefixEncodeCopyDistance(distanceCode, 0, 0, &c.distPrefix, &c.distExtra)
	c.cmdPrefix = getLengthCode(insertLen, uint(int(copyLen)+copyLenCodeDelta), c.distPrefix&0x3FF == 0)
	return c
}

// newInsertCommand returns a command with only literals, used for the tail
// of the last block.
func newInsertCommand(insertLen uint) Command {
	return Command{
		InsertLen:        uint32(insertLen),
		CopyLenCodeDelta: 4,
		DistanceCode:     numDistanceShortCodes,
		distPrefix:       numDistanceShortCodes,
		cmdPrefix:        getLengthCode(insertLen, 4, false),
	}
}

// copyLengthCode is the length that selects the copy length code.
func (c Command) copyLengthCode() uint32 {
	return uint32(int32(c.CopyLen) + int32(c.CopyLenCodeDelta))
}

// usesDistance reports whether the command codes a distance symbol. The
// insert-only command at the end of a stream has none.
func (c Command) usesDistance() bool {
	return c.CopyLen > 0 && c.cmdPrefix >= 128
}

// extraBits is the number of raw bits the command needs for its insert
// length, copy length and distance.
func (c Command) extraBits() uint32 {
	inscode := getInsertLengthCode(uint(c.InsertLen))
	copycode := getCopyLengthCode(uint(c.copyLengthCode()))
	n := insertExtra(inscode) + copyExtra(copycode)
	if c.usesDistance() {
		n += uint32(c.distPrefix >> 10)
	}
	return n
}

// prefixEncodeCopyDistance splits distanceCode (a short code, or a distance
// plus 15) into a distance symbol and its extra bits. The number of extra
// bits is stored in the upper 6 bits of code.
func prefixEncodeCopyDistance(distanceCode uint, numDirectCodes uint, postfixBits uint, code *uint16, extraBits *uint32) {
	if distanceCode < numDistanceShortCodes+numDirectCodes {
		*code = uint16(distanceCode)
		*extraBits = 0
		return
	}
	dist := (uint(1) << (postfixBits + 2)) + (distanceCode - numDistanceShortCodes - numDirectCodes)
	bucket := uint(log2FloorNonZero(dist) - 1)
	postfixMask := uint(1)<<postfixBits - 1
	postfix := dist & postfixMask
	prefix := (dist >> bucket) & 1
	offset := (2 + prefix) << bucket
	nbits := bucket - postfixBits
	*code = uint16(nbits<<10 | (numDistanceShortCodes + numDirectCodes + ((2*(nbits-1) + prefix) << postfixBits) + postfix))
	*extraBits = uint32((dist - offset) >> postfixBits)
}
