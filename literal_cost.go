package zopfli

import "math"

// minUTF8Ratio is the fraction of bytes that must be part of valid UTF-8
// sequences for the text model to be used.
const minUTF8Ratio = 0.75

// fastLog2 returns log2(v), with log2(0) defined as 0.
func fastLog2(v uint) float64 {
	if v == 0 {
		return 0
	}
	return math.Log2(float64(v))
}

// parseAsUTF8 decodes one character from the start of data. It is more
// lenient than unicode/utf8: it accepts overlong 3-byte forms and
// surrogates, and treats a zero byte as invalid. An invalid sequence is
// returned as one byte, with a symbol of 0x110000 | the byte.
func parseAsUTF8(data []byte) (symbol, size int) {
	// ASCII
	if data[0]&0x80 == 0 {
		symbol = int(data[0])
		if symbol > 0 {
			return symbol, 1
		}
	}

	// 2-byte UTF8
	if len(data) > 1 && data[0]&0xE0 == 0xC0 && data[1]&0xC0 == 0x80 {
		symbol = int(data[0]&0x1F)<<6 | int(data[1]&0x3F)
		if symbol > 0x7F {
			return symbol, 2
		}
	}

	// 3-byte UTF8
	if len(data) > 2 && data[0]&0xF0 == 0xE0 && data[1]&0xC0 == 0x80 && data[2]&0xC0 == 0x80 {
		symbol = int(data[0]&0x0F)<<12 | int(data[1]&0x3F)<<6 | int(data[2]&0x3F)
		if symbol > 0x7FF {
			return symbol, 3
		}
	}

	// 4-byte UTF8
	if len(data) > 3 && data[0]&0xF8 == 0xF0 && data[1]&0xC0 == 0x80 && data[2]&0xC0 == 0x80 && data[3]&0xC0 == 0x80 {
		symbol = int(data[0]&0x07)<<18 | int(data[1]&0x3F)<<12 | int(data[2]&0x3F)<<6 | int(data[3]&0x3F)
		if symbol > 0xFFFF && symbol <= 0x10FFFF {
			return symbol, 4
		}
	}

	return 0x110000 | int(data[0]), 1
}

// isMostlyUTF8 reports whether more than minFraction of data decodes as
// UTF-8 characters.
func isMostlyUTF8(data []byte, minFraction float64) bool {
	sizeUTF8 := 0
	for i := 0; i < len(data); {
		symbol, size := parseAsUTF8(data[i:])
		i += size
		if symbol < 0x110000 {
			sizeUTF8 += size
		}
	}
	return float64(sizeUTF8) > minFraction*float64(len(data))
}

// utf8Position classifies the byte following last and c: 0 for the first
// byte of a character, 1 for the second, 2 for the third. The result is
// limited to clamp.
func utf8Position(last, c, clamp int) int {
	switch {
	case c < 128:
		return 0
	case c >= 192:
		return minInt(1, clamp)
	case last < 0xE0:
		return 0
	default:
		return minInt(2, clamp)
	}
}

func decideMultiByteStatsLevel(data []byte) int {
	var counts [3]int
	maxUTF8 := 1
	lastC := 0
	for _, b := range data {
		c := int(b)
		counts[utf8Position(lastC, c, 2)]++
		lastC = c
	}
	if counts[2] < 500 {
		maxUTF8 = 1
	}
	if counts[1]+counts[2] < 25 {
		maxUTF8 = 0
	}
	return maxUTF8
}

func estimateBitCostsForLiteralsUTF8(data []byte, cost []float32) {
	maxUTF8 := decideMultiByteStatsLevel(data)
	var histogram [3][256]int
	var inWindowUTF8 [3]int
	const windowHalf = 495
	n := len(data)
	inWindow := minInt(windowHalf, n)

	lastC, utf8Pos := 0, 0
	for i := 0; i < inWindow; i++ {
		c := int(data[i])
		histogram[utf8Pos][c]++
		inWindowUTF8[utf8Pos]++
		utf8Pos = utf8Position(lastC, c, maxUTF8)
		lastC = c
	}

	for i := 0; i < n; i++ {
		if i >= windowHalf {
			// Remove a byte in the past.
			c, lastC := 0, 0
			if i >= windowHalf+1 {
				c = int(data[i-windowHalf-1])
			}
			if i >= windowHalf+2 {
				lastC = int(data[i-windowHalf-2])
			}
			pos2 := utf8Position(lastC, c, maxUTF8)
			histogram[pos2][data[i-windowHalf]]--
			inWindowUTF8[pos2]--
		}
		if i+windowHalf < n {
			// Add a byte in the future.
			c := int(data[i+windowHalf-1])
			lastC := int(data[i+windowHalf-2])
			pos2 := utf8Position(lastC, c, maxUTF8)
			histogram[pos2][data[i+windowHalf]]++
			inWindowUTF8[pos2]++
		}

		c, lastC := 0, 0
		if i >= 1 {
			c = int(data[i-1])
		}
		if i >= 2 {
			lastC = int(data[i-2])
		}
		pos := utf8Position(lastC, c, maxUTF8)
		histo := histogram[pos][data[i]]
		if histo < 1 {
			histo = 1
		}
		litCost := fastLog2(uint(maxInt(inWindowUTF8[pos], 0))) - fastLog2(uint(histo))
		litCost += 0.02905
		if litCost < 1.0 {
			litCost *= 0.5
			litCost += 0.5
		}
		// The start of the data is usually a statistical anomaly, so the
		// first bytes are made more expensive.
		if i < 2000 {
			litCost += 0.7 - (float64(2000-i) / 2000.0 * 0.35)
		}
		cost[i] = float32(litCost)
	}
}

// estimateBitCostsForLiterals fills cost[:len(data)] with an estimate of
// how many bits each byte of data takes as a literal, using byte statistics
// from a sliding window around it.
func estimateBitCostsForLiterals(data []byte, cost []float32) {
	if isMostlyUTF8(data, minUTF8Ratio) {
		estimateBitCostsForLiteralsUTF8(data, cost)
		return
	}

	var histogram [256]int
	const windowHalf = 2000
	n := len(data)
	inWindow := minInt(windowHalf, n)
	for i := 0; i < inWindow; i++ {
		histogram[data[i]]++
	}

	for i := 0; i < n; i++ {
		if i >= windowHalf {
			// Remove a byte in the past.
			histogram[data[i-windowHalf]]--
			inWindow--
		}
		if i+windowHalf < n {
			// Add a byte in the future.
			histogram[data[i+windowHalf]]++
			inWindow++
		}
		histo := histogram[data[i]]
		if histo < 1 {
			histo = 1
		}
		litCost := fastLog2(uint(inWindow)) - fastLog2(uint(histo))
		litCost += 0.029
		if litCost < 1.0 {
			litCost *= 0.5
			litCost += 0.5
		}
		cost[i] = float32(litCost)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
