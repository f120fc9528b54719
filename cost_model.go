package zopfli

// costInfinity is the initial cost of every node but the first.
const costInfinity float32 = 1.7e38

// A costModel estimates the number of bits that literals, commands and
// distance symbols take.
type costModel struct {
	costCmd  [numCommandSymbols]float32
	costDist []float32

	// literalCosts[i] is the cost of the literals in [0, i) of the block.
	literalCosts []float32

	minCostCmd float32
	numBytes   int
}

func newCostModel(numBytes, distanceAlphabetSize int) *costModel {
	return &costModel{
		costDist:     make([]float32, minInt(distanceAlphabetSize, maxEffectiveDistanceAlphabetSize)),
		literalCosts: make([]float32, numBytes+2),
		numBytes:     numBytes,
	}
}

// costModelSize is the number of bytes a costModel for numBytes needs,
// for the Allocator.
func costModelSize(numBytes, distanceAlphabetSize int) int {
	return 4 * (numCommandSymbols + minInt(distanceAlphabetSize, maxEffectiveDistanceAlphabetSize) + numBytes + 2)
}

// setCost assigns Shannon costs from a histogram. Symbols that were never
// seen cost 2 bits more than a symbol seen once in a histogram that also
// counted them; seen symbols cost at least one bit.
func setCost(histogram []uint32, literalHistogram bool, cost []float32) {
	sum := uint(0)
	for _, h := range histogram {
		sum += uint(h)
	}
	log2sum := float32(fastLog2(sum))

	missingSymbolSum := sum
	if !literalHistogram {
		for _, h := range histogram {
			if h == 0 {
				missingSymbolSum++
			}
		}
	}
	missingSymbolCost := float32(fastLog2(missingSymbolSum)) + 2

	for i, h := range histogram {
		if h == 0 {
			cost[i] = missingSymbolCost
			continue
		}
		cost[i] = log2sum - float32(fastLog2(uint(h)))
		if cost[i] < 1 {
			cost[i] = 1
		}
	}
}

// setFromCommands reseeds the model from the statistics of commands, which
// were produced for the numBytes bytes of data starting at position.
// lastInsertLen is the number of literals that were carried into the first
// command from before position.
func (m *costModel) setFromCommands(data []byte, position int, commands []Command, lastInsertLen int) {
	var histogramLiteral [numLiteralSymbols]uint32
	var histogramCmd [numCommandSymbols]uint32
	var histogramDist [maxEffectiveDistanceAlphabetSize]uint32
	var costLiteral [numLiteralSymbols]float32

	pos := position - lastInsertLen
	for _, c := range commands {
		histogramCmd[c.cmdPrefix]++
		if c.usesDistance() {
			histogramDist[c.distPrefix&0x3FF]++
		}
		for j := 0; j < int(c.InsertLen); j++ {
			if pos+j >= 0 {
				histogramLiteral[data[pos+j]]++
			}
		}
		pos += int(c.InsertLen) + int(c.CopyLen)
	}

	setCost(histogramLiteral[:], true, costLiteral[:])
	setCost(histogramCmd[:], false, m.costCmd[:])
	setCost(histogramDist[:len(m.costDist)], false, m.costDist)

	m.minCostCmd = costInfinity
	for _, c := range m.costCmd {
		if c < m.minCostCmd {
			m.minCostCmd = c
		}
	}

	literalCosts := m.literalCosts
	var literalCarry float32
	literalCosts[0] = 0
	for i := 0; i < m.numBytes; i++ {
		literalCarry += costLiteral[data[position+i]]
		literalCosts[i+1] = literalCosts[i] + literalCarry
		literalCarry -= literalCosts[i+1] - literalCosts[i]
	}
}

// setFromLiteralCosts seeds the model from byte statistics of the block
// and a generic prior for commands and distances.
func (m *costModel) setFromLiteralCosts(data []byte, position int) {
	literalCosts := m.literalCosts
	estimateBitCostsForLiterals(data[position:position+m.numBytes], literalCosts[1:])

	var literalCarry float32
	literalCosts[0] = 0
	for i := 0; i < m.numBytes; i++ {
		literalCarry += literalCosts[i+1]
		literalCosts[i+1] = literalCosts[i] + literalCarry
		literalCarry -= literalCosts[i+1] - literalCosts[i]
	}

	for i := range m.costCmd {
		m.costCmd[i] = float32(fastLog2(uint(11 + i)))
	}
	for i := range m.costDist {
		m.costDist[i] = float32(fastLog2(uint(20 + i)))
	}
	m.minCostCmd = float32(fastLog2(11))
}

func (m *costModel) commandCost(cmdcode uint16) float32 {
	return m.costCmd[cmdcode]
}

func (m *costModel) distanceCost(distcode int) float32 {
	return m.costDist[distcode]
}

func (m *costModel) literalCost(from, to int) float32 {
	return m.literalCosts[to] - m.literalCosts[from]
}

func (m *costModel) minCommandCost() float32 {
	return m.minCostCmd
}

// estimateCost returns the estimated number of bits to encode commands and
// the literals after the last copy, for the numBytes bytes at position.
// The literals carried in from the previous block are not counted.
func (m *costModel) estimateCost(commands []Command, lastInsertLen int) float32 {
	var total float32
	pos := -lastInsertLen
	for _, c := range commands {
		from := maxInt(pos, 0)
		pos += int(c.InsertLen)
		total += m.literalCost(from, maxInt(pos, 0))
		total += m.commandCost(c.cmdPrefix) + float32(c.extraBits())
		if c.usesDistance() {
			total += m.distanceCost(int(c.distPrefix & 0x3FF))
		}
		pos += int(c.CopyLen)
	}
	if pos < m.numBytes {
		total += m.literalCost(maxInt(pos, 0), m.numBytes)
	}
	return total
}
