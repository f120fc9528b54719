package zopfli

import "math"

// createCommands appends the commands on the path linked by
// computeShortestPathFromNodes to commands. The literals left after the
// last copy are added to *lastInsertLen instead of being emitted.
func createCommands(numBytes, blockStart int, nodes []zopfliNode, distCache *[4]int, lastInsertLen *int, maxBackwardLimit int, commands []Command, numLiterals *int) []Command {
	pos := 0
	offset := nodes[0].next
	for i := 0; offset != math.MaxUint32; i++ {
		next := &nodes[pos+int(offset)]
		copyLength := next.copyLength()
		insertLength := int(next.insertLength)
		pos += insertLength
		offset = next.next
		if i == 0 {
			insertLength += *lastInsertLen
			*lastInsertLen = 0
		}

		distance := next.copyDistance()
		lenCode := next.lengthCode()
		maxDistance := minInt(blockStart+pos, maxBackwardLimit)
		isDictionary := distance > maxDistance
		distCode := next.distanceCode()
		commands = append(commands, newCommand(uint(insertLength), uint(copyLength), lenCode-copyLength, uint(distCode)))

		if !isDictionary && distCode > 0 {
			distCache[3] = distCache[2]
			distCache[2] = distCache[1]
			distCache[1] = distCache[0]
			distCache[0] = distance
		}

		*numLiterals += insertLength
		pos += copyLength
	}
	*lastInsertLen += numBytes - pos
	return commands
}
