package zopfli

// Short distance codes select one of the last four distances
// (kDistanceCacheIndex) and add a small offset to it (kDistanceCacheOffset).
var kDistanceCacheIndex = [numDistanceShortCodes]int{
	0, 1, 2, 3, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1,
}

var kDistanceCacheOffset = [numDistanceShortCodes]int{
	0, 0, 0, 0, -1, 1, -2, 2, -3, 3, -1, 1, -2, 2, -3, 3,
}

// A pathSearch holds the state of one shortest path computation over a
// block.
//
// Every reached node i satisfies:
//  1. nodes[i].copyLength() >= 2,
//  2. nodes[i].commandLength() <= i,
//  3. nodes[i - nodes[i].commandLength()] is reached, with a cost that is
//     not higher.
type pathSearch struct {
	data     []byte
	position int
	numBytes int
	params   *Params

	maxBackwardLimit  int
	startingDistCache [4]int

	model *costModel
	queue startPosQueue
	nodes []zopfliNode
}

func newPathSearch(data []byte, position, numBytes int, params *Params, maxBackwardLimit int, distCache [4]int, model *costModel, nodes []zopfliNode) *pathSearch {
	s := &pathSearch{
		data:              data,
		position:          position,
		numBytes:          numBytes,
		params:            params,
		maxBackwardLimit:  maxBackwardLimit,
		startingDistCache: distCache,
		model:             model,
		nodes:             nodes,
	}
	nodes[0].length = 0
	nodes[0].cost = 0
	return s
}

// computeMinimumCopyLength returns the shortest copy length that could
// improve a node after pos, for a command whose cost is at least startCost.
func computeMinimumCopyLength(startCost float32, nodes []zopfliNode, numBytes, pos int) int {
	// Compute the minimum possible cost of reaching any future position.
	minCost := startCost
	length := 2
	nextLenBucket := 4
	nextLenOffset := 10
	for pos+length <= numBytes && nodes[pos+length].cost <= minCost {
		// We already reached (pos + length) with no more cost than the
		// minimum possible cost of reaching anything from this pos, so
		// there is no point in looking for lengths <= length.
		length++
		if length == nextLenOffset {
			// We reached the next copy length code bucket, so we add one
			// more extra bit to the minimum cost.
			minCost += 1.0
			nextLenOffset += nextLenBucket
			nextLenBucket *= 2
		}
	}
	return length
}

// computeDistanceShortcut returns the position of the nearest node at or
// before pos whose command pushed a distance into the distance cache.
// The copy of the command ending at pos starts at position+pos-clen.
// Distances beyond that, or beyond the window, are static dictionary
// references; they and distance code 0 leave the cache alone.
func (s *pathSearch) computeDistanceShortcut(pos int) uint32 {
	nodes := s.nodes
	if pos == 0 {
		return 0
	}
	clen := nodes[pos].copyLength()
	ilen := int(nodes[pos].insertLength)
	dist := nodes[pos].copyDistance()
	if dist+clen <= s.position+pos && dist <= s.maxBackwardLimit && nodes[pos].distanceCode() > 0 {
		return uint32(pos)
	}
	return nodes[pos-clen-ilen].shortcut
}

// computeDistanceCache returns the last four distances as they would be at
// pos if the best path found so far to pos was used.
func (s *pathSearch) computeDistanceCache(pos int) [4]int {
	var distCache [4]int
	nodes := s.nodes
	idx := 0
	p := int(nodes[pos].shortcut)
	for idx < 4 && p > 0 {
		ilen := int(nodes[p].insertLength)
		clen := nodes[p].copyLength()
		distCache[idx] = nodes[p].copyDistance()
		idx++
		// p >= clen + ilen >= 2, since nodes[p] is reached.
		p = int(nodes[p-clen-ilen].shortcut)
	}
	for j := 0; idx < 4; idx, j = idx+1, j+1 {
		distCache[idx] = s.startingDistCache[j]
	}
	return distCache
}

// evaluateNode computes the shortcut for a reached node and pushes it to
// the queue if it is no more expensive than coding everything up to it as
// literals.
func (s *pathSearch) evaluateNode(pos int) {
	node := &s.nodes[pos]
	nodeCost := node.cost
	node.shortcut = s.computeDistanceShortcut(pos)
	literalCost := s.model.literalCost(0, pos)
	if nodeCost <= literalCost {
		p := posData{
			pos:           pos,
			cost:          nodeCost,
			costdiff:      nodeCost - literalCost,
			distanceCache: s.computeDistanceCache(pos),
		}
		s.queue.push(&p)
	}
}

// updateNodes tries commands that start at one of the queued positions,
// insert the literals up to pos, and copy from pos. matches are the
// candidates the MatchFinder found at pos. It returns the longest copy
// length that improved a node.
func (s *pathSearch) updateNodes(pos int, matches []BackwardMatch) int {
	data := s.data
	nodes := s.nodes
	model := s.model
	curIx := s.position + pos
	maxDistance := minInt(curIx, s.maxBackwardLimit)
	maxLen := s.numBytes - pos
	maxZopfliLen := s.params.MaxZopfliLen
	maxIters := s.params.MaxZopfliCandidates
	result := 0

	s.evaluateNode(pos)

	var minLen int
	{
		p := s.queue.at(0)
		minCost := p.cost + model.minCommandCost() + model.literalCost(p.pos, pos)
		minLen = computeMinimumCopyLength(minCost, nodes, s.numBytes, pos)
	}

	// Go over the command starting positions in order of increasing cost
	// difference.
	for k := 0; k < maxIters && k < s.queue.size(); k++ {
		p := s.queue.at(k)
		start := p.pos
		inscode := getInsertLengthCode(uint(pos - start))
		startCostdiff := p.costdiff
		baseCost := startCostdiff + float32(insertExtra(inscode)) + model.literalCost(0, pos)

		// Look for last distance matches using the distance cache from this
		// starting position.
		bestLen := minLen - 1
		for j := 0; j < numDistanceShortCodes && bestLen < maxLen; j++ {
			backward := p.distanceCache[kDistanceCacheIndex[j]] + kDistanceCacheOffset[j]
			if backward > maxDistance {
				// A static dictionary reference, or out of the window.
				continue
			}
			if backward <= 0 {
				continue
			}
			prevIx := curIx - backward
			if data[curIx+bestLen] != data[prevIx+bestLen] {
				continue
			}
			length := findMatchLengthWithLimit(data, prevIx, curIx, maxLen)

			distCost := baseCost + model.distanceCost(j)
			for l := bestLen + 1; l <= length; l++ {
				copycode := getCopyLengthCode(uint(l))
				cmdcode := combineLengthCodes(inscode, copycode, j == 0)
				cost := distCost
				if cmdcode < 128 {
					cost = baseCost
				}
				cost += float32(copyExtra(copycode)) + model.commandCost(cmdcode)
				if cost < nodes[pos+l].cost {
					updateZopfliNode(nodes, pos, start, l, l, backward, j+1, cost)
					result = maxInt(result, l)
				}
				bestLen = l
			}
		}

		// At higher iterations look only for new last distance matches,
		// since looking only for new command start positions with the same
		// distances does not help much.
		if k >= 2 {
			continue
		}

		// Loop through all possible copy lengths at this position.
		length := minLen
		for _, match := range matches {
			dist := match.Distance
			isDictionaryMatch := dist > maxDistance
			// All possible last distance matches were tried above, so the
			// normal distance code is used here.
			distCode := uint(dist + numDistanceShortCodes - 1)
			var distSymbol uint16
			var distExtra uint32
			prefixEncodeCopyDistance(distCode, s.params.NumDirectDistanceCodes, s.params.DistancePostfixBits, &distSymbol, &distExtra)
			distNumExtra := uint32(distSymbol) >> 10
			distCost := baseCost + float32(distNumExtra) + model.distanceCost(int(distSymbol&0x3FF))

			// Try all copy lengths up to the length of this match. For
			// dictionary references and very long matches, only the full
			// length is tried.
			maxMatchLen := match.Length
			if length < maxMatchLen && (isDictionaryMatch || maxMatchLen > maxZopfliLen) {
				length = maxMatchLen
			}
			for ; length <= maxMatchLen; length++ {
				lenCode := length
				if isDictionaryMatch {
					lenCode = match.lengthCode()
				}
				copycode := getCopyLengthCode(uint(lenCode))
				cmdcode := combineLengthCodes(inscode, copycode, false)
				cost := distCost + float32(copyExtra(copycode)) + model.commandCost(cmdcode)
				if cost < nodes[pos+length].cost {
					updateZopfliNode(nodes, pos, start, length, lenCode, dist, 0, cost)
					result = maxInt(result, length)
				}
			}
		}
	}

	return result
}

// findMatchLengthWithLimit returns how many bytes at prev match the bytes
// at cur, up to limit.
func findMatchLengthWithLimit(data []byte, prev, cur, limit int) int {
	return extendMatch(data[:cur+limit], prev, cur) - cur
}

// iterate runs the search over precomputed matches: numMatches[i] is the
// number of matches for position i, stored consecutively in matches.
// It returns the number of commands on the shortest path.
func (s *pathSearch) iterate(hashLen int, numMatches []uint32, matches []BackwardMatch) int {
	curMatchPos := 0
	for i := 0; i+hashLen-1 < s.numBytes; i++ {
		n := int(numMatches[i])
		skip := s.updateNodes(i, matches[curMatchPos:curMatchPos+n])
		if skip < s.params.LongCopyQuickStep {
			skip = 0
		}
		curMatchPos += n
		if n == 1 && matches[curMatchPos-1].Length > s.params.MaxZopfliLen {
			skip = maxInt(matches[curMatchPos-1].Length, skip)
		}
		if skip > 1 {
			skip--
			for skip != 0 {
				i++
				if i+hashLen-1 >= s.numBytes {
					break
				}
				s.evaluateNode(i)
				curMatchPos += int(numMatches[i])
				skip--
			}
		}
	}
	return computeShortestPathFromNodes(s.numBytes, s.nodes)
}
