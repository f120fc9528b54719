package zopfli

// posData is a candidate start position for a command.
type posData struct {
	pos           int
	distanceCache [4]int
	costdiff      float32
	cost          float32
}

// startPosQueueSize is the capacity of a startPosQueue.
const startPosQueueSize = 8

// A startPosQueue holds the most profitable recent start positions, sorted
// by increasing costdiff. Pushing to a full queue overwrites the entry with
// the highest costdiff, even if the new entry is worse.
type startPosQueue struct {
	q   [startPosQueueSize]posData
	idx uint
}

func (s *startPosQueue) size() int {
	return int(minUint(s.idx, startPosQueueSize))
}

func (s *startPosQueue) push(p *posData) {
	offset := ^s.idx & 7
	s.idx++
	n := s.size()
	q := &s.q
	q[offset] = *p

	// Restore the sorted order. In the list of n items at most n-1 adjacent
	// element comparisons / swaps are required.
	for i := 1; i < n; i++ {
		if q[offset&7].costdiff > q[(offset+1)&7].costdiff {
			q[offset&7], q[(offset+1)&7] = q[(offset+1)&7], q[offset&7]
		}
		offset++
	}
}

// at returns the k-th best start position.
func (s *startPosQueue) at(k int) *posData {
	return &s.q[(uint(k)-s.idx)&7]
}

func minUint(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}
