package brotli

// A CompositeHasher wraps two Hashers and combines their output. A
// position found by both is reported twice; HasherFinder keeps only one.
type CompositeHasher struct {
	A, B Hasher
}

func (h CompositeHasher) Init() {
	h.A.Init()
	h.B.Init()
}

func (h CompositeHasher) Lookahead() int {
	a, b := h.A.Lookahead(), h.B.Lookahead()
	if a > b {
		return a
	}
	return b
}

func (h CompositeHasher) Store(data []byte, index int) {
	h.A.Store(data, index)
	h.B.Store(data, index)
}

func (h CompositeHasher) Candidates(dst []int, data []byte, index, maxDistance int) []int {
	dst = h.A.Candidates(dst, data, index, maxDistance)
	return h.B.Candidates(dst, data, index, maxDistance)
}
