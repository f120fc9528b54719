// Package corpus generates deterministic test data for the compressors.
package corpus

import "math/rand"

var words = []string{
	"the", "of", "and", "to", "in", "light", "rays", "colours", "which", "is",
	"that", "be", "by", "as", "refracted", "prism", "with", "glass", "are", "it",
	"reflected", "from", "or", "more", "same", "this", "at", "their", "so", "experiment",
	"white", "red", "violet", "yellow", "green", "blue", "than", "lens", "angle", "incidence",
	"paper", "hole", "window", "image", "sun", "were", "bodies", "motion", "parts", "any",
}

var punctuation = []string{" ", " ", " ", " ", " ", ", ", ". ", "; ", ".\n"}

// Text returns n bytes of English-like text. The same seed always
// produces the same text.
func Text(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, n+16)
	for len(b) < n {
		b = append(b, words[r.Intn(len(words))]...)
		b = append(b, punctuation[r.Intn(len(punctuation))]...)
	}
	return b[:n]
}

// Random returns n bytes of incompressible data.
func Random(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

// Mixed returns text with runs of random bytes and long repeats mixed in,
// to exercise long matches, far distances and literal runs in one input.
func Mixed(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, n+4096)
	for len(b) < n {
		switch r.Intn(4) {
		case 0:
			b = append(b, Random(1+r.Intn(200), r.Int63())...)
		case 1:
			if len(b) > 0 {
				start := r.Intn(len(b))
				length := 1 + r.Intn(1000)
				for i := 0; i < length; i++ {
					b = append(b, b[start+i])
				}
				break
			}
			fallthrough
		default:
			b = append(b, Text(1+r.Intn(2000), r.Int63())...)
		}
	}
	return b[:n]
}
