package brotli

// A Hasher maintains a hash table for finding backreferences in data.
type Hasher interface {
	// Init allocates the Hasher's internal storage, or clears it if
	// it is already allocated. Init must be called before any of the other
	// methods.
	Init()

	// Lookahead is the number of bytes the Hasher reads at each index.
	// Store and Candidates must not be called for an index with fewer
	// bytes than that left in data.
	Lookahead() int

	// Store puts an entry in the hash table for the data at index.
	Store(data []byte, index int)

	// Candidates hashes the data at index, appends the earlier positions
	// with the same hash that are no more than maxDistance back to dst,
	// and stores index in the table.
	Candidates(dst []int, data []byte, index, maxDistance int) []int
}

// buckets is the storage shared by H5 and H6: 1<<bucketBits buckets of
// 1<<blockBits positions each, used as ring buffers. Positions are stored
// plus one, so that a zero entry is empty.
type buckets struct {
	blockBits int
	blockMask int

	num     []uint16
	entries []uint32
}

func (b *buckets) init(bucketBits, blockBits int) {
	b.blockBits = blockBits
	b.blockMask = 1<<blockBits - 1
	bucketCount := 1 << bucketBits

	if len(b.num) != bucketCount {
		b.num = make([]uint16, bucketCount)
	} else {
		for i := range b.num {
			b.num[i] = 0
		}
	}

	if len(b.entries) != bucketCount<<blockBits {
		b.entries = make([]uint32, bucketCount<<blockBits)
	} else {
		for i := range b.entries {
			b.entries[i] = 0
		}
	}
}

func (b *buckets) store(key int, index int) {
	bucket := b.entries[key<<b.blockBits:]
	bucket[int(b.num[key])&b.blockMask] = uint32(index + 1)
	b.num[key]++
}

// candidates appends the positions in bucket key, newest first, stopping
// at the first one farther back than maxDistance.
func (b *buckets) candidates(dst []int, key, index, maxDistance int) []int {
	bucket := b.entries[key<<b.blockBits:]
	n := int(b.num[key])
	down := 0
	if n > b.blockMask+1 {
		down = n - b.blockMask - 1
	}
	for i := n; i > down; {
		i--
		e := bucket[i&b.blockMask]
		if e == 0 {
			break
		}
		c := int(e) - 1
		if c >= index {
			continue
		}
		if index-c > maxDistance {
			break
		}
		dst = append(dst, c)
	}
	return dst
}
