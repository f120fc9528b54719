package zopfli

import (
	"sync"

	"github.com/nuclio/errors"
)

// ErrOutOfMemory is the root cause of every error caused by an Allocator
// refusing a request.
var ErrOutOfMemory = errors.New("Out of memory")

// An Allocator accounts for the working memory of the parser. Acquire is
// called before a buffer of count elements of size bytes is allocated, and
// Release after the buffer is no longer used. If Acquire fails, the parse is
// abandoned and nothing it produced is returned.
type Allocator interface {
	Acquire(count, size int) error
	Release(count, size int)
}

// A Budget is an Allocator that limits the total number of bytes in use.
// It is safe for concurrent use, so one Budget can be shared by blocks
// that are parsed in parallel.
type Budget struct {
	limit int

	mu    sync.Mutex
	inUse int
	peak  int
}

// NewBudget returns a Budget that allows up to limit bytes.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

func (b *Budget) Acquire(count, size int) error {
	n := count * size
	b.mu.Lock()
	defer b.mu.Unlock()
	if count < 0 || size < 0 || b.inUse+n > b.limit {
		return errors.Wrapf(ErrOutOfMemory, "Failed to acquire %d bytes (%d of %d in use)", n, b.inUse, b.limit)
	}
	b.inUse += n
	if b.inUse > b.peak {
		b.peak = b.inUse
	}
	return nil
}

func (b *Budget) Release(count, size int) {
	b.mu.Lock()
	b.inUse -= count * size
	b.mu.Unlock()
}

// InUse returns the number of bytes currently acquired.
func (b *Budget) InUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inUse
}

// Peak returns the largest number of bytes that were in use at once.
func (b *Budget) Peak() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

// arena tracks the buffers acquired for one parse, so that they can all be
// released together.
type arena struct {
	alloc Allocator
	held  [][2]int
}

func (a *arena) acquire(count, size int) error {
	if a.alloc == nil {
		return nil
	}
	if err := a.alloc.Acquire(count, size); err != nil {
		return err
	}
	a.held = append(a.held, [2]int{count, size})
	return nil
}

// release returns one buffer acquired earlier with the same count and size.
func (a *arena) release(count, size int) {
	if a.alloc == nil {
		return
	}
	for i, h := range a.held {
		if h == [2]int{count, size} {
			a.alloc.Release(count, size)
			a.held = append(a.held[:i], a.held[i+1:]...)
			return
		}
	}
}

func (a *arena) releaseAll() {
	if a.alloc == nil {
		return
	}
	for _, h := range a.held {
		a.alloc.Release(h[0], h[1])
	}
	a.held = a.held[:0]
}
