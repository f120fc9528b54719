package zopfli

import (
	"io"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// A Writer compresses data with a Parser and an Encoder, and writes the
// result to Dest.
type Writer struct {
	Dest    io.Writer
	Parser  *Parser
	Encoder Encoder

	// BlockSize is the number of bytes to compress at a time. The default
	// is 1 << 16.
	BlockSize int

	// ChainBlocks allows matches to refer to data in previous blocks.
	// If it is false, each block is compressed independently.
	//
	// When blocks are chained, literals at the end of a block are held back
	// and emitted with the next one. Once BlockSize literals are pending,
	// they are flushed at the end of the next block, which keeps the
	// Encoder's input under 3*BlockSize bytes.
	ChainBlocks bool

	// MaxHistory is the limit on how much data is kept around to look for
	// matches in. When it is exceeded, the history is trimmed down to
	// MinHistory bytes. The defaults are 1 << 24 and 1 << 22.
	MaxHistory int
	MinHistory int

	// Logger is optional.
	Logger logger.Logger

	buf      []byte
	history  []byte
	encStart int
	commands []Command
	matches  []Match
	out      []byte
	err      error
}

func (w *Writer) applyDefaults() {
	if w.BlockSize == 0 {
		w.BlockSize = 1 << 16
	}
	if w.MaxHistory == 0 {
		w.MaxHistory = 1 << 24
	}
	if w.MinHistory == 0 {
		w.MinHistory = 1 << 22
	}
}

func (w *Writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	w.applyDefaults()

	for len(p) > 0 {
		// A full block is only compressed once more data arrives, so that
		// Close always has a non-empty last block unless the stream is
		// empty.
		if len(w.buf) == w.BlockSize {
			if err := w.writeBlock(w.buf, false); err != nil {
				return n, err
			}
			w.buf = w.buf[:0]
		}

		free := w.BlockSize - len(w.buf)
		if free > len(p) {
			free = len(p)
		}
		w.buf = append(w.buf, p[:free]...)
		p = p[free:]
		n += free
	}
	return n, nil
}

// Close compresses any buffered data and writes the end of the stream. It
// does not close Dest.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	w.applyDefaults()
	err := w.writeBlock(w.buf, true)
	w.buf = w.buf[:0]
	if err == nil {
		w.err = errors.New("Writer is closed")
	}
	return err
}

// Reset discards the Writer's state and makes it equivalent to the result
// of its original state, but writing to dest instead.
func (w *Writer) Reset(dest io.Writer) {
	w.Dest = dest
	w.buf = w.buf[:0]
	w.history = w.history[:0]
	w.encStart = 0
	w.err = nil
	w.Parser.Reset()
	w.Encoder.Reset()
}

func (w *Writer) writeBlock(block []byte, lastBlock bool) error {
	if !w.ChainBlocks {
		w.history = w.history[:0]
		w.encStart = 0
		w.Parser.Reset()
	} else if len(w.history)+len(block) > w.MaxHistory {
		w.trimHistory()
	}

	start := len(w.history)
	w.history = append(w.history, block...)
	cache := w.Parser.DistanceCache()
	flush := lastBlock || !w.ChainBlocks || w.Parser.PendingLiterals() >= w.BlockSize

	var err error
	w.commands, err = w.Parser.Parse(w.commands[:0], w.history, start, len(w.history), flush)
	if err != nil {
		w.err = errors.Wrap(err, "Failed to parse block")
		return w.err
	}
	w.matches, _, err = ResolveMatches(w.matches[:0], w.commands, cache)
	if err != nil {
		w.err = errors.Wrap(err, "Failed to resolve matches")
		return w.err
	}

	end := len(w.history) - w.Parser.PendingLiterals()
	if end == w.encStart && !lastBlock {
		// Everything is still pending.
		return nil
	}
	w.out = w.Encoder.Encode(w.out[:0], w.history[w.encStart:end], w.matches, lastBlock)
	w.encStart = end

	if _, err := w.Dest.Write(w.out); err != nil {
		w.err = errors.Wrap(err, "Failed to write compressed data")
		return w.err
	}
	return nil
}

// trimHistory drops old data from the history buffer and rebuilds the
// match finder's index over what is left.
func (w *Writer) trimHistory() {
	delta := len(w.history) - w.MinHistory
	if delta > w.encStart {
		delta = w.encStart
	}
	if delta <= 0 {
		return
	}
	copy(w.history, w.history[delta:])
	w.history = w.history[:len(w.history)-delta]
	w.encStart -= delta

	mf := w.Parser.MatchFinder
	mf.Reset()
	storeEnd := len(w.history) - mf.StoreLookahead() + 1
	for i := 0; i < storeEnd; i++ {
		mf.StoreRange(w.history, i, i+1)
	}

	if w.Logger != nil {
		w.Logger.DebugWith("Trimmed history", "dropped", delta, "kept", len(w.history))
	}
}
