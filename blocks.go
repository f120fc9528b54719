package zopfli

import (
	"context"
	"runtime"

	"github.com/nuclio/errors"
	"golang.org/x/sync/errgroup"
)

// BlockOptions configures SolveBlocks.
type BlockOptions struct {
	// BlockSize is the size of each block. The default is 1 << 20.
	BlockSize int

	// Concurrency is the maximum number of blocks parsed at once. The
	// default is GOMAXPROCS.
	Concurrency int

	Params Params

	// NewMatchFinder returns a fresh MatchFinder for each block.
	NewMatchFinder func() MatchFinder

	// Allocator is optional; it is shared by all the blocks.
	Allocator Allocator
}

// SolveBlocks splits data into blocks and parses each one independently,
// in parallel. Every block starts with the default distance cache and ends
// with its literals flushed, so the results can be encoded as independent
// chunks. Cancelling ctx stops blocks that have not started yet; a block
// that has started runs to completion.
func SolveBlocks(ctx context.Context, data []byte, opts BlockOptions) ([]Result, error) {
	if opts.NewMatchFinder == nil {
		return nil, errors.New("No match finder constructor")
	}
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = 1 << 20
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	numBlocks := (len(data) + blockSize - 1) / blockSize
	results := make([]Result, numBlocks)

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < numBlocks; i++ {
		if groupCtx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			start := i * blockSize
			end := minInt(start+blockSize, len(data))
			result, err := CreateBackwardReferences(Input{
				Data:          data[start:end],
				NumBytes:      end - start,
				DistanceCache: DefaultDistanceCache,
				Last:          true,
				MatchFinder:   opts.NewMatchFinder(),
				Params:        opts.Params,
				Allocator:     opts.Allocator,
			})
			if err != nil {
				return errors.Wrapf(err, "Failed to parse block %d", i)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "Parsing was cancelled")
	}
	return results, nil
}
