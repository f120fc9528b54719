package command

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/andybalholm/zopfli"
	zbrotli "github.com/andybalholm/zopfli/brotli"
	zlz4 "github.com/andybalholm/zopfli/lz4"
	zsnappy "github.com/andybalholm/zopfli/snappy"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/nuclio/errors"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type compareCommandeer struct {
	cmd            *cobra.Command
	rootCommandeer *RootCommandeer
	concurrency    int
}

func newCompareCommandeer(rootCommandeer *RootCommandeer) *compareCommandeer {
	commandeer := &compareCommandeer{
		rootCommandeer: rootCommandeer,
	}

	cmd := &cobra.Command{
		Use:   "compare [file]",
		Short: "Compare the compressed size with other compressors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			// initialize root
			if err := rootCommandeer.initialize(); err != nil {
				return errors.Wrap(err, "Failed to initialize root")
			}

			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			results, err := runCompressors(compressors(), data, commandeer.concurrency)
			if err != nil {
				return err
			}
			for _, r := range results {
				rootCommandeer.loggerInstance.DebugWith("Compressed", "name", r.name, "bytes", r.size, "duration", r.duration)
			}

			printComparison(cmd.OutOrStdout(), len(data), results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&commandeer.concurrency, "concurrency", "j", 2, "Number of compressors to run at once")

	commandeer.cmd = cmd

	return commandeer
}

type compressor struct {
	name     string
	compress func(dst io.Writer, data []byte) error
}

type comparison struct {
	name     string
	size     int
	duration time.Duration
}

// writeAll writes data to w and closes it.
func writeAll(w io.WriteCloser, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}

func zopfliCompressor(name string, newWriter func(io.Writer, int) *zopfli.Writer, quality int) compressor {
	return compressor{
		name: name,
		compress: func(dst io.Writer, data []byte) error {
			return writeAll(newWriter(dst, quality), data)
		},
	}
}

func compressors() []compressor {
	return []compressor{
		zopfliCompressor("zopfli brotli q10", zbrotli.NewWriter, 10),
		zopfliCompressor("zopfli brotli q11", zbrotli.NewWriter, 11),
		zopfliCompressor("zopfli lz4 q11", zlz4.NewWriter, 11),
		zopfliCompressor("zopfli snappy q11", zsnappy.NewWriter, 11),
		{
			name: "brotli 11",
			compress: func(dst io.Writer, data []byte) error {
				return writeAll(brotli.NewWriterLevel(dst, brotli.BestCompression), data)
			},
		},
		{
			name: "lz4 9",
			compress: func(dst io.Writer, data []byte) error {
				w := lz4.NewWriter(dst)
				if err := w.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
					return err
				}
				return writeAll(w, data)
			},
		},
		{
			name: "snappy",
			compress: func(dst io.Writer, data []byte) error {
				return writeAll(snappy.NewBufferedWriter(dst), data)
			},
		},
		{
			name: "zstd better",
			compress: func(dst io.Writer, data []byte) error {
				enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
				if err != nil {
					return err
				}
				defer enc.Close()
				_, err = dst.Write(enc.EncodeAll(data, nil))
				return err
			},
		},
	}
}

// runCompressors runs each compressor on data, at most concurrency at a
// time, and returns the results sorted by size.
func runCompressors(list []compressor, data []byte, concurrency int) ([]comparison, error) {
	results := make([]comparison, len(list))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, c := range list {
		i, c := i, c
		g.Go(func() error {
			var buf bytes.Buffer
			start := time.Now()
			if err := c.compress(&buf, data); err != nil {
				return errors.Wrapf(err, "Failed to compress with %s", c.name)
			}
			results[i] = comparison{
				name:     c.name,
				size:     buf.Len(),
				duration: time.Since(start),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].size < results[j].size
	})
	return results, nil
}

func printComparison(out io.Writer, inputBytes int, results []comparison) {
	fmt.Fprintf(out, "%-20s %12s %8s %12s\n", "compressor", "bytes", "ratio", "time")
	for _, r := range results {
		ratio := 0.0
		if r.size > 0 {
			ratio = float64(inputBytes) / float64(r.size)
		}
		fmt.Fprintf(out, "%-20s %12d %8.3f %12s\n", r.name, r.size, ratio, r.duration.Round(time.Millisecond))
	}
}
