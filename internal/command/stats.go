package command

import (
	"fmt"
	"io"

	"github.com/andybalholm/zopfli"
	"github.com/nuclio/errors"
	"github.com/spf13/cobra"
)

type statsCommandeer struct {
	cmd            *cobra.Command
	rootCommandeer *RootCommandeer
	quality        int
	showBlocks     bool
}

func newStatsCommandeer(rootCommandeer *RootCommandeer) *statsCommandeer {
	commandeer := &statsCommandeer{
		rootCommandeer: rootCommandeer,
	}

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Parse a file in independent blocks and print statistics about the parse",
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

			config := &rootCommandeer.config
			params := config.mergeParams(zopfli.Params{})
			if cmd.Flags().Changed("quality") || params.Quality == 0 {
				params.Quality = commandeer.quality
			}
			params.ApplyDefaults()

			opts := zopfli.BlockOptions{
				BlockSize:      config.BlockSize,
				Concurrency:    config.Concurrency,
				Params:         params,
				NewMatchFinder: config.newMatchFinder(params),
			}
			budget := config.newAllocator()
			if budget != nil {
				opts.Allocator = budget
			}

			results, err := zopfli.SolveBlocks(cmd.Context(), data, opts)
			if err != nil {
				return errors.Wrap(err, "Failed to parse")
			}

			summary := summarize(results)
			if budget != nil {
				summary.PeakMemory = budget.Peak()
			}
			rootCommandeer.loggerInstance.DebugWith("Parsed", "blocks", len(results), "summary", summary)

			return commandeer.print(cmd.OutOrStdout(), len(data), results, summary)
		},
	}

	cmd.Flags().IntVarP(&commandeer.quality, "quality", "q", zopfli.QualityBest, "Quality - 10 (one pass) or 11 (two passes)")
	cmd.Flags().BoolVarP(&commandeer.showBlocks, "blocks", "b", false, "Print a line for each block")

	commandeer.cmd = cmd

	return commandeer
}

// parseSummary holds the totals over all blocks.
type parseSummary struct {
	Commands   int
	Copies     int
	Literals   int
	CopyBytes  int
	Bits       float64
	PeakMemory int
}

func summarize(results []zopfli.Result) parseSummary {
	var s parseSummary
	for _, r := range results {
		s.Commands += len(r.Commands)
		s.Literals += r.NumLiterals
		s.Bits += float64(r.Cost)
		for _, c := range r.Commands {
			if c.CopyLen > 0 {
				s.Copies++
				s.CopyBytes += int(c.CopyLen)
			}
		}
	}
	return s
}

func (c *statsCommandeer) print(out io.Writer, inputBytes int, results []zopfli.Result, s parseSummary) error {
	if c.showBlocks {
		for i, r := range results {
			fmt.Fprintf(out, "block %d: %d commands, %d literals, %.0f bits\n", i, len(r.Commands), r.NumLiterals, r.Cost)
		}
	}

	fmt.Fprintf(out, "input:     %d bytes in %d blocks\n", inputBytes, len(results))
	fmt.Fprintf(out, "commands:  %d (%d copies)\n", s.Commands, s.Copies)
	fmt.Fprintf(out, "literals:  %d bytes\n", s.Literals)
	fmt.Fprintf(out, "copied:    %d bytes\n", s.CopyBytes)
	fmt.Fprintf(out, "estimated: %.0f bytes", s.Bits/8)
	if s.Bits > 0 {
		fmt.Fprintf(out, " (ratio %.3f)", float64(inputBytes)*8/s.Bits)
	}
	fmt.Fprintln(out)
	if s.PeakMemory > 0 {
		fmt.Fprintf(out, "memory:    %d bytes at peak\n", s.PeakMemory)
	}
	return nil
}
