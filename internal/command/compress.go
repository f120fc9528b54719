package command

import (
	"bytes"
	"io"
	"os"

	"github.com/andybalholm/zopfli"
	"github.com/andybalholm/zopfli/brotli"
	"github.com/andybalholm/zopfli/lz4"
	"github.com/andybalholm/zopfli/snappy"
	"github.com/nuclio/errors"
	"github.com/spf13/cobra"
)

type compressCommandeer struct {
	cmd            *cobra.Command
	rootCommandeer *RootCommandeer
	format         string
	quality        int
	outputPath     string
}

func newCompressCommandeer(rootCommandeer *RootCommandeer) *compressCommandeer {
	commandeer := &compressCommandeer{
		rootCommandeer: rootCommandeer,
	}

	cmd := &cobra.Command{
		Use:   "compress [file]",
		Short: "Compress a file, or standard input",
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

			compressed := new(bytes.Buffer)
			w, err := commandeer.newWriter(compressed)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				return errors.Wrap(err, "Failed to compress")
			}
			if err := w.Close(); err != nil {
				return errors.Wrap(err, "Failed to compress")
			}

			rootCommandeer.loggerInstance.DebugWith("Compressed",
				"format", commandeer.format,
				"quality", w.Parser.Params.Quality,
				"inputBytes", len(data),
				"outputBytes", compressed.Len(),
				"literals", w.Parser.NumLiterals())

			return commandeer.writeOutput(cmd.OutOrStdout(), compressed.Bytes())
		},
	}

	cmd.Flags().StringVarP(&commandeer.format, "format", "f", "brotli", "Output format - brotli / lz4 / snappy / text")
	cmd.Flags().IntVarP(&commandeer.quality, "quality", "q", zopfli.QualityBest, "Quality - 10 (one pass) or 11 (two passes)")
	cmd.Flags().StringVarP(&commandeer.outputPath, "output", "o", "", "Output file (default standard output)")

	commandeer.cmd = cmd

	return commandeer
}

func (c *compressCommandeer) newWriter(dest io.Writer) (*zopfli.Writer, error) {
	config := &c.rootCommandeer.config

	var w *zopfli.Writer
	switch c.format {
	case "brotli":
		w = brotli.NewWriter(dest, c.quality)
	case "lz4":
		w = lz4.NewWriter(dest, c.quality)
	case "snappy":
		w = snappy.NewWriter(dest, c.quality)
	case "text":
		w = brotli.NewWriter(dest, c.quality)
		w.Encoder = zopfli.TextEncoder{}
	default:
		return nil, errors.Errorf("Invalid format %q. Must be one of brotli / lz4 / snappy / text", c.format)
	}

	params := config.mergeParams(w.Parser.Params)
	if c.cmd.Flags().Changed("quality") {
		params.Quality = c.quality
	}
	switch c.format {
	case "lz4", "snappy":
		// Neither format can reach further back than 64 KiB.
		if params.WindowBits > 16 {
			params.WindowBits = 16
		}
	}
	params.ApplyDefaults()
	if err := params.Verify(); err != nil {
		return nil, errors.Wrap(err, "Invalid parameters")
	}
	w.Parser.Params = params

	if config.Finder != "" {
		w.Parser.MatchFinder = config.newMatchFinder(params)()
	}
	if config.BlockSize > 0 && c.format != "snappy" {
		w.BlockSize = config.BlockSize
	}
	if budget := config.newAllocator(); budget != nil {
		w.Parser.Allocator = budget
	}
	w.Logger = c.rootCommandeer.loggerInstance
	w.Parser.Logger = c.rootCommandeer.loggerInstance

	return w, nil
}

func (c *compressCommandeer) writeOutput(stdout io.Writer, compressed []byte) error {
	if c.outputPath == "" {
		_, err := stdout.Write(compressed)
		return errors.Wrap(err, "Failed to write output")
	}

	if err := os.WriteFile(c.outputPath, compressed, 0644); err != nil {
		return errors.Wrapf(err, "Failed to write %s", c.outputPath)
	}
	return nil
}
