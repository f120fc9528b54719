package brotli

import (
	"io"

	"github.com/andybalholm/zopfli"
)

// NewWriter returns a new zopfli.Writer that compresses data in Brotli
// format at the given quality. Quality 11 uses the two-pass parser, and
// everything below it is treated as quality 10.
func NewWriter(w io.Writer, quality int) *zopfli.Writer {
	if quality < zopfli.QualityBest {
		quality = zopfli.QualityFast
	}
	params := zopfli.DefaultParams(quality)

	tree := &BinaryTree{WindowBits: int(params.WindowBits)}
	if quality < zopfli.QualityBest {
		tree.ShortMatchDistance = 16
	}

	return &zopfli.Writer{
		Dest: w,
		Parser: &zopfli.Parser{
			MatchFinder: tree,
			Params:      params,
		},
		Encoder:     &Encoder{},
		BlockSize:   1 << 16,
		ChainBlocks: true,
	}
}

// NewHasherWriter is like NewWriter, but it uses a HasherFinder with h
// instead of a BinaryTree. It is faster, but the compression is not as
// good.
func NewHasherWriter(w io.Writer, quality int, h Hasher) *zopfli.Writer {
	zw := NewWriter(w, quality)
	zw.Parser.MatchFinder = &HasherFinder{Hasher: h, ShortMatchDistance: 16}
	return zw
}
