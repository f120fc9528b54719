package lz4

import (
	"encoding/binary"
	"hash"
	"io"

	"github.com/andybalholm/zopfli"
	"github.com/pierrec/xxHash/xxHash32"
)

// A FrameEncoder implements the zopfli.Encoder interface,
// writing in the LZ4 frame format. The blocks are linked, so matches
// may reach back into the previous 64 KiB of data.
type FrameEncoder struct {
	hasher      hash.Hash32
	block       BlockEncoder
	blockBuffer []byte
}

func (f *FrameEncoder) Reset() {
	f.hasher = nil
}

func (f *FrameEncoder) Encode(dst []byte, src []byte, matches []zopfli.Match, lastBlock bool) []byte {
	if f.hasher == nil {
		f.hasher = xxHash32.New(0)
		dst = binary.LittleEndian.AppendUint32(dst, 0x184D2204)
		// Frame header for linked blocks, content checksum enabled, and
		// 4-MB blocks.
		dst = append(dst, 0x44, 0x70, 0x1d)
	}

	// A zero-length block would be read as the end mark.
	if len(src) > 0 {
		f.blockBuffer = f.block.Encode(f.blockBuffer[:0], src, matches, lastBlock)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(f.blockBuffer)))
		dst = append(dst, f.blockBuffer...)
		f.hasher.Write(src)
	}

	if lastBlock {
		dst = append(dst, 0, 0, 0, 0)
		dst = binary.LittleEndian.AppendUint32(dst, f.hasher.Sum32())
	}

	return dst
}

// NewWriter returns a zopfli.Writer that compresses data in the LZ4 frame
// format. The window is limited to 64 KiB, which is as far back as LZ4
// can reach.
func NewWriter(w io.Writer, quality int) *zopfli.Writer {
	if quality < zopfli.QualityBest {
		quality = zopfli.QualityFast
	}
	params := zopfli.DefaultParams(quality)
	params.WindowBits = 16
	return &zopfli.Writer{
		Dest: w,
		Parser: &zopfli.Parser{
			MatchFinder: &zopfli.HashChain{},
			Params:      params,
		},
		Encoder:     &FrameEncoder{},
		BlockSize:   1 << 16,
		ChainBlocks: true,
	}
}
