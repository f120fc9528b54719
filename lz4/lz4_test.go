package lz4

import (
	"bytes"
	"io"
	"testing"

	"github.com/andybalholm/zopfli"
	"github.com/andybalholm/zopfli/internal/corpus"
	"github.com/pierrec/lz4/v4"
)

func parseBlock(t *testing.T, data []byte) []zopfli.Match {
	t.Helper()
	params := zopfli.DefaultParams(11)
	params.WindowBits = 16
	result, err := zopfli.CreateBackwardReferences(zopfli.Input{
		Data:          data,
		NumBytes:      len(data),
		DistanceCache: zopfli.DefaultDistanceCache,
		Last:          true,
		MatchFinder:   &zopfli.HashChain{},
		Params:        params,
	})
	if err != nil {
		t.Fatal(err)
	}
	matches, _, err := zopfli.ResolveMatches(nil, result.Commands, zopfli.DefaultDistanceCache)
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestBlockEncode(t *testing.T) {
	data := corpus.Text(200000, 1)

	var be BlockEncoder
	compressed := be.Encode(nil, data, parseBlock(t, data), true)

	decompressed := make([]byte, len(data))
	n, err := lz4.UncompressBlock(compressed, decompressed)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(data) {
		t.Fatalf("Got %d bytes, wanted %d", n, len(data))
	}

	if !bytes.Equal(decompressed, data) {
		t.Fatal("Decompressed output does not match")
	}
}

func TestBlockEncodeShortMatches(t *testing.T) {
	// 2- and 3-byte matches and a match too far back all become literals.
	data := []byte("abXabYabcZabcW0123456789012345678901234567890123456789")
	matches := []zopfli.Match{
		{Unmatched: 3, Length: 2, Distance: 3},
		{Unmatched: 1, Length: 3, Distance: 4},
		{Unmatched: 5, Length: 0},
		{Unmatched: 10, Length: 30, Distance: 70000},
	}
	var be BlockEncoder
	compressed := be.Encode(nil, data, matches, true)

	decompressed := make([]byte, len(data))
	n, err := lz4.UncompressBlock(compressed, decompressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed[:n], data) {
		t.Fatalf("got %q, want %q", decompressed[:n], data)
	}
}

func TestFrameEncode(t *testing.T) {
	data := corpus.Text(200000, 2)

	var fe FrameEncoder
	compressed := fe.Encode(nil, data, parseBlock(t, data), true)

	decompressed, err := io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(decompressed, data) {
		t.Fatal("Decompressed output does not match")
	}
}

func TestWriter(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("hello"),
		corpus.Mixed(300000, 3),
		corpus.Random(200000, 4),
	} {
		b := new(bytes.Buffer)
		w := NewWriter(b, 10)
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}

		decompressed, err := io.ReadAll(lz4.NewReader(b))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(decompressed, data) {
			t.Fatalf("Decompressed output does not match for %d bytes", len(data))
		}
	}
}

func BenchmarkWriter(b *testing.B) {
	b.StopTimer()
	text := corpus.Text(1<<20, 1)
	b.SetBytes(int64(len(text)))
	buf := new(bytes.Buffer)
	w := NewWriter(buf, 10)
	w.Write(text)
	w.Close()
	b.ReportMetric(float64(len(text))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		w.Reset(io.Discard)
		w.Write(text)
		w.Close()
	}
}
