package zopfli

import "github.com/nuclio/errors"

const (
	numLiteralSymbols     = 256
	numCommandSymbols     = 704
	numDistanceShortCodes = 16
	maxNpostfix           = 3
	maxNdirect            = 120
	maxDistanceBits       = 24

	minWindowBits = 10
	maxWindowBits = 24

	// windowGap is the part of the window that can't be referenced, so that
	// a ring buffer writer never overwrites data still in use.
	windowGap = 16

	// maxEffectiveDistanceAlphabetSize bounds the distance histogram used
	// by the refinement pass.
	maxEffectiveDistanceAlphabetSize = 544

	maxZopfliLenQuality10 = 150
	maxZopfliLenQuality11 = 325

	// longCopyQuickStep is how far a single-pass parse jumps ahead after a
	// very long copy.
	longCopyQuickStep = 16384
)

const (
	// QualityFast is the single-pass quality level.
	QualityFast = 10

	// QualityBest runs the parser twice, reseeding the cost model from the
	// first result.
	QualityBest = 11
)

// Params holds the tuning parameters of the parser.
type Params struct {
	// Quality is QualityFast or QualityBest. The default is QualityBest.
	Quality int `yaml:"quality"`

	// WindowBits is the base-2 logarithm of the sliding window size. The
	// longest usable distance is (1 << WindowBits) - 16. The default is 22.
	WindowBits uint `yaml:"windowBits"`

	// MaxZopfliLen is the match length beyond which the parser stops
	// looking for alternatives and skips ahead. The default is 150 for
	// QualityFast and 325 for QualityBest.
	MaxZopfliLen int `yaml:"maxZopfliLen"`

	// MaxZopfliCandidates is how many queued start positions are tried at
	// each byte. The default is 1 for QualityFast and 5 for QualityBest.
	MaxZopfliCandidates int `yaml:"maxZopfliCandidates"`

	// LongCopyQuickStep is the copy length after which a single-pass parse
	// skips evaluating the positions it covers. The default is 16384.
	LongCopyQuickStep int `yaml:"longCopyQuickStep"`

	// DistancePostfixBits and NumDirectDistanceCodes select the distance
	// alphabet used for costing.
	DistancePostfixBits    uint `yaml:"distancePostfixBits"`
	NumDirectDistanceCodes uint `yaml:"numDirectDistanceCodes"`
}

// DefaultParams returns the parameters for quality.
func DefaultParams(quality int) Params {
	p := Params{Quality: quality}
	p.ApplyDefaults()
	return p
}

// ApplyDefaults sets values that are zero to their default values.
func (p *Params) ApplyDefaults() {
	if p.Quality == 0 {
		p.Quality = QualityBest
	}
	if p.WindowBits == 0 {
		p.WindowBits = 22
	}
	if p.MaxZopfliLen == 0 {
		if p.Quality <= QualityFast {
			p.MaxZopfliLen = maxZopfliLenQuality10
		} else {
			p.MaxZopfliLen = maxZopfliLenQuality11
		}
	}
	if p.MaxZopfliCandidates == 0 {
		if p.Quality <= QualityFast {
			p.MaxZopfliCandidates = 1
		} else {
			p.MaxZopfliCandidates = 5
		}
	}
	if p.LongCopyQuickStep == 0 {
		p.LongCopyQuickStep = longCopyQuickStep
	}
}

// Verify checks the parameters for correctness.
func (p *Params) Verify() error {
	if p.Quality != QualityFast && p.Quality != QualityBest {
		return errors.Errorf("Quality=%d; must be %d or %d", p.Quality, QualityFast, QualityBest)
	}
	if p.WindowBits < minWindowBits || p.WindowBits > maxWindowBits {
		return errors.Errorf("WindowBits=%d; must be in range [%d,%d]", p.WindowBits, minWindowBits, maxWindowBits)
	}
	if p.MaxZopfliLen < 4 {
		return errors.Errorf("MaxZopfliLen=%d; must be at least 4", p.MaxZopfliLen)
	}
	if p.MaxZopfliCandidates < 1 || p.MaxZopfliCandidates > 8 {
		return errors.Errorf("MaxZopfliCandidates=%d; must be in range [1,8]", p.MaxZopfliCandidates)
	}
	if p.LongCopyQuickStep < p.MaxZopfliLen {
		return errors.Errorf("LongCopyQuickStep=%d; must be >= MaxZopfliLen=%d", p.LongCopyQuickStep, p.MaxZopfliLen)
	}
	if p.DistancePostfixBits > maxNpostfix {
		return errors.Errorf("DistancePostfixBits=%d; must be <= %d", p.DistancePostfixBits, maxNpostfix)
	}
	if p.NumDirectDistanceCodes > maxNdirect || p.NumDirectDistanceCodes&(1<<p.DistancePostfixBits-1) != 0 {
		return errors.Errorf("NumDirectDistanceCodes=%d; must be a multiple of %d and <= %d",
			p.NumDirectDistanceCodes, 1<<p.DistancePostfixBits, maxNdirect)
	}
	return nil
}

// maxBackwardLimit is the longest distance the window allows.
func (p Params) maxBackwardLimit() int {
	return 1<<p.WindowBits - windowGap
}

// distanceAlphabetSize is the number of distance symbols, including the
// short codes.
func (p Params) distanceAlphabetSize() int {
	return int(numDistanceShortCodes + p.NumDirectDistanceCodes + maxDistanceBits<<(p.DistancePostfixBits+1))
}
