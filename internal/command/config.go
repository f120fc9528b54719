package command

import (
	"os"

	"github.com/andybalholm/zopfli"
	"github.com/andybalholm/zopfli/brotli"
	"github.com/nuclio/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings that can be read from a YAML file. Zero values
// leave the defaults of the chosen format alone.
type Config struct {
	Params zopfli.Params `yaml:"params"`

	// BlockSize is the number of bytes parsed at a time.
	BlockSize int `yaml:"blockSize"`

	// Concurrency is the number of blocks the stats command parses at once.
	Concurrency int `yaml:"concurrency"`

	// Finder is the match finder: "tree", "chain" or "hasher".
	Finder string `yaml:"finder"`

	// MemoryLimit caps the parser's working memory, in bytes.
	MemoryLimit int `yaml:"memoryLimit"`
}

// ReadConfig reads the configuration from the file at path. Unknown fields
// are an error.
func ReadConfig(path string) (cfg Config, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err = dec.Decode(&cfg); err != nil {
		return
	}
	err = cfg.validate()
	return
}

func (c *Config) validate() error {
	switch c.Finder {
	case "", "tree", "chain", "hasher":
	default:
		return errors.Errorf("Unknown finder %q. Must be one of tree / chain / hasher", c.Finder)
	}
	if c.BlockSize < 0 || c.Concurrency < 0 || c.MemoryLimit < 0 {
		return errors.New("blockSize, concurrency and memoryLimit must not be negative")
	}
	return nil
}

// mergeParams returns base with the non-zero fields of c.Params copied
// over it.
func (c *Config) mergeParams(base zopfli.Params) zopfli.Params {
	o := c.Params
	if o.Quality != 0 {
		base.Quality = o.Quality
	}
	if o.WindowBits != 0 {
		base.WindowBits = o.WindowBits
	}
	if o.MaxZopfliLen != 0 {
		base.MaxZopfliLen = o.MaxZopfliLen
	}
	if o.MaxZopfliCandidates != 0 {
		base.MaxZopfliCandidates = o.MaxZopfliCandidates
	}
	if o.LongCopyQuickStep != 0 {
		base.LongCopyQuickStep = o.LongCopyQuickStep
	}
	if o.DistancePostfixBits != 0 {
		base.DistancePostfixBits = o.DistancePostfixBits
	}
	if o.NumDirectDistanceCodes != 0 {
		base.NumDirectDistanceCodes = o.NumDirectDistanceCodes
	}
	return base
}

// newMatchFinder returns a constructor for the configured match finder.
// The tree is the default.
func (c *Config) newMatchFinder(params zopfli.Params) func() zopfli.MatchFinder {
	switch c.Finder {
	case "chain":
		return func() zopfli.MatchFinder {
			return &zopfli.HashChain{}
		}
	case "hasher":
		return func() zopfli.MatchFinder {
			return &brotli.HasherFinder{
				Hasher: brotli.CompositeHasher{
					A: &brotli.H5{BlockBits: 4, BucketBits: 15},
					B: &brotli.H6{BlockBits: 6, BucketBits: 15, HashLen: 8},
				},
				ShortMatchDistance: 16,
			}
		}
	default:
		return func() zopfli.MatchFinder {
			tree := &brotli.BinaryTree{WindowBits: int(params.WindowBits)}
			if params.Quality == zopfli.QualityFast {
				tree.ShortMatchDistance = 16
			}
			return tree
		}
	}
}

// newAllocator returns a Budget for MemoryLimit, or nil if there is no
// limit.
func (c *Config) newAllocator() *zopfli.Budget {
	if c.MemoryLimit == 0 {
		return nil
	}
	return zopfli.NewBudget(c.MemoryLimit)
}
