package command

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/andybalholm/zopfli/internal/corpus"
	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/suite"
)

type CommandTestSuite struct {
	suite.Suite
	tempDir   string
	inputPath string
	input     []byte
}

func (suite *CommandTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.input = corpus.Text(100000, 1)
	suite.inputPath = filepath.Join(suite.tempDir, "input.txt")
	suite.Require().NoError(os.WriteFile(suite.inputPath, suite.input, 0644))
}

func (suite *CommandTestSuite) execute(args ...string) string {
	out, _ := suite.executeWithStderr(args...)
	return out
}

func (suite *CommandTestSuite) executeWithStderr(args ...string) (string, string) {
	rootCommandeer := NewRootCommandeer()
	cmd := rootCommandeer.GetCmd()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	suite.Require().NoError(rootCommandeer.Execute())
	return out.String(), errOut.String()
}

func (suite *CommandTestSuite) writeConfig(contents string) string {
	path := filepath.Join(suite.tempDir, "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(contents), 0644))
	return path
}

func (suite *CommandTestSuite) TestCompressFormats() {
	for format, newReader := range map[string]func(io.Reader) io.Reader{
		"brotli": func(r io.Reader) io.Reader { return brotli.NewReader(r) },
		"lz4":    func(r io.Reader) io.Reader { return lz4.NewReader(r) },
		"snappy": func(r io.Reader) io.Reader { return snappy.NewReader(r) },
	} {
		outputPath := filepath.Join(suite.tempDir, "output."+format)
		suite.execute("compress", "-f", format, "-q", "10", "-o", outputPath, suite.inputPath)

		compressed, err := os.ReadFile(outputPath)
		suite.Require().NoError(err)
		suite.Require().Less(len(compressed), len(suite.input)/2, format)

		decompressed, err := io.ReadAll(newReader(bytes.NewReader(compressed)))
		suite.Require().NoError(err)
		suite.Require().True(bytes.Equal(decompressed, suite.input), format)
	}
}

func (suite *CommandTestSuite) TestCompressToStdout() {
	out := suite.execute("compress", "-f", "text", "-q", "10", suite.inputPath)
	suite.Require().Contains(out, "<")
	suite.Require().Equal(suite.input[0], out[0])
}

func (suite *CommandTestSuite) TestVerboseLogsToStderr() {
	out, errOut := suite.executeWithStderr("-v", "compress", "-f", "brotli", "-q", "10", suite.inputPath)
	suite.Require().Contains(errOut, "Compressed")

	// The log lines don't end up in the compressed stream.
	decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader([]byte(out))))
	suite.Require().NoError(err)
	suite.Require().True(bytes.Equal(decompressed, suite.input))
}

func (suite *CommandTestSuite) TestCompressWithConfig() {
	configPath := suite.writeConfig(`
params:
  windowBits: 18
  maxZopfliCandidates: 3
blockSize: 32768
finder: hasher
memoryLimit: 1073741824
`)
	outputPath := filepath.Join(suite.tempDir, "output.br")
	suite.execute("compress", "--config", configPath, "-o", outputPath, suite.inputPath)

	compressed, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)
	decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(compressed)))
	suite.Require().NoError(err)
	suite.Require().True(bytes.Equal(decompressed, suite.input))
}

func (suite *CommandTestSuite) TestCompressInvalidFormat() {
	rootCommandeer := NewRootCommandeer()
	rootCommandeer.GetCmd().SetArgs([]string{"compress", "-f", "zip", suite.inputPath})
	suite.Require().Error(rootCommandeer.Execute())
}

func (suite *CommandTestSuite) TestStats() {
	configPath := suite.writeConfig("blockSize: 16384\nconcurrency: 2\nmemoryLimit: 1073741824\n")
	out := suite.execute("stats", "--config", configPath, "--blocks", suite.inputPath)
	suite.Require().Contains(out, "block 6:")
	suite.Require().Contains(out, "in 7 blocks")
	suite.Require().Contains(out, "ratio")
	suite.Require().Contains(out, "at peak")
}

func (suite *CommandTestSuite) TestReadConfig() {
	config, err := ReadConfig(suite.writeConfig("params:\n  quality: 10\nfinder: chain\n"))
	suite.Require().NoError(err)
	suite.Require().Equal(10, config.Params.Quality)
	suite.Require().Equal("chain", config.Finder)

	_, err = ReadConfig(suite.writeConfig("params:\n  qualty: 10\n"))
	suite.Require().Error(err)

	_, err = ReadConfig(suite.writeConfig("finder: suffixarray\n"))
	suite.Require().Error(err)
}

func (suite *CommandTestSuite) TestRunCompressors() {
	results, err := runCompressors(compressors(), suite.input, 4)
	suite.Require().NoError(err)
	suite.Require().Len(results, len(compressors()))
	for i, r := range results {
		suite.Require().Greater(r.size, 0, r.name)
		if i > 0 {
			suite.Require().GreaterOrEqual(r.size, results[i-1].size)
		}
	}

	out := new(bytes.Buffer)
	printComparison(out, len(suite.input), results)
	suite.Require().Contains(out.String(), "zopfli brotli q11")
}

func TestCommandTestSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}
