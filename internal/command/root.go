// Package command implements the zopfli command-line interface.
package command

import (
	"io"
	"os"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"github.com/nuclio/zap"
	"github.com/spf13/cobra"
)

type RootCommandeer struct {
	loggerInstance logger.Logger
	cmd            *cobra.Command
	verbose        bool
	configPath     string
	config         Config
}

func NewRootCommandeer() *RootCommandeer {
	commandeer := &RootCommandeer{}

	cmd := &cobra.Command{
		Use:           "zopfli [command]",
		Short:         "Optimal LZ77 parsing for brotli, LZ4 and snappy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfigPath := os.Getenv("ZOPFLI_CONFIG")

	cmd.PersistentFlags().BoolVarP(&commandeer.verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().StringVarP(&commandeer.configPath, "config", "c", defaultConfigPath, "Path to a YAML configuration file")

	// add children
	cmd.AddCommand(
		newCompressCommandeer(commandeer).cmd,
		newStatsCommandeer(commandeer).cmd,
		newCompareCommandeer(commandeer).cmd,
	)

	commandeer.cmd = cmd

	return commandeer
}

// Execute uses os.Args to execute the command
func (rc *RootCommandeer) Execute() error {
	return rc.cmd.Execute()
}

// GetCmd returns the underlying cobra command
func (rc *RootCommandeer) GetCmd() *cobra.Command {
	return rc.cmd
}

func (rc *RootCommandeer) initialize() error {
	var err error

	rc.loggerInstance, err = rc.createLogger()
	if err != nil {
		return errors.Wrap(err, "Failed to create logger")
	}

	if rc.configPath != "" {
		rc.config, err = ReadConfig(rc.configPath)
		if err != nil {
			return errors.Wrapf(err, "Failed to read configuration from %s", rc.configPath)
		}
		rc.loggerInstance.DebugWith("Read configuration", "path", rc.configPath, "config", rc.config)
	}

	return nil
}

func (rc *RootCommandeer) createLogger() (logger.Logger, error) {
	var loggerLevel nucliozap.Level

	if rc.verbose {
		loggerLevel = nucliozap.DebugLevel
	} else {
		loggerLevel = nucliozap.InfoLevel
	}

	loggerInstance, err := nucliozap.NewNuclioZapCmd("zopfli", loggerLevel, rc.cmd.ErrOrStderr())
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create logger")
	}

	return loggerInstance, nil
}

// readInput reads the file named by args[0], or standard input if there is
// no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "Failed to read standard input")
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %s", args[0])
	}
	return data, nil
}
