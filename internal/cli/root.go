// Package cli wires the quantagent command tree.
package cli

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quantagent",
		Short: "quantagent — multi-agent crypto trading toolkit",
		Long:  "quantagent analyzes crypto markets, monitors live price feeds, backtests strategies, and coordinates research and trading agents.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.quantagent/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newMonitorCmd())
	cmd.AddCommand(newTickerCmd())
	cmd.AddCommand(newCandlesCmd())
	cmd.AddCommand(newBacktestCmd())
	cmd.AddCommand(newAgentCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// runLogger builds the logger long-running commands use: the config's level
// unless --log-level overrides it, plus a dated log file when enabled.
func runLogger(cfg config.Config) (*logging.Logger, io.Closer, error) {
	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if cfg.Logging.File {
		return logging.NewWithFile(paths.Logs, level)
	}
	return logging.New(nil, level), nil, nil
}
