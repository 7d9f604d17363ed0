package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/syllog/internal/logging"
	"github.com/cognicore/syllog/pkg/syllog/config"
)

// app carries the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath  string
	journalPath string
	verbose     bool
	trace       bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	return (&app{}).command()
}

func (a *app) command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "syllog",
		Short: "Backward-chaining inference over quantified facts and rules",
		Long: `syllog stores facts and implication rules written as nested arrays
(YAML or JSON) and answers questions about them by backward chaining.

Example program:
  - [man, [socrates]]
  - [if, [x], [man, [x]], [mortal, [x]]]
  - ["?", [X], [mortal, [X]]]`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if a.configPath != "" {
				var err error
				if cfg, err = config.Load(a.configPath); err != nil {
					return err
				}
			}
			if a.journalPath != "" {
				cfg.Journal.Path = a.journalPath
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.Logging, a.verbose || a.trace)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&a.journalPath, "journal", "", "SQLite journal file (overrides journal.path)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(a.consultCmd())
	rootCmd.AddCommand(a.rulesCmd())
	rootCmd.AddCommand(a.journalCmd())
	rootCmd.AddCommand(a.pruneCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
