// Package cmd defines the CLI commands for the leadscout executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/config"
	"github.com/primlogix/leadscout/internal/logging"
)

var (
	cfgFile string
	devMode bool
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadscout",
		Short: "Mines competitor review sites for sales leads.",
		Long: `leadscout crawls public review sites for negative reviews of a
competitor product, classifies the pain points behind each review, scores
the result as a sales lead, and stores it for follow-up.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().BoolVar(&devMode, "dev", false, "force development logging")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newLeadsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// setup loads configuration and builds the logger shared by every command.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Logging.Development || devMode)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
