// Package main provides the donation-analytics CLI entry point.
//
// Usage:
//
//	donation-analytics <contributions-file> <percentile-file> <output-file> [--config path]
//
// Positional arguments and flags override values from the config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/donation-analytics/internal/config"
	"github.com/rewired-gh/donation-analytics/internal/logger"
)

type options struct {
	configPath string
	logLevel   string
	dbPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "donation-analytics [contributions-file percentile-file output-file]",
		Short: "Stream running percentiles of repeat-donor contributions",
		Long: `donation-analytics reads pipe-delimited contribution records, identifies
repeat donors and writes, for each of their contributions, the running
percentile, total and count of the (recipient, zip, year) group.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("expected 0 or 3 arguments, got %d", len(args))
			}
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, args)
			if err != nil {
				return err
			}

			logger.Init(cfg.Logging.Level, cfg.Logging.Format)
			if opts.configPath != "" {
				logger.Info("Configuration loaded from %s", opts.configPath)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				select {
				case <-sigChan:
					logger.Info("Shutdown signal received, stopping run...")
					cancel()
				case <-ctx.Done():
				}
			}()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to configuration file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "archive results to this SQLite database")

	return cmd
}

// loadConfig merges the config file, positional arguments and flags
func loadConfig(opts *options, args []string) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if len(args) == 3 {
		cfg.Input.ContributionsPath = args[0]
		cfg.Input.PercentilePath = args[1]
		cfg.Output.Path = args[2]
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.dbPath != "" {
		cfg.Storage.Enabled = true
		cfg.Storage.DBPath = opts.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
