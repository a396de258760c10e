package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/donation-analytics/internal/analytics"
	"github.com/rewired-gh/donation-analytics/internal/config"
	"github.com/rewired-gh/donation-analytics/internal/logger"
	"github.com/rewired-gh/donation-analytics/internal/storage"
	"github.com/rewired-gh/donation-analytics/internal/telegram"
)

// run executes one analytics pass over the configured input files
func run(ctx context.Context, cfg *config.Config) error {
	p, err := config.LoadPercentile(cfg.Input.PercentilePath)
	if err != nil {
		return err
	}

	proc, err := analytics.New(p)
	if err != nil {
		return err
	}

	in, err := os.Open(cfg.Input.ContributionsPath)
	if err != nil {
		return fmt.Errorf("failed to open contributions file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(cfg.Output.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	var sinks []analytics.ResultSink
	var store *storage.Storage
	if cfg.Storage.Enabled {
		store, err = storage.New(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()

		if err := store.BeginRun(proc.RunID(), p, time.Now()); err != nil {
			logger.Warn("Failed to record run start: %v", err)
		} else {
			sinks = append(sinks, store)
		}
		logger.Debug("Archiving results to %s", cfg.Storage.DBPath)
	}

	logger.Info("Starting run %s (percentile: %.2f, input: %s, output: %s)",
		proc.RunID(), p, cfg.Input.ContributionsPath, cfg.Output.Path)

	stats, err := proc.Run(ctx, in, out, sinks...)
	if err != nil {
		return fmt.Errorf("run %s failed: %w", proc.RunID(), err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	logger.Info("Run completed: %s", stats.Summary())
	for reason, n := range stats.Skipped {
		logger.Debug("Skipped %d lines: %s", n, reason)
	}

	if len(sinks) > 0 {
		summary := storage.RunSummary{Lines: stats.Lines, Emitted: stats.Emitted, Skipped: stats.SkippedTotal()}
		if err := store.FinishRun(stats.RunID, summary, time.Now()); err != nil {
			logger.Warn("Failed to record run completion: %v", err)
		}
	}

	if cfg.Telegram.Enabled {
		notify(ctx, cfg.Telegram, stats, cfg.Output.Path)
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	return nil
}

// notify sends the run summary; failures are logged and never fail the run
func notify(ctx context.Context, tc config.TelegramConfig, stats *analytics.Stats, outputPath string) {
	client, err := telegram.NewClient(tc.BotToken, tc.ChatID, tc.MaxRetries, tc.RetryDelayBase)
	if err != nil {
		logger.Warn("Failed to initialize Telegram client: %v", err)
		return
	}
	if err := client.SendSummary(ctx, stats, outputPath); err != nil {
		logger.Warn("Failed to send run summary to Telegram: %v", err)
		return
	}
	logger.Info("Sent run summary to Telegram")
}
