package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"msomcli/internal/cleaning"
	"msomcli/internal/config"
	"msomcli/internal/dataset"
	"msomcli/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	rawDir := flag.String("raw", "", "raw data directory (overrides config)")
	cleanedDir := flag.String("cleaned", "", "cleaned snapshot directory (overrides config)")
	partitions := flag.Int("partitions", 0, "number of partitions to clean (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *rawDir != "" {
		cfg.Data.RawDir = *rawDir
	}
	if *cleanedDir != "" {
		cfg.Data.CleanedDir = *cleanedDir
	}
	if *partitions > 0 {
		cfg.Data.Partitions = *partitions
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)

	ctx := context.Background()
	shutdown, err := infrastructure.InitializeTracing(cfg.Tracing, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdown(ctx)

	if err := cfg.Data.CheckRawDir(); err != nil {
		logger.Error("raw data directory check failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Data.EnsureCleanedDir(); err != nil {
		logger.Error("failed to prepare cleaned directory", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	logger.Info("starting cleaner",
		"raw_dir", cfg.Data.RawDir,
		"cleaned_dir", cfg.Data.CleanedDir,
		"partitions", cfg.Data.Partitions,
	)

	// Partitions share nothing, so each runs its own pipeline instance.
	g, ctx := errgroup.WithContext(ctx)
	for index := dataset.MinPartition; index <= cfg.Data.Partitions; index++ {
		g.Go(func() error {
			return cleanPartition(ctx, cfg, logger, index)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("cleaning failed", "error", err)
		os.Exit(1)
	}

	logger.Info("cleaner finished", "duration", time.Since(start))
}

func cleanPartition(ctx context.Context, cfg *config.Config, logger *slog.Logger, index int) error {
	log := logger.With("partition", index)

	tables, err := dataset.LoadTables(cfg.Data.RawOrdersCSV(index), cfg.Data.RawEventsCSV(index))
	if err != nil {
		return err
	}

	pipeline := cleaning.New(log)
	reports, err := pipeline.Run(ctx, tables)
	if err != nil {
		return err
	}
	for _, report := range reports {
		log.Debug("rule summary",
			"rule", report.RuleID,
			"orders_removed", report.OrdersBefore-report.OrdersAfter,
			"events_removed", report.EventsBefore-report.EventsAfter,
		)
	}

	return dataset.WriteSnapshot(cfg.Data.CleanedDir, index, tables)
}
