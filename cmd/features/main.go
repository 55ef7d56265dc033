package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"msomcli/internal/config"
	"msomcli/internal/dataset"
	"msomcli/internal/exporter"
	"msomcli/internal/infrastructure"
	"msomcli/internal/transparency"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	cleanedDir := flag.String("cleaned", "", "cleaned snapshot directory (overrides config)")
	outputDir := flag.String("out", "", "output directory (overrides config)")
	itemPath := flag.String("items", "", "item metadata workbook (defaults to the reserved partition under the raw directory)")
	binWidth := flag.Float64("binwidth", 0, "action-time bin width in (0, 1] (overrides config)")
	partitions := flag.Int("partitions", 0, "number of partitions to read (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *cleanedDir != "" {
		cfg.Data.CleanedDir = *cleanedDir
	}
	if *outputDir != "" {
		cfg.Data.OutputDir = *outputDir
	}
	if *binWidth != 0 {
		cfg.Analysis.BinWidth = *binWidth
	}
	if *partitions > 0 {
		cfg.Data.Partitions = *partitions
	}
	workbook := *itemPath
	if workbook == "" {
		workbook = cfg.Data.ItemWorkbook(dataset.ItemPartition)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)

	analyzer, err := transparency.NewAnalyzer(cfg.Analysis.BinWidth, logger)
	if err != nil {
		logger.Error("invalid analyzer configuration", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	logger.Info("starting feature builder",
		"cleaned_dir", cfg.Data.CleanedDir,
		"partitions", cfg.Data.Partitions,
		"items", workbook,
	)

	tables, err := dataset.ReadSnapshots(cfg.Data.CleanedDir, cfg.Data.Partitions)
	if err != nil {
		logger.Error("failed to read cleaned snapshots", "error", err)
		os.Exit(1)
	}

	items, err := dataset.LoadItemWorkbook(workbook)
	if err != nil {
		logger.Error("failed to load item metadata", "error", err)
		os.Exit(1)
	}

	rows := transparency.ComputeActionTimes(tables)
	binned := analyzer.Bin(rows)

	builder := transparency.NewFeatureBuilder(cfg.Analysis.EpochTime(), logger)
	features := builder.Build(binned, items)

	writer := exporter.NewCSVWriter(cfg.Data.OutputDir)
	if err := writer.WriteFeatureTable(exporter.FeatureFileName, features); err != nil {
		logger.Error("failed to write feature table", "error", err)
		os.Exit(1)
	}

	logger.Info("feature builder finished",
		"rows", len(features),
		"duration", time.Since(start),
	)
}
