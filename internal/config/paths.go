package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// RawPartitionDir returns the directory holding one partition's raw CSV
// pair.
func (d DataConfig) RawPartitionDir(index int) string {
	return filepath.Join(d.RawDir, fmt.Sprintf("data_%d", index))
}

// RawOrdersCSV returns the raw order table path for a partition.
func (d DataConfig) RawOrdersCSV(index int) string {
	return filepath.Join(d.RawPartitionDir(index), fmt.Sprintf("msom_order_data_%d.csv", index))
}

// RawEventsCSV returns the raw logistics event table path for a
// partition.
func (d DataConfig) RawEventsCSV(index int) string {
	return filepath.Join(d.RawPartitionDir(index), fmt.Sprintf("msom_logistic_detail_%d.csv", index))
}

// ItemWorkbook returns the item metadata workbook path. Item metadata
// lives in the reserved partition after the seven data partitions.
func (d DataConfig) ItemWorkbook(index int) string {
	return filepath.Join(d.RawPartitionDir(index), fmt.Sprintf("msom_item_data_%d.xlsx", index))
}

// EnsureCleanedDir creates the snapshot root if needed.
func (d DataConfig) EnsureCleanedDir() error {
	if err := os.MkdirAll(d.CleanedDir, 0755); err != nil {
		return fmt.Errorf("create cleaned directory: %w", err)
	}
	return nil
}

// CheckRawDir verifies the raw data root exists before any partition work
// starts.
func (d DataConfig) CheckRawDir() error {
	info, err := os.Stat(d.RawDir)
	if err != nil {
		return fmt.Errorf("raw data directory %s: %w", d.RawDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("raw data path %s is not a directory", d.RawDir)
	}
	return nil
}
