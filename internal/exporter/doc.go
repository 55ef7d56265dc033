// Package exporter writes the analyzer and enrichment outputs as CSV.
//
// CSVWriter is the core writer with header and streaming support; on top
// of it sit the two table encoders:
//
// WriteDensityTable: the distribution difference table keyed by
// (action, interval, review score).
//
// WriteFeatureTable: the wide per (order, interval) regression feature
// table, streamed row by row.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("/path/to/output")
//	err := w.WriteDensityTable(exporter.DensityFileName, rows)
package exporter
