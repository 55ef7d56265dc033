// Package dataset holds the in-memory relational store for the MSOM
// shipment data: the order table, the logistics event table, and the
// read-only item metadata table.
//
// # Components
//
//   - types.go: Order/LogisticsEvent rows, the Action enumeration, and the
//     Tables store with its ExcludeOrders primitive
//   - csv.go: raw CSV ingestion (fixed column order, no header)
//   - snapshot.go: immutable columnar snapshot export/import (parquet),
//     partitioned by an index in [1, 7]
//   - item.go: item metadata workbook ingestion and join indexing
//
// The store has no behavior beyond loading, the referential exclusion
// primitive, and consistency checking; all cleaning policy lives in the
// cleaning package. A Tables value is owned by exactly one pipeline run;
// partitions are processed on independent stores and never share state.
package dataset
