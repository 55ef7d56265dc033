// Package cleaning implements the referential cleaning pipeline for the
// MSOM shipment data, following the data preparation of "Operational
// Transparency: Showing When Work Gets Done".
//
// The pipeline is a fixed, ordered catalogue of sixteen rules. Each rule
// is a pure function over the current table state that either computes a
// set of order ids to exclude (routed through the single mutation
// primitive, dataset.Tables.ExcludeOrders, which shrinks both tables
// atomically) or drops individual rows (duplicate and trade-success
// rows). Rule order is load-bearing and the runner never reorders or
// parallelizes rules; see Rules for the catalogue.
//
// Cleaning always terminates with a consistent (possibly empty) snapshot:
// malformed timestamps become missing values excluded by the
// missing-times rule, never errors. Re-running the pipeline on its own
// output is a fixed point.
package cleaning
