// Package transparency derives the operational transparency statistics
// from a cleaned shipment snapshot.
//
// ComputeActionTimes normalizes each event's timestamp into a fractional
// position within its shipment's lifecycle. Analyzer bins those positions
// and computes, per action type, how the timing distribution conditioned
// on the review score differs from the unconditional baseline.
// FeatureBuilder produces the wide per (order, interval) table used by
// downstream regression tooling.
package transparency
