package transparency

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"msomcli/internal/dataset"
)

// DefaultBinWidth is the action-time interval width used when no width is
// configured.
const DefaultBinWidth = 0.1

// lowScoreClamp merges the two lowest satisfaction buckets: scores at or
// below 1 have too few observations to stand alone and are counted as 2.
const lowScoreClamp = 2

// Analyzer bins action times and computes the conditional and
// unconditional action-time densities and their difference.
type Analyzer struct {
	binWidth float64
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer. binWidth must be in (0, 1].
func NewAnalyzer(binWidth float64, logger *slog.Logger) (*Analyzer, error) {
	if binWidth <= 0 || binWidth > 1 {
		return nil, fmt.Errorf("bin width %v out of range (0, 1]", binWidth)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{binWidth: binWidth, logger: logger}, nil
}

// Bin partitions [0, 1) into fixed-width intervals and assigns each row
// the left edge of its interval. Rows whose interval is undefined, an
// action time landing exactly on the unbounded top edge, are dropped.
func (a *Analyzer) Bin(rows []ActionTimeRow) []ActionTimeRow {
	binned := make([]ActionTimeRow, 0, len(rows))
	for _, row := range rows {
		left, ok := a.intervalLeft(row.ActionTime)
		if !ok {
			continue
		}
		row.Interval = left
		binned = append(binned, row)
	}
	a.logger.Debug("binned action times",
		"bin_width", a.binWidth,
		"rows_in", len(rows),
		"rows_out", len(binned),
	)
	return binned
}

// intervalLeft maps an action time to its interval's left edge. Intervals
// are left-closed: an action time of 0.5 with width 0.1 belongs to the
// interval starting at 0.5. The small epsilon keeps values that are an
// exact multiple of the width from falling into the previous bin through
// floating-point division.
func (a *Analyzer) intervalLeft(actionTime float64) (float64, bool) {
	k := math.Floor(actionTime/a.binWidth + 1e-9)
	left := k * a.binWidth
	if left >= 1 {
		return 0, false
	}
	return left, true
}

type conditionalKey struct {
	score    int64
	action   dataset.Action
	interval float64
}

type marginalKey struct {
	action   dataset.Action
	interval float64
}

type groupKey struct {
	action dataset.Action
	score  int64
}

// DistributionDifference computes, per (review score, action, interval),
// the conditional probability mass of an action landing in that interval
// against the unconditional (score-marginalized) mass, and their
// difference. Counting is per distinct order: each cell aggregates the
// mean of per-order occurrence counts so orders with many events in one
// bin do not dominate. Densities are normalized to sum to 1 across
// intervals within each (action, score) group, and within each action
// for the unconditional side. Groups with no events are omitted from the
// output rather than emitted as NaN.
func (a *Analyzer) DistributionDifference(rows []ActionTimeRow) []DensityRow {
	// Per-order occurrence counts per cell.
	condOrders := make(map[conditionalKey]map[int64]int)
	margOrders := make(map[marginalKey]map[int64]int)
	for _, row := range rows {
		score := clampScore(row.ReviewScore)
		ck := conditionalKey{score: score, action: row.Action, interval: row.Interval}
		if condOrders[ck] == nil {
			condOrders[ck] = make(map[int64]int)
		}
		condOrders[ck][row.OrderID]++

		mk := marginalKey{action: row.Action, interval: row.Interval}
		if margOrders[mk] == nil {
			margOrders[mk] = make(map[int64]int)
		}
		margOrders[mk][row.OrderID]++
	}

	// Mean per-order count per cell, then normalize within each group.
	condMass := make(map[conditionalKey]float64, len(condOrders))
	condTotals := make(map[groupKey]float64)
	for ck, perOrder := range condOrders {
		condMass[ck] = meanCount(perOrder)
	}
	for ck, mass := range condMass {
		condTotals[groupKey{ck.action, ck.score}] += mass
	}

	margMass := make(map[marginalKey]float64, len(margOrders))
	margTotals := make(map[dataset.Action]float64)
	for mk, perOrder := range margOrders {
		margMass[mk] = meanCount(perOrder)
	}
	for mk, mass := range margMass {
		margTotals[mk.action] += mass
	}

	out := make([]DensityRow, 0, len(condMass))
	for ck, mass := range condMass {
		total := condTotals[groupKey{ck.action, ck.score}]
		if total == 0 {
			continue
		}
		row := DensityRow{
			Action:             ck.action,
			Interval:           ck.interval,
			ReviewScore:        ck.score,
			ConditionalDensity: mass / total,
		}
		mk := marginalKey{action: ck.action, interval: ck.interval}
		if margTotal := margTotals[mk.action]; margTotal > 0 {
			row.UnconditionalDensity = margMass[mk] / margTotal
		}
		row.Difference = row.ConditionalDensity - row.UnconditionalDensity
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		if out[i].Interval != out[j].Interval {
			return out[i].Interval < out[j].Interval
		}
		return out[i].ReviewScore < out[j].ReviewScore
	})

	a.logger.Info("computed distribution difference",
		"rows_in", len(rows),
		"groups_out", len(out),
	)
	return out
}

func clampScore(score int64) int64 {
	if score <= 1 {
		return lowScoreClamp
	}
	return score
}

func meanCount(perOrder map[int64]int) float64 {
	if len(perOrder) == 0 {
		return 0
	}
	var sum int
	for _, count := range perOrder {
		sum += count
	}
	return float64(sum) / float64(len(perOrder))
}
