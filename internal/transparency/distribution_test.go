package transparency

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msomcli/internal/dataset"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAnalyzer(t *testing.T, binWidth float64) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(binWidth, testLogger())
	require.NoError(t, err)
	return a
}

func TestNewAnalyzerValidatesBinWidth(t *testing.T) {
	tests := []struct {
		name     string
		binWidth float64
		wantErr  bool
	}{
		{name: "default width", binWidth: 0.1, wantErr: false},
		{name: "full range", binWidth: 1, wantErr: false},
		{name: "zero", binWidth: 0, wantErr: true},
		{name: "negative", binWidth: -0.1, wantErr: true},
		{name: "above one", binWidth: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyzer(tt.binWidth, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBinAssignsLeftEdges(t *testing.T) {
	// Three shipments, pay at t0, sign at t0+10d, one GOT event each at
	// day 5, day 2 and day 8.
	start := testEpoch
	tables := &dataset.Tables{}
	shipmentFixture(tables, 1, start, 10*24*time.Hour, eventAt(dataset.ActionGot, start.Add(5*24*time.Hour)))
	shipmentFixture(tables, 2, start, 10*24*time.Hour, eventAt(dataset.ActionGot, start.Add(2*24*time.Hour)))
	shipmentFixture(tables, 3, start, 10*24*time.Hour, eventAt(dataset.ActionGot, start.Add(8*24*time.Hour)))

	analyzer := newTestAnalyzer(t, 0.1)
	binned := analyzer.Bin(ComputeActionTimes(tables))

	got := make(map[int64]float64)
	signed := 0
	for _, row := range binned {
		switch row.Action {
		case dataset.ActionGot:
			got[row.OrderID] = row.Interval
		case dataset.ActionSigned:
			signed++
		}
	}

	assert.InDelta(t, 0.5, got[1], 1e-12)
	assert.InDelta(t, 0.2, got[2], 1e-12)
	assert.InDelta(t, 0.8, got[3], 1e-12)

	// SIGNED events land exactly at action time 1, outside the last
	// left-closed interval, and are dropped.
	assert.Zero(t, signed)
}

func TestBinExactMultiples(t *testing.T) {
	analyzer := newTestAnalyzer(t, 0.1)
	rows := []ActionTimeRow{
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.3},
		{OrderID: 2, Action: dataset.ActionGot, ActionTime: 0.999},
		{OrderID: 3, Action: dataset.ActionGot, ActionTime: 0},
	}

	binned := analyzer.Bin(rows)
	require.Len(t, binned, 3)
	assert.InDelta(t, 0.3, binned[0].Interval, 1e-12)
	assert.InDelta(t, 0.9, binned[1].Interval, 1e-12)
	assert.InDelta(t, 0.0, binned[2].Interval, 1e-12)
}

func TestDistributionDifferenceNormalization(t *testing.T) {
	analyzer := newTestAnalyzer(t, 0.5)

	rows := []ActionTimeRow{
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.2, ReviewScore: 5},
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.7, ReviewScore: 5},
		{OrderID: 2, Action: dataset.ActionGot, ActionTime: 0.3, ReviewScore: 2},
		{OrderID: 3, Action: dataset.ActionGot, ActionTime: 0.6, ReviewScore: 2},
	}
	binned := analyzer.Bin(rows)
	out := analyzer.DistributionDifference(binned)
	require.NotEmpty(t, out)

	// Conditional densities sum to 1 within each (action, score) group.
	condSums := make(map[int64]float64)
	for _, row := range out {
		condSums[row.ReviewScore] += row.ConditionalDensity
	}
	for score, sum := range condSums {
		assert.InDelta(t, 1.0, sum, 1e-9, "score %d", score)
	}

	// Unconditional densities sum to 1 across the distinct intervals of
	// each action.
	uncond := make(map[float64]float64)
	for _, row := range out {
		uncond[row.Interval] = row.UnconditionalDensity
	}
	total := 0.0
	for _, density := range uncond {
		total += density
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	for _, row := range out {
		assert.InDelta(t, row.ConditionalDensity-row.UnconditionalDensity, row.Difference, 1e-12)
	}
}

func TestDistributionDifferenceClampsLowScores(t *testing.T) {
	analyzer := newTestAnalyzer(t, 0.5)
	rows := []ActionTimeRow{
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.2, ReviewScore: 1},
		{OrderID: 2, Action: dataset.ActionGot, ActionTime: 0.2, ReviewScore: 2},
	}

	out := analyzer.DistributionDifference(analyzer.Bin(rows))
	require.Len(t, out, 1, "scores 1 and 2 merge into a single group")
	assert.Equal(t, int64(2), out[0].ReviewScore)
	assert.InDelta(t, 1.0, out[0].ConditionalDensity, 1e-12)
}

func TestDistributionDifferencePerOrderCounting(t *testing.T) {
	analyzer := newTestAnalyzer(t, 0.5)

	// Order 1 has three GOT events in the first bin, order 2 one event in
	// the second. With per-distinct-order means the first bin's mass is 3
	// (one order averaging three occurrences), not 3 votes against 1.
	rows := []ActionTimeRow{
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.1, ReviewScore: 4},
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.2, ReviewScore: 4},
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.3, ReviewScore: 4},
		{OrderID: 2, Action: dataset.ActionGot, ActionTime: 0.7, ReviewScore: 4},
	}

	out := analyzer.DistributionDifference(analyzer.Bin(rows))
	require.Len(t, out, 2)

	assert.InDelta(t, 0.75, out[0].ConditionalDensity, 1e-9)
	assert.InDelta(t, 0.25, out[1].ConditionalDensity, 1e-9)
}

func TestDistributionDifferenceEmptyInput(t *testing.T) {
	analyzer := newTestAnalyzer(t, 0.1)
	assert.Empty(t, analyzer.DistributionDifference(nil))
}

func TestDistributionDifferenceDeterministicOrder(t *testing.T) {
	analyzer := newTestAnalyzer(t, 0.5)
	rows := []ActionTimeRow{
		{OrderID: 1, Action: dataset.ActionGot, ActionTime: 0.7, ReviewScore: 5},
		{OrderID: 2, Action: dataset.ActionArrival, ActionTime: 0.2, ReviewScore: 3},
		{OrderID: 3, Action: dataset.ActionGot, ActionTime: 0.1, ReviewScore: 3},
	}
	binned := analyzer.Bin(rows)

	first := analyzer.DistributionDifference(binned)
	second := analyzer.DistributionDifference(binned)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		inOrder := prev.Action < cur.Action ||
			(prev.Action == cur.Action && prev.Interval < cur.Interval) ||
			(prev.Action == cur.Action && prev.Interval == cur.Interval && prev.ReviewScore < cur.ReviewScore)
		assert.True(t, inOrder, "rows %d and %d out of order", i-1, i)
	}
}
