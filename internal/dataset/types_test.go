package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Action
	}{
		{name: "signed", input: "SIGNED", expected: ActionSigned},
		{name: "lower case", input: "consign", expected: ActionConsign},
		{name: "surrounding whitespace", input: "  ARRIVAL ", expected: ActionArrival},
		{name: "sent scan", input: "SENT_SCAN", expected: ActionSentScan},
		{name: "unknown value", input: "TELEPORTED", expected: ActionUnknown},
		{name: "empty", input: "", expected: ActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAction(tt.input))
		})
	}
}

func TestActionStringRoundTrip(t *testing.T) {
	actions := []Action{
		ActionConsign, ActionGot, ActionDeparture, ActionArrival,
		ActionSentScan, ActionSigned, ActionTradeSuccess, ActionFailure,
	}
	for _, a := range actions {
		assert.Equal(t, a, ParseAction(a.String()), "round trip for %s", a)
	}
}

func TestParseInstant(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *time.Time
	}{
		{
			name:     "standard layout",
			input:    "2017-03-15 08:30:00",
			expected: timePtr(time.Date(2017, 3, 15, 8, 30, 0, 0, time.UTC)),
		},
		{
			name:     "date only",
			input:    "2017-03-15",
			expected: timePtr(time.Date(2017, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "garbage",
			input:    "not-a-timestamp",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInstant(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(*tt.expected))
		})
	}
}

func TestParseTimesIdempotent(t *testing.T) {
	tables := &Tables{
		Orders: []Order{{OrderID: 1, PayTimestamp: "2017-01-02 10:00:00"}},
		Events: []LogisticsEvent{{OrderID: 1, Timestamp: "2017-01-03 12:00:00"}},
	}

	require.False(t, tables.TimesParsed())
	tables.ParseTimes()
	require.True(t, tables.TimesParsed())
	require.NotNil(t, tables.Orders[0].PayTime)
	require.NotNil(t, tables.Events[0].EventTime)

	// A repeat call must not reparse mutated raw columns.
	tables.Orders[0].PayTimestamp = "2020-12-31 23:59:59"
	first := *tables.Orders[0].PayTime
	tables.ParseTimes()
	assert.True(t, first.Equal(*tables.Orders[0].PayTime))
}

func TestExcludeOrders(t *testing.T) {
	makeTables := func() *Tables {
		return &Tables{
			Orders: []Order{{OrderID: 1}, {OrderID: 2}, {OrderID: 3}, {OrderID: 4}},
			Events: []LogisticsEvent{
				{OrderID: 1, Action: ActionSigned},
				{OrderID: 2, Action: ActionConsign},
				{OrderID: 2, Action: ActionSigned},
				{OrderID: 3, Action: ActionSigned},
				{OrderID: 4, Action: ActionSigned},
			},
		}
	}

	t.Run("removes from both tables", func(t *testing.T) {
		tables := makeTables()
		ids := OrderIDSet{}
		ids.Add(2)
		ids.Add(4)

		fraction := tables.ExcludeOrders(ids)

		assert.InDelta(t, 0.5, fraction, 1e-12)
		assert.Len(t, tables.Orders, 2)
		assert.Len(t, tables.Events, 2)
		assert.NoError(t, tables.CheckConsistent())
	})

	t.Run("absent ids are a no-op", func(t *testing.T) {
		tables := makeTables()
		ids := OrderIDSet{}
		ids.Add(99)

		fraction := tables.ExcludeOrders(ids)

		assert.Zero(t, fraction)
		assert.Len(t, tables.Orders, 4)
		assert.Len(t, tables.Events, 5)
	})

	t.Run("empty set is a no-op", func(t *testing.T) {
		tables := makeTables()
		assert.Zero(t, tables.ExcludeOrders(OrderIDSet{}))
		assert.Len(t, tables.Orders, 4)
	})

	t.Run("idempotent", func(t *testing.T) {
		tables := makeTables()
		ids := OrderIDSet{}
		ids.Add(1)

		tables.ExcludeOrders(ids)
		ordersAfter := len(tables.Orders)
		eventsAfter := len(tables.Events)

		fraction := tables.ExcludeOrders(ids)
		assert.Zero(t, fraction)
		assert.Len(t, tables.Orders, ordersAfter)
		assert.Len(t, tables.Events, eventsAfter)
	})
}

func TestCheckConsistent(t *testing.T) {
	t.Run("orphan events", func(t *testing.T) {
		tables := &Tables{
			Orders: []Order{{OrderID: 1}},
			Events: []LogisticsEvent{{OrderID: 1}, {OrderID: 2}},
		}
		err := tables.CheckConsistent()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orphan events")
	})

	t.Run("orphan order", func(t *testing.T) {
		tables := &Tables{
			Orders: []Order{{OrderID: 1}, {OrderID: 2}},
			Events: []LogisticsEvent{{OrderID: 1}},
		}
		err := tables.CheckConsistent()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orphan order")
	})

	t.Run("empty tables are consistent", func(t *testing.T) {
		assert.NoError(t, (&Tables{}).CheckConsistent())
	})
}

func TestOrderIDSetSortedIDs(t *testing.T) {
	ids := OrderIDSet{}
	ids.Add(30)
	ids.Add(10)
	ids.Add(20)
	assert.Equal(t, []int64{10, 20, 30}, ids.SortedIDs())
}

func timePtr(t time.Time) *time.Time {
	return &t
}
