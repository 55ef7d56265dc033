package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOrdersCSV(t *testing.T) {
	content := "2017-03-01,1001,555:1,2017-03-01 09:00:00,42,1,1,7,4\n" +
		"2017-03-02,1002,556:1,2017-03-02 10:00:00,43,,0,7,4.0\n" +
		"2017-03-03,not-an-id,557:1,2017-03-03 11:00:00,44,2,1,7,5\n"

	path := writeTempCSV(t, "orders.csv", content)
	orders, err := LoadOrdersCSV(path)
	require.NoError(t, err)

	// The row with the unusable order id is skipped, not an error.
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, int64(1001), first.OrderID)
	assert.Equal(t, "2017-03-01", first.OrderDate)
	assert.Equal(t, "555:1", first.ItemDetailInfo)
	assert.Equal(t, int64(42), first.BuyerID)
	assert.Equal(t, int64(7), first.MerchantID)
	assert.True(t, first.IfCainiao)
	require.NotNil(t, first.PromiseSpeed)
	assert.Equal(t, int64(1), *first.PromiseSpeed)
	require.NotNil(t, first.ReviewScore)
	assert.Equal(t, int64(4), *first.ReviewScore)
	assert.Nil(t, first.PayTime, "times are parsed lazily, not at load")

	second := orders[1]
	assert.Nil(t, second.PromiseSpeed, "empty numeric column loads as nil")
	assert.False(t, second.IfCainiao)
	require.NotNil(t, second.ReviewScore)
	assert.Equal(t, int64(4), *second.ReviewScore, "float-formatted score keeps integral part")
}

func TestLoadEventsCSV(t *testing.T) {
	content := "1001,2017-03-01,900001,CONSIGN,31,1,210,12,2017-03-01 12:00:00\n" +
		"1001,2017-03-01,900001,SIGNED,32,1,210,12,2017-03-04 15:30:00\n" +
		"1001,2017-03-01,900001,WAREHOUSED,33,1,210,12,2017-03-02 08:00:00\n" +
		",2017-03-01,900002,SIGNED,34,1,210,12,2017-03-05 09:00:00\n"

	path := writeTempCSV(t, "events.csv", content)
	events, err := LoadEventsCSV(path)
	require.NoError(t, err)

	// The row with the empty order id is skipped.
	require.Len(t, events, 3)

	assert.Equal(t, ActionConsign, events[0].Action)
	assert.Equal(t, ActionSigned, events[1].Action)
	assert.Equal(t, ActionUnknown, events[2].Action, "unrecognized actions survive as unknown")
	assert.Equal(t, int64(31), events[0].FacilityID)
	assert.Equal(t, int64(12), events[0].CompanyID)
	assert.Equal(t, "2017-03-01 12:00:00", events[0].Timestamp)
	assert.Nil(t, events[0].EventTime)
}

func TestLoadOrdersCSVShortRecord(t *testing.T) {
	content := "2017-03-01,1001,555:1\n" +
		"2017-03-02,1002,556:1,2017-03-02 10:00:00,43,1,0,7,5\n"

	path := writeTempCSV(t, "orders.csv", content)
	orders, err := LoadOrdersCSV(path)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1002), orders[0].OrderID)
}

func TestLoadTables(t *testing.T) {
	ordersPath := writeTempCSV(t, "orders.csv",
		"2017-03-01,1001,555:1,2017-03-01 09:00:00,42,1,1,7,4\n")
	eventsPath := writeTempCSV(t, "events.csv",
		"1001,2017-03-01,900001,SIGNED,31,1,210,12,2017-03-04 15:30:00\n")

	tables, err := LoadTables(ordersPath, eventsPath)
	require.NoError(t, err)
	assert.Len(t, tables.Orders, 1)
	assert.Len(t, tables.Events, 1)
	assert.False(t, tables.TimesParsed())
}

func TestLoadTablesMissingFile(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "nope.csv"), "also-nope.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load orders")
}
