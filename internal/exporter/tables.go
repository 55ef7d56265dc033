package exporter

import (
	"strconv"

	"msomcli/internal/transparency"
)

// DensityFileName is the default output file for the distribution
// difference table.
const DensityFileName = "distribution_difference.csv"

// FeatureFileName is the default output file for the regression feature
// table.
const FeatureFileName = "order_features.csv"

var densityHeaders = []string{
	"action",
	"interval",
	"logistics_review_score",
	"conditional_density",
	"unconditional_density",
	"difference",
}

// WriteDensityTable writes the analyzer output keyed by
// (action, interval, review score).
func (w *CSVWriter) WriteDensityTable(filePath string, rows []transparency.DensityRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Action.String(),
			formatInterval(row.Interval),
			formatInt(row.ReviewScore),
			formatDensity(row.ConditionalDensity),
			formatDensity(row.UnconditionalDensity),
			formatDensity(row.Difference),
		})
	}
	return w.WriteSimpleCSV(filePath, densityHeaders, records)
}

var featureHeaders = []string{
	"order_id",
	"interval",
	"logistics_review_score",
	"action_count",
	"shipment_action_count",
	"facility_count",
	"arrive_count",
	"depart_count",
	"receive_count",
	"scan_count",
	"day_count",
	"days",
	"week_count",
	"day_of_week",
	"item_id",
	"merchant_id",
	"brand_id",
	"category_id",
	"logistic_company_id",
}

// WriteFeatureTable streams the wide per (order, interval) feature table.
// Streaming keeps memory flat; the table has one row per order and bin
// and can dwarf the density table.
func (w *CSVWriter) WriteFeatureTable(filePath string, rows []transparency.FeatureRow) error {
	stream, err := w.CreateStreamWriter(filePath, featureHeaders)
	if err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			formatInt(row.OrderID),
			formatInterval(row.Interval),
			formatInt(row.ReviewScore),
			strconv.Itoa(row.ActionCount),
			strconv.Itoa(row.ShipmentActionCount),
			strconv.Itoa(row.FacilityCount),
			strconv.Itoa(row.ArriveCount),
			strconv.Itoa(row.DepartCount),
			strconv.Itoa(row.ReceiveCount),
			strconv.Itoa(row.ScanCount),
			strconv.Itoa(row.DayCount),
			strconv.Itoa(row.Days),
			strconv.Itoa(row.WeekCount),
			strconv.Itoa(row.DayOfWeek),
			formatInt(row.ItemID),
			formatInt(row.MerchantID),
			formatInt(row.BrandID),
			formatInt(row.CategoryID),
			formatInt(row.CompanyID),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}
