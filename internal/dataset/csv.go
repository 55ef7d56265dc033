package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Raw CSV column layout. The MSOM export ships without a header row; the
// column order is fixed by the upstream extraction.
//
//	order data:       day, order_id, item_detail_info, pay_timestamp,
//	                  buyer_id, promise_speed, if_cainiao, merchant_id,
//	                  logistics_review_score
//	logistics detail: order_id, order_date, logistics_order_id, action,
//	                  facility_id, facility_type, city_id,
//	                  logistic_company_id, timestamp
const (
	orderColumns = 9
	eventColumns = 9
)

// LoadOrdersCSV reads the raw order table for one partition. Rows with an
// unusable order id are logged and skipped; every other malformation is
// preserved as data (empty strings, nil numerics) for the cleaning rules
// to judge.
func LoadOrdersCSV(path string) ([]Order, error) {
	records, err := readRawCSV(path)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(records))
	for i, record := range records {
		if len(record) < orderColumns {
			slog.Warn("skipping short order record",
				"path", path,
				"line", i+1,
				"columns", len(record),
			)
			continue
		}

		orderID, err := parseID(record[1])
		if err != nil {
			slog.Warn("skipping order record with unusable order id",
				"path", path,
				"line", i+1,
				"error", err,
			)
			continue
		}

		orders = append(orders, Order{
			OrderID:        orderID,
			OrderDate:      strings.TrimSpace(record[0]),
			ItemDetailInfo: strings.TrimSpace(record[2]),
			PayTimestamp:   strings.TrimSpace(record[3]),
			BuyerID:        parseIDOrZero(record[4]),
			PromiseSpeed:   parseNullableInt(record[5]),
			IfCainiao:      strings.TrimSpace(record[6]) == "1",
			MerchantID:     parseIDOrZero(record[7]),
			ReviewScore:    parseNullableInt(record[8]),
		})
	}

	return orders, nil
}

// LoadEventsCSV reads the raw logistics detail table for one partition.
// The order_date and logistics_order_id columns are carried by the raw
// export but not by the event model; they are skipped here.
func LoadEventsCSV(path string) ([]LogisticsEvent, error) {
	records, err := readRawCSV(path)
	if err != nil {
		return nil, err
	}

	events := make([]LogisticsEvent, 0, len(records))
	for i, record := range records {
		if len(record) < eventColumns {
			slog.Warn("skipping short event record",
				"path", path,
				"line", i+1,
				"columns", len(record),
			)
			continue
		}

		orderID, err := parseID(record[0])
		if err != nil {
			slog.Warn("skipping event record with unusable order id",
				"path", path,
				"line", i+1,
				"error", err,
			)
			continue
		}

		events = append(events, LogisticsEvent{
			OrderID:      orderID,
			Action:       ParseAction(record[3]),
			FacilityID:   parseIDOrZero(record[4]),
			FacilityType: parseIDOrZero(record[5]),
			CityID:       parseIDOrZero(record[6]),
			CompanyID:    parseIDOrZero(record[7]),
			Timestamp:    strings.TrimSpace(record[8]),
		})
	}

	return events, nil
}

// LoadTables reads the raw order and logistics detail CSV pair for one
// partition into a fresh relational store.
func LoadTables(ordersPath, eventsPath string) (*Tables, error) {
	orders, err := LoadOrdersCSV(ordersPath)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	events, err := LoadEventsCSV(eventsPath)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return &Tables{Orders: orders, Events: events}, nil
}

func readRawCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	return records, nil
}

func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	return id, nil
}

func parseIDOrZero(s string) int64 {
	id, err := parseID(s)
	if err != nil {
		return 0
	}
	return id
}

func parseNullableInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Scores occasionally arrive as floats ("4.0"); keep the integral part.
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := int64(f)
		return &v
	}
	return nil
}
