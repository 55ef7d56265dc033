package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// Partition index space: seven data partitions plus a reserved read-only
// item metadata partition.
const (
	MinPartition  = 1
	MaxPartition  = 7
	ItemPartition = 8
)

const parquetParallelism = 4

// ValidatePartition checks that index addresses one of the seven cleanable
// data partitions. An out-of-range index is a precondition failure and is
// surfaced before any computation.
func ValidatePartition(index int) error {
	if index < MinPartition || index > MaxPartition {
		return fmt.Errorf("partition index %d out of range [%d, %d]", index, MinPartition, MaxPartition)
	}
	return nil
}

// orderRow is the columnar layout of one cleaned order. Nullable columns
// are OPTIONAL; parsed instants are persisted as millisecond timestamps so
// readers do not re-parse the raw strings.
type orderRow struct {
	OrderID        int64  `parquet:"name=order_id, type=INT64"`
	OrderDate      string `parquet:"name=order_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	ItemDetailInfo string `parquet:"name=item_detail_info, type=BYTE_ARRAY, convertedtype=UTF8"`
	PayTimestamp   string `parquet:"name=pay_timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
	BuyerID        int64  `parquet:"name=buyer_id, type=INT64"`
	MerchantID     int64  `parquet:"name=merchant_id, type=INT64"`
	PromiseSpeed   *int64 `parquet:"name=promise_speed, type=INT64, repetitiontype=OPTIONAL"`
	IfCainiao      bool   `parquet:"name=if_cainiao, type=BOOLEAN"`
	ReviewScore    *int64 `parquet:"name=logistics_review_score, type=INT64, repetitiontype=OPTIONAL"`
	PayTimeMillis  *int64 `parquet:"name=pay_timestamp_datetime, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
}

// eventRow is the columnar layout of one cleaned logistics event.
type eventRow struct {
	OrderID         int64  `parquet:"name=order_id, type=INT64"`
	Action          string `parquet:"name=action, type=BYTE_ARRAY, convertedtype=UTF8"`
	FacilityID      int64  `parquet:"name=facility_id, type=INT64"`
	FacilityType    int64  `parquet:"name=facility_type, type=INT64"`
	CityID          int64  `parquet:"name=city_id, type=INT64"`
	CompanyID       int64  `parquet:"name=logistic_company_id, type=INT64"`
	Timestamp       string `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
	EventTimeMillis *int64 `parquet:"name=timestamp_datetime, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL"`
}

// SnapshotPaths returns the cleaned snapshot file pair for a partition
// under root: <root>/data_<i>/cleaned_order_data_<i>.parquet and
// <root>/data_<i>/cleaned_logistics_detail_<i>.parquet.
func SnapshotPaths(root string, index int) (ordersPath, eventsPath string) {
	dir := filepath.Join(root, fmt.Sprintf("data_%d", index))
	ordersPath = filepath.Join(dir, fmt.Sprintf("cleaned_order_data_%d.parquet", index))
	eventsPath = filepath.Join(dir, fmt.Sprintf("cleaned_logistics_detail_%d.parquet", index))
	return ordersPath, eventsPath
}

// WriteSnapshot exports the cleaned tables as an immutable columnar
// snapshot for the given partition. Preconditions: root must exist and
// index must be a valid data partition; violations are returned before
// anything is written.
func WriteSnapshot(root string, index int, t *Tables) error {
	if err := ValidatePartition(index); err != nil {
		return err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("snapshot root directory %q does not exist", root)
	}

	ordersPath, eventsPath := SnapshotPaths(root, index)
	if err := os.MkdirAll(filepath.Dir(ordersPath), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	slog.Info("writing cleaned snapshot",
		"partition", index,
		"orders", len(t.Orders),
		"events", len(t.Events),
	)

	if err := writeParquet(ordersPath, new(orderRow), newOrderRows(t.Orders)); err != nil {
		return fmt.Errorf("write order snapshot: %w", err)
	}
	if err := writeParquet(eventsPath, new(eventRow), newEventRows(t.Events)); err != nil {
		return fmt.Errorf("write event snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads one partition's cleaned snapshot back into a
// relational store. Instants come back from the persisted timestamp
// columns, so the returned tables are already parsed.
func ReadSnapshot(root string, index int) (*Tables, error) {
	if err := ValidatePartition(index); err != nil {
		return nil, err
	}
	ordersPath, eventsPath := SnapshotPaths(root, index)

	var orderRows []orderRow
	if err := readParquet(ordersPath, new(orderRow), &orderRows); err != nil {
		return nil, fmt.Errorf("read order snapshot: %w", err)
	}
	var eventRows []eventRow
	if err := readParquet(eventsPath, new(eventRow), &eventRows); err != nil {
		return nil, fmt.Errorf("read event snapshot: %w", err)
	}

	t := &Tables{
		Orders:      make([]Order, 0, len(orderRows)),
		Events:      make([]LogisticsEvent, 0, len(eventRows)),
		timesParsed: true,
	}
	for _, r := range orderRows {
		t.Orders = append(t.Orders, Order{
			OrderID:        r.OrderID,
			OrderDate:      r.OrderDate,
			ItemDetailInfo: r.ItemDetailInfo,
			PayTimestamp:   r.PayTimestamp,
			BuyerID:        r.BuyerID,
			MerchantID:     r.MerchantID,
			PromiseSpeed:   r.PromiseSpeed,
			IfCainiao:      r.IfCainiao,
			ReviewScore:    r.ReviewScore,
			PayTime:        timeFromMillis(r.PayTimeMillis),
		})
	}
	for _, r := range eventRows {
		t.Events = append(t.Events, LogisticsEvent{
			OrderID:      r.OrderID,
			Action:       ParseAction(r.Action),
			FacilityID:   r.FacilityID,
			FacilityType: r.FacilityType,
			CityID:       r.CityID,
			CompanyID:    r.CompanyID,
			Timestamp:    r.Timestamp,
			EventTime:    timeFromMillis(r.EventTimeMillis),
		})
	}
	return t, nil
}

// ReadSnapshots loads and concatenates the cleaned snapshots for
// partitions 1..partitions, the analyzer's input shape.
func ReadSnapshots(root string, partitions int) (*Tables, error) {
	merged := &Tables{timesParsed: true}
	for index := MinPartition; index <= partitions; index++ {
		t, err := ReadSnapshot(root, index)
		if err != nil {
			return nil, fmt.Errorf("partition %d: %w", index, err)
		}
		merged.Orders = append(merged.Orders, t.Orders...)
		merged.Events = append(merged.Events, t.Events...)
	}
	return merged, nil
}

func newOrderRows(orders []Order) []interface{} {
	rows := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderRow{
			OrderID:        o.OrderID,
			OrderDate:      o.OrderDate,
			ItemDetailInfo: o.ItemDetailInfo,
			PayTimestamp:   o.PayTimestamp,
			BuyerID:        o.BuyerID,
			MerchantID:     o.MerchantID,
			PromiseSpeed:   o.PromiseSpeed,
			IfCainiao:      o.IfCainiao,
			ReviewScore:    o.ReviewScore,
			PayTimeMillis:  millisFromTime(o.PayTime),
		})
	}
	return rows
}

func newEventRows(events []LogisticsEvent) []interface{} {
	rows := make([]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, eventRow{
			OrderID:         e.OrderID,
			Action:          e.Action.String(),
			FacilityID:      e.FacilityID,
			FacilityType:    e.FacilityType,
			CityID:          e.CityID,
			CompanyID:       e.CompanyID,
			Timestamp:       e.Timestamp,
			EventTimeMillis: millisFromTime(e.EventTime),
		})
	}
	return rows
}

func writeParquet(path string, schema interface{}, rows []interface{}) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, schema, parquetParallelism)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	return nil
}

func readParquet(path string, schema interface{}, out interface{}) error {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return fmt.Errorf("open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, schema, parquetParallelism)
	if err != nil {
		return fmt.Errorf("create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	switch rows := out.(type) {
	case *[]orderRow:
		*rows = make([]orderRow, num)
		if num > 0 {
			if err := pr.Read(rows); err != nil {
				return fmt.Errorf("read parquet rows: %w", err)
			}
		}
	case *[]eventRow:
		*rows = make([]eventRow, num)
		if num > 0 {
			if err := pr.Read(rows); err != nil {
				return fmt.Errorf("read parquet rows: %w", err)
			}
		}
	default:
		return fmt.Errorf("unsupported row type %T", out)
	}
	return nil
}

func millisFromTime(ts *time.Time) *int64 {
	if ts == nil {
		return nil
	}
	ms := ts.UnixMilli()
	return &ms
}

func timeFromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	ts := time.UnixMilli(*ms).UTC()
	return &ts
}
