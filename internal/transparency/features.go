package transparency

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"msomcli/internal/dataset"
)

// MaxFeatureDays bounds the shipment durations the feature table covers.
// Shipments longer than this are already excluded by cleaning; the filter
// here guards against snapshots produced before that rule existed.
const MaxFeatureDays = 8

// FeatureBuilder turns binned action-time rows into the wide per
// (order, interval) feature table consumed by external regression
// tooling.
type FeatureBuilder struct {
	epoch  time.Time
	logger *slog.Logger
}

// NewFeatureBuilder creates a builder. Calendar features (elapsed days,
// week index) are measured from epoch.
func NewFeatureBuilder(epoch time.Time, logger *slog.Logger) *FeatureBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureBuilder{epoch: epoch, logger: logger}
}

// orderFeatures accumulates the per-order aggregates shared by every
// interval row of that order.
type orderFeatures struct {
	reviewScore    int64
	orderTime      time.Time
	shipmentTime   time.Duration
	merchantID     int64
	companyID      int64
	itemDetail     string
	totalEvents    int
	arriveCount    int
	departCount    int
	receiveCount   int
	scanCount      int
	facilities     map[int64]struct{}
	intervalCounts map[float64]int
}

// Build aggregates binned rows into one feature row per (order, interval)
// and left-joins item metadata on (item id, merchant id). Orders whose
// shipment rounds to less than one day or more than MaxFeatureDays whole
// days are dropped. Missing item joins fill the metadata columns with
// zero.
func (b *FeatureBuilder) Build(rows []ActionTimeRow, items []dataset.Item) []FeatureRow {
	perOrder := make(map[int64]*orderFeatures)
	for _, row := range rows {
		of, ok := perOrder[row.OrderID]
		if !ok {
			of = &orderFeatures{
				reviewScore:    clampScore(row.ReviewScore),
				orderTime:      row.OrderTime,
				shipmentTime:   row.ShipmentTime,
				merchantID:     row.MerchantID,
				companyID:      row.CompanyID,
				itemDetail:     row.ItemDetailInfo,
				facilities:     make(map[int64]struct{}),
				intervalCounts: make(map[float64]int),
			}
			perOrder[row.OrderID] = of
		}
		of.totalEvents++
		of.intervalCounts[row.Interval]++
		if row.FacilityID != 0 {
			of.facilities[row.FacilityID] = struct{}{}
		}
		switch row.Action {
		case dataset.ActionArrival:
			of.arriveCount++
		case dataset.ActionDeparture:
			of.departCount++
		case dataset.ActionGot:
			of.receiveCount++
		case dataset.ActionSentScan:
			of.scanCount++
		}
	}

	index := dataset.IndexItems(items)

	out := make([]FeatureRow, 0, len(rows))
	dropped := 0
	for orderID, of := range perOrder {
		dayCount := int(math.Ceil(of.shipmentTime.Hours() / 24))
		if dayCount < 1 || dayCount > MaxFeatureDays {
			dropped++
			continue
		}

		days := int(of.orderTime.Sub(b.epoch).Hours() / 24)
		base := FeatureRow{
			OrderID:             orderID,
			ReviewScore:         of.reviewScore,
			ShipmentActionCount: of.totalEvents,
			FacilityCount:       len(of.facilities),
			ArriveCount:         of.arriveCount,
			DepartCount:         of.departCount,
			ReceiveCount:        of.receiveCount,
			ScanCount:           of.scanCount,
			DayCount:            dayCount,
			Days:                days,
			WeekCount:           days / 7,
			DayOfWeek:           int(of.orderTime.Weekday()),
			MerchantID:          of.merchantID,
			CompanyID:           of.companyID,
		}
		if itemID, ok := dataset.ItemIDFromDetail(of.itemDetail); ok {
			base.ItemID = itemID
			if item, ok := index[dataset.ItemKey{ItemID: itemID, MerchantID: of.merchantID}]; ok {
				base.BrandID = item.BrandID
				base.CategoryID = item.CategoryID
			}
		}

		for interval, count := range of.intervalCounts {
			row := base
			row.Interval = interval
			row.ActionCount = count
			out = append(out, row)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderID != out[j].OrderID {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].Interval < out[j].Interval
	})

	b.logger.Info("built feature table",
		"orders", len(perOrder),
		"orders_dropped", dropped,
		"rows", len(out),
	)
	return out
}
