package transparency

import (
	"time"

	"msomcli/internal/dataset"
)

// ActionTimeRow is one cleaned event annotated with its fractional
// position within the owning shipment's lifecycle, plus the order columns
// the analyzer and the feature builder consume downstream.
type ActionTimeRow struct {
	OrderID    int64
	Action     dataset.Action
	ActionTime float64

	// Interval is the left edge of the event's action-time bin; valid
	// only after Analyzer.Bin.
	Interval float64

	ReviewScore  int64
	OrderTime    time.Time
	SignTime     time.Time
	ShipmentTime time.Duration

	FacilityID     int64
	CompanyID      int64
	MerchantID     int64
	ItemDetailInfo string
}

// DensityRow is one output row of the distribution difference analyzer,
// keyed by (action, interval, review score).
type DensityRow struct {
	Action               dataset.Action
	Interval             float64
	ReviewScore          int64
	ConditionalDensity   float64
	UnconditionalDensity float64
	Difference           float64
}

// FeatureRow is one row of the wide regression feature table, keyed by
// (order, interval). Item metadata columns are zero when the join found
// no matching item.
type FeatureRow struct {
	OrderID  int64
	Interval float64

	ReviewScore         int64
	ActionCount         int
	ShipmentActionCount int
	FacilityCount       int
	ArriveCount         int
	DepartCount         int
	ReceiveCount        int
	ScanCount           int

	DayCount  int
	Days      int
	WeekCount int
	DayOfWeek int

	ItemID     int64
	MerchantID int64
	BrandID    int64
	CategoryID int64
	CompanyID  int64
}
