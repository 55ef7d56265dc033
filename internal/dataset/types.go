package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Action is the closed enumeration of logistics event types tracked for a
// shipment. Raw data carries these as upper-case strings; they are decoded
// once at load time so rules can switch over them exhaustively.
type Action int

const (
	ActionUnknown Action = iota
	ActionConsign
	ActionGot
	ActionDeparture
	ActionArrival
	ActionSentScan
	ActionSigned
	ActionTradeSuccess
	ActionFailure
)

// String returns the wire representation of the action.
func (a Action) String() string {
	switch a {
	case ActionConsign:
		return "CONSIGN"
	case ActionGot:
		return "GOT"
	case ActionDeparture:
		return "DEPARTURE"
	case ActionArrival:
		return "ARRIVAL"
	case ActionSentScan:
		return "SENT_SCAN"
	case ActionSigned:
		return "SIGNED"
	case ActionTradeSuccess:
		return "TRADE_SUCCESS"
	case ActionFailure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// ParseAction decodes a raw action string. Unrecognized values map to
// ActionUnknown rather than an error; no cleaning rule matches on unknown
// actions, so such rows survive until the event-count rules see them.
func ParseAction(s string) Action {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CONSIGN":
		return ActionConsign
	case "GOT":
		return ActionGot
	case "DEPARTURE":
		return ActionDeparture
	case "ARRIVAL":
		return ActionArrival
	case "SENT_SCAN":
		return ActionSentScan
	case "SIGNED":
		return ActionSigned
	case "TRADE_SUCCESS":
		return ActionTradeSuccess
	case "FAILURE":
		return ActionFailure
	default:
		return ActionUnknown
	}
}

// Order is one row of the order table, keyed by OrderID.
// PayTimestamp holds the raw instant as loaded; PayTime is populated by
// Tables.ParseTimes and stays nil when the raw value is empty or
// unparseable. Nullable numeric columns are pointers.
type Order struct {
	OrderID        int64
	OrderDate      string
	ItemDetailInfo string
	PayTimestamp   string
	BuyerID        int64
	MerchantID     int64
	PromiseSpeed   *int64
	IfCainiao      bool
	ReviewScore    *int64

	PayTime *time.Time
}

// LogisticsEvent is one tracked milestone in a shipment's lifecycle.
// Many events reference the same OrderID. EventTime is populated by
// Tables.ParseTimes; nil means missing or unparseable.
type LogisticsEvent struct {
	OrderID      int64
	Action       Action
	FacilityID   int64
	FacilityType int64
	CityID       int64
	CompanyID    int64
	Timestamp    string

	EventTime *time.Time
}

// Item is one row of the read-only item metadata table (partition 8),
// joined against orders by (ItemID, MerchantID).
type Item struct {
	ItemID     int64
	MerchantID int64
	BrandID    int64
	CategoryID int64
}

// OrderIDSet is a set of order identifiers scheduled for exclusion.
type OrderIDSet map[int64]struct{}

// Add inserts an id into the set.
func (s OrderIDSet) Add(id int64) {
	s[id] = struct{}{}
}

// Contains reports whether the id is in the set.
func (s OrderIDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Tables is the in-memory relational store for one partition: the order
// table and the logistics event table. A Tables value is owned by exactly
// one pipeline run and mutated only through replace-in-place filters, so
// no synchronization is needed; separate partitions get separate values.
type Tables struct {
	Orders []Order
	Events []LogisticsEvent

	timesParsed bool
}

// TimestampLayouts are the accepted raw instant formats, tried in order.
var TimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
}

// ParseInstant parses a raw timestamp string, returning nil when the value
// is empty or matches none of the accepted layouts. Parse failure is data,
// not an error: downstream rules exclude the owning order.
func ParseInstant(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range TimestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}

// ParseTimes populates Order.PayTime and LogisticsEvent.EventTime from the
// raw timestamp columns. It runs once; repeat calls are no-ops.
func (t *Tables) ParseTimes() {
	if t.timesParsed {
		return
	}
	for i := range t.Orders {
		t.Orders[i].PayTime = ParseInstant(t.Orders[i].PayTimestamp)
	}
	for i := range t.Events {
		t.Events[i].EventTime = ParseInstant(t.Events[i].Timestamp)
	}
	t.timesParsed = true
}

// TimesParsed reports whether ParseTimes has run.
func (t *Tables) TimesParsed() bool {
	return t.timesParsed
}

// ExcludeOrders removes every row in both tables whose order id is in ids
// and nothing else. It is the single sanctioned mutation path for
// order-level cleaning rules: both tables shrink atomically, keeping the
// referential invariant. Removing already-absent ids is a no-op. The
// returned fraction is the share of orders removed, for observability only.
func (t *Tables) ExcludeOrders(ids OrderIDSet) float64 {
	if len(ids) == 0 {
		return 0
	}

	before := len(t.Orders)

	orders := t.Orders[:0]
	for _, o := range t.Orders {
		if !ids.Contains(o.OrderID) {
			orders = append(orders, o)
		}
	}
	t.Orders = orders

	events := t.Events[:0]
	for _, e := range t.Events {
		if !ids.Contains(e.OrderID) {
			events = append(events, e)
		}
	}
	t.Events = events

	if before == 0 {
		return 0
	}
	return 1 - float64(len(t.Orders))/float64(before)
}

// OrderIDs returns the set of order ids present in the order table.
func (t *Tables) OrderIDs() OrderIDSet {
	ids := make(OrderIDSet, len(t.Orders))
	for _, o := range t.Orders {
		ids.Add(o.OrderID)
	}
	return ids
}

// EventOrderIDs returns the set of order ids referenced by the event table.
func (t *Tables) EventOrderIDs() OrderIDSet {
	ids := make(OrderIDSet)
	for _, e := range t.Events {
		ids.Add(e.OrderID)
	}
	return ids
}

// CheckConsistent verifies the referential invariant: the order-id sets of
// the two tables are equal. A violation after the pipeline's first
// referential rule indicates a rule-ordering bug, so callers (tests, the
// snapshot writer) fail loudly on it.
func (t *Tables) CheckConsistent() error {
	orderIDs := t.OrderIDs()
	eventIDs := t.EventOrderIDs()
	for id := range eventIDs {
		if !orderIDs.Contains(id) {
			return fmt.Errorf("orphan events: order %d has events but no order row", id)
		}
	}
	for id := range orderIDs {
		if !eventIDs.Contains(id) {
			return fmt.Errorf("orphan order: order %d has no events", id)
		}
	}
	return nil
}

// EventsByOrder groups the event table by order id. Slices share backing
// storage with the table and must not be mutated.
func (t *Tables) EventsByOrder() map[int64][]LogisticsEvent {
	byOrder := make(map[int64][]LogisticsEvent)
	for _, e := range t.Events {
		byOrder[e.OrderID] = append(byOrder[e.OrderID], e)
	}
	return byOrder
}

// SortedIDs returns the set's ids in ascending order, for deterministic
// logging and tests.
func (s OrderIDSet) SortedIDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
