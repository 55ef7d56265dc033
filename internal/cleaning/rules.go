package cleaning

import (
	"strings"
	"time"

	"msomcli/internal/dataset"
)

// MaxShipmentDays is the longest whole-day shipment duration retained by
// the duration rule; MaxEventCount and MinEventCount bound the number of
// logged events per shipment.
const (
	MaxShipmentDays = 8
	MaxEventCount   = 10
	MinEventCount   = 4
)

// Rules returns the cleaning catalogue in its required execution order.
// The order is load-bearing: the timestamp comparisons of rules 7 and 10
// assume ParseTimes has run, and rule 10 joins each order against the
// single SIGNED event that rule 8 guarantees.
func Rules() []Rule {
	return []Rule{
		orderRule("non_platform_origin", "origin warehouse not platform-managed", excludeNotCainiao),
		orderRule("missing_review_score", "missing logistics review score", excludeMissingReviewScore),
		rowRule("trade_success_rows", "drop trade-success marker rows", dropTradeSuccessRows),
		rowRule("duplicate_rows", "drop exact-duplicate rows", dropDuplicateRows),
		orderRule("failed_delivery", "failed delivery", excludeFailedDelivery),
		orderRule("missing_shipment_times", "missing shipment times", excludeMissingShipmentTimes),
		orderRule("action_before_order", "event before pay time", excludeActionBeforeOrder),
		orderRule("not_one_signed", "not exactly one SIGNED event", excludeWithoutOneSigned),
		orderRule("not_one_consign", "not exactly one CONSIGN event", excludeWithoutOneConsign),
		orderRule("action_after_sign", "event after sign time", excludeActionAfterSign),
		orderRule("missing_promise_speed", "missing or zero promise speed", excludeMissingPromiseSpeed),
		orderRule("multiple_shippers", "multiple logistics carriers", excludeMultipleShippers),
		orderRule("multiple_product_types", "multiple product types", excludeMultipleProductTypes),
		orderRule("shipment_too_long", "shipment duration over eight days", excludeLongShipments),
		orderRule("too_many_events", "more than ten events", excludeTooManyEvents),
		orderRule("too_few_events", "fewer than four events", excludeTooFewEvents),
	}
}

// Rule 1: orders whose origin warehouse is not managed by the logistics
// platform carry no usable operational data.
func excludeNotCainiao(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for _, o := range t.Orders {
		if !o.IfCainiao {
			ids.Add(o.OrderID)
		}
	}
	return ids
}

// Rule 2: the analysis is conditioned on customer satisfaction, so orders
// without a review score contribute nothing.
func excludeMissingReviewScore(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for _, o := range t.Orders {
		if o.ReviewScore == nil {
			ids.Add(o.OrderID)
		}
	}
	return ids
}

// Rule 3 (row-level): TRADE_SUCCESS rows mark the commercial transaction,
// not shipment handling; they are dropped without excluding the order.
func dropTradeSuccessRows(t *dataset.Tables) {
	events := t.Events[:0]
	for _, e := range t.Events {
		if e.Action != dataset.ActionTradeSuccess {
			events = append(events, e)
		}
	}
	t.Events = events
}

// Rule 4 (row-level): exact-duplicate rows are dropped in each table
// independently, keeping the first occurrence.
func dropDuplicateRows(t *dataset.Tables) {
	seenOrders := make(map[orderKey]struct{}, len(t.Orders))
	orders := t.Orders[:0]
	for _, o := range t.Orders {
		k := keyForOrder(o)
		if _, ok := seenOrders[k]; ok {
			continue
		}
		seenOrders[k] = struct{}{}
		orders = append(orders, o)
	}
	t.Orders = orders

	seenEvents := make(map[eventKey]struct{}, len(t.Events))
	events := t.Events[:0]
	for _, e := range t.Events {
		k := keyForEvent(e)
		if _, ok := seenEvents[k]; ok {
			continue
		}
		seenEvents[k] = struct{}{}
		events = append(events, e)
	}
	t.Events = events
}

// Rule 5: any FAILURE event marks the whole shipment as undeliverable.
func excludeFailedDelivery(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for _, e := range t.Events {
		if e.Action == dataset.ActionFailure {
			ids.Add(e.OrderID)
		}
	}
	return ids
}

// Rule 6: shipments need a full set of instants. An event whose timestamp
// is missing or failed to parse, or an order without an order date or a
// parseable pay instant, excludes the order. Parse failures surface here
// as nil parsed values, by policy, never as errors.
func excludeMissingShipmentTimes(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for _, e := range t.Events {
		if e.EventTime == nil {
			ids.Add(e.OrderID)
		}
	}
	for _, o := range t.Orders {
		if o.OrderDate == "" || o.PayTime == nil {
			ids.Add(o.OrderID)
		}
	}
	return ids
}

// Rule 7: an event reported before the order was paid for is clock skew or
// corrupt data; the order is excluded.
func excludeActionBeforeOrder(t *dataset.Tables) dataset.OrderIDSet {
	payTimes := make(map[int64]time.Time, len(t.Orders))
	for _, o := range t.Orders {
		if o.PayTime != nil {
			payTimes[o.OrderID] = *o.PayTime
		}
	}

	ids := make(dataset.OrderIDSet)
	for _, e := range t.Events {
		if e.EventTime == nil {
			continue
		}
		if payTime, ok := payTimes[e.OrderID]; ok && e.EventTime.Before(payTime) {
			ids.Add(e.OrderID)
		}
	}
	return ids
}

// Rule 8: exactly one SIGNED event per order. Orders with zero count as
// readily as those with several.
func excludeWithoutOneSigned(t *dataset.Tables) dataset.OrderIDSet {
	return excludeWithoutExactlyOne(t, dataset.ActionSigned)
}

// Rule 9: exactly one CONSIGN event per order.
func excludeWithoutOneConsign(t *dataset.Tables) dataset.OrderIDSet {
	return excludeWithoutExactlyOne(t, dataset.ActionConsign)
}

func excludeWithoutExactlyOne(t *dataset.Tables, action dataset.Action) dataset.OrderIDSet {
	counts := make(map[int64]int)
	for _, e := range t.Events {
		if e.Action == action {
			counts[e.OrderID]++
		}
	}

	ids := make(dataset.OrderIDSet)
	for _, o := range t.Orders {
		if counts[o.OrderID] != 1 {
			ids.Add(o.OrderID)
		}
	}
	return ids
}

// Rule 10: joins each order's events against its SIGNED event (unique by
// rule 8) and excludes orders with any event after the sign instant.
func excludeActionAfterSign(t *dataset.Tables) dataset.OrderIDSet {
	signTimes := make(map[int64]time.Time)
	for _, e := range t.Events {
		if e.Action == dataset.ActionSigned && e.EventTime != nil {
			signTimes[e.OrderID] = *e.EventTime
		}
	}

	ids := make(dataset.OrderIDSet)
	for _, e := range t.Events {
		if e.EventTime == nil {
			continue
		}
		if signTime, ok := signTimes[e.OrderID]; ok && e.EventTime.After(signTime) {
			ids.Add(e.OrderID)
		}
	}
	return ids
}

// Rule 11: the study keeps only the slowest promised shipping tier; a
// missing or zero promise_speed is unset.
func excludeMissingPromiseSpeed(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for _, o := range t.Orders {
		if o.PromiseSpeed == nil || *o.PromiseSpeed == 0 {
			ids.Add(o.OrderID)
		}
	}
	return ids
}

// Rule 12: multiple shippers. The rule as originally published joins the
// event table to the order table and compares the carrier column against
// itself, a predicate that never holds, so it excludes nothing. The no-op
// is reproduced here rather than silently corrected; comparing each
// order's set of distinct carriers would change the cleaned universe.
func excludeMultipleShippers(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for _, e := range t.Events {
		joinedCompanyID := e.CompanyID
		if e.CompanyID != joinedCompanyID {
			ids.Add(e.OrderID)
		}
	}
	return ids
}

// Rule 13: item_detail_info encodes one entry per item, comma-separated;
// multi-item orders are excluded.
func excludeMultipleProductTypes(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for _, o := range t.Orders {
		if len(strings.Split(o.ItemDetailInfo, ",")) > 1 {
			ids.Add(o.OrderID)
		}
	}
	return ids
}

// Rule 14: shipment duration is sign time minus consign time; orders over
// MaxShipmentDays whole days are excluded. A duration of exactly eight
// days is retained.
func excludeLongShipments(t *dataset.Tables) dataset.OrderIDSet {
	consignTimes := make(map[int64]time.Time)
	for _, e := range t.Events {
		if e.Action == dataset.ActionConsign && e.EventTime != nil {
			consignTimes[e.OrderID] = *e.EventTime
		}
	}

	ids := make(dataset.OrderIDSet)
	for _, e := range t.Events {
		if e.Action != dataset.ActionSigned || e.EventTime == nil {
			continue
		}
		consignTime, ok := consignTimes[e.OrderID]
		if !ok {
			continue
		}
		days := int(e.EventTime.Sub(consignTime).Hours() / 24)
		if days > MaxShipmentDays {
			ids.Add(e.OrderID)
		}
	}
	return ids
}

// Rule 15: more than MaxEventCount logged events.
func excludeTooManyEvents(t *dataset.Tables) dataset.OrderIDSet {
	ids := make(dataset.OrderIDSet)
	for id, count := range eventCounts(t) {
		if count > MaxEventCount {
			ids.Add(id)
		}
	}
	return ids
}

// Rule 16: fewer than MinEventCount logged events. Iterates the order
// table so that an order with no events at all is also excluded.
func excludeTooFewEvents(t *dataset.Tables) dataset.OrderIDSet {
	counts := eventCounts(t)
	ids := make(dataset.OrderIDSet)
	for _, o := range t.Orders {
		if counts[o.OrderID] < MinEventCount {
			ids.Add(o.OrderID)
		}
	}
	return ids
}

func eventCounts(t *dataset.Tables) map[int64]int {
	counts := make(map[int64]int)
	for _, e := range t.Events {
		counts[e.OrderID]++
	}
	return counts
}

// Duplicate-detection keys cover the raw columns only; parsed instants are
// derived and would never differ between otherwise identical rows.
type orderKey struct {
	orderID        int64
	orderDate      string
	itemDetailInfo string
	payTimestamp   string
	buyerID        int64
	merchantID     int64
	promiseSpeed   int64
	hasPromise     bool
	ifCainiao      bool
	reviewScore    int64
	hasScore       bool
}

type eventKey struct {
	orderID      int64
	action       dataset.Action
	facilityID   int64
	facilityType int64
	cityID       int64
	companyID    int64
	timestamp    string
}

func keyForOrder(o dataset.Order) orderKey {
	k := orderKey{
		orderID:        o.OrderID,
		orderDate:      o.OrderDate,
		itemDetailInfo: o.ItemDetailInfo,
		payTimestamp:   o.PayTimestamp,
		buyerID:        o.BuyerID,
		merchantID:     o.MerchantID,
		ifCainiao:      o.IfCainiao,
	}
	if o.PromiseSpeed != nil {
		k.promiseSpeed, k.hasPromise = *o.PromiseSpeed, true
	}
	if o.ReviewScore != nil {
		k.reviewScore, k.hasScore = *o.ReviewScore, true
	}
	return k
}

func keyForEvent(e dataset.LogisticsEvent) eventKey {
	return eventKey{
		orderID:      e.OrderID,
		action:       e.Action,
		facilityID:   e.FacilityID,
		facilityType: e.FacilityType,
		cityID:       e.CityID,
		companyID:    e.CompanyID,
		timestamp:    e.Timestamp,
	}
}
