package transparency

import (
	"log/slog"
	"time"

	"msomcli/internal/dataset"
)

// ComputeActionTimes joins the cleaned event table against each order's
// pay instant and its SIGNED event (unique after cleaning) and computes
//
//	action_time = (event_time - order_time) / shipment_time
//
// the event's fractional position within the shipment's life. Events
// whose action time falls outside [0, 1] signal an inconsistency the
// cleaning pipeline did not catch (clock skew, for instance) and are
// silently discarded; that is a data-quality filter, not an error.
func ComputeActionTimes(t *dataset.Tables) []ActionTimeRow {
	type shipment struct {
		orderTime    time.Time
		signTime     time.Time
		shipmentTime time.Duration
		reviewScore  int64
		merchantID   int64
		itemDetail   string
	}

	orders := make(map[int64]dataset.Order, len(t.Orders))
	for _, o := range t.Orders {
		orders[o.OrderID] = o
	}

	shipments := make(map[int64]shipment)
	for _, e := range t.Events {
		if e.Action != dataset.ActionSigned || e.EventTime == nil {
			continue
		}
		o, ok := orders[e.OrderID]
		if !ok || o.PayTime == nil {
			continue
		}
		s := shipment{
			orderTime:    *o.PayTime,
			signTime:     *e.EventTime,
			shipmentTime: e.EventTime.Sub(*o.PayTime),
			merchantID:   o.MerchantID,
			itemDetail:   o.ItemDetailInfo,
		}
		if o.ReviewScore != nil {
			s.reviewScore = *o.ReviewScore
		}
		if s.shipmentTime <= 0 {
			// Degenerate lifecycle; every action time would be
			// undefined or infinite, so the shipment contributes
			// nothing.
			continue
		}
		shipments[e.OrderID] = s
	}

	rows := make([]ActionTimeRow, 0, len(t.Events))
	for _, e := range t.Events {
		s, ok := shipments[e.OrderID]
		if !ok || e.EventTime == nil {
			continue
		}
		actionTime := float64(e.EventTime.Sub(s.orderTime)) / float64(s.shipmentTime)
		if actionTime < 0 || actionTime > 1 {
			continue
		}
		rows = append(rows, ActionTimeRow{
			OrderID:        e.OrderID,
			Action:         e.Action,
			ActionTime:     actionTime,
			ReviewScore:    s.reviewScore,
			OrderTime:      s.orderTime,
			SignTime:       s.signTime,
			ShipmentTime:   s.shipmentTime,
			FacilityID:     e.FacilityID,
			CompanyID:      e.CompanyID,
			MerchantID:     s.merchantID,
			ItemDetailInfo: s.itemDetail,
		})
	}

	slog.Debug("computed action times",
		"events_in", len(t.Events),
		"rows_out", len(rows),
		"shipments", len(shipments),
	)
	return rows
}
