package cleaning

import (
	"time"

	"msomcli/internal/dataset"
)

// Rule is one entry of the ordered cleaning catalogue. A rule is either
// order-level (computes an exclusion set that the runner routes through
// dataset.Tables.ExcludeOrders) or row-level (drops individual rows from
// one table without touching the other). Rules are total functions over
// the current table state: malformed input never raises, and empty tables
// yield empty exclusion sets.
type Rule struct {
	ID   string
	Name string

	exclude func(t *dataset.Tables) dataset.OrderIDSet
	filter  func(t *dataset.Tables)
}

// orderRule builds an order-level rule.
func orderRule(id, name string, fn func(t *dataset.Tables) dataset.OrderIDSet) Rule {
	return Rule{ID: id, Name: name, exclude: fn}
}

// rowRule builds a row-level rule that bypasses the exclusion primitive
// deliberately: it drops rows, not orders.
func rowRule(id, name string, fn func(t *dataset.Tables)) Rule {
	return Rule{ID: id, Name: name, filter: fn}
}

// RowLevel reports whether the rule drops individual rows rather than
// whole orders.
func (r Rule) RowLevel() bool {
	return r.filter != nil
}

// Apply runs the rule against the tables and returns the fraction of
// orders removed (zero for row-level rules, which may still shrink the
// event table).
func (r Rule) Apply(t *dataset.Tables) float64 {
	if r.filter != nil {
		r.filter(t)
		return 0
	}
	return t.ExcludeOrders(r.exclude(t))
}

// RuleReport records the effect of one rule application, for logging and
// the pipeline summary. Observability only; correctness never depends on
// these numbers.
type RuleReport struct {
	RuleID          string
	RuleName        string
	OrdersBefore    int
	OrdersAfter     int
	EventsBefore    int
	EventsAfter     int
	RemovedFraction float64
	Duration        time.Duration
}
