// Package core holds the data model and the consumption accounting engine.
//
// This file implements the accounting functions that relate settled hours to
// order line-item limits. All functions are pure: they take the settlement
// history (or a full snapshot) and derive values without touching state, so
// any mutation simply re-runs them against the store's current snapshot.
package core

// Period selects settlements for aggregate queries. Month 0 means the
// whole year.
type Period struct {
	Year  int
	Month int
}

// WholeYear reports whether the period covers all twelve months.
func (p Period) WholeYear() bool {
	return p.Month == 0
}

// Contains reports whether a settlement for (year, month) falls inside
// the period.
func (p Period) Contains(year, month int) bool {
	if year != p.Year {
		return false
	}
	return p.WholeYear() || month == p.Month
}

// UsedHoursTotal sums hours over every settlement item, across all
// settlements, that bills the given (order, work type) pair. This is the
// all-time consumption against the line-item limit.
func UsedHoursTotal(settlements []Settlement, orderID string, t WorkType) float64 {
	var sum float64
	for _, s := range settlements {
		for _, item := range s.Items {
			if item.OrderID == orderID && item.ItemType == t {
				sum += item.Hours
			}
		}
	}
	return sum
}

// UsedHoursInPeriod is UsedHoursTotal restricted to settlements inside
// the period filter.
func UsedHoursInPeriod(settlements []Settlement, orderID string, t WorkType, p Period) float64 {
	var sum float64
	for _, s := range settlements {
		if !p.Contains(s.Year, s.Month) {
			continue
		}
		for _, item := range s.Items {
			if item.OrderID == orderID && item.ItemType == t {
				sum += item.Hours
			}
		}
	}
	return sum
}

// RemainingHours is the line-item limit minus all-time consumption. The
// result goes negative when over-committed; callers display it as-is.
// The second return value is false when the order has no line item of
// the given type.
func RemainingHours(order Order, settlements []Settlement, t WorkType) (float64, bool) {
	item, ok := order.Item(t)
	if !ok {
		return 0, false
	}
	return item.Hours - UsedHoursTotal(settlements, order.ID, t), true
}

// ProgressPercent is all-time consumption over the limit, as a percentage
// clamped to [0,100] for display. A zero-hour limit yields 0 rather than
// dividing by zero. Only the presented percentage is clamped; RemainingHours
// carries the unclamped balance.
func ProgressPercent(order Order, settlements []Settlement, t WorkType) float64 {
	item, ok := order.Item(t)
	if !ok || item.Hours == 0 {
		return 0
	}
	progress := UsedHoursTotal(settlements, order.ID, t) / item.Hours * 100
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}

// AvailableForEntry computes how many hours remain available while a
// settlement form is being composed: the limit, minus hours already
// persisted (excluding the settlement being edited, so its own prior
// contribution is not double-counted), minus hours entered for the same
// (order, type) pair in other rows of the in-progress form.
//
// The value is advisory. Submissions exceeding it are accepted; overruns
// are allowed with visibility, not rejected.
func AvailableForEntry(order Order, settlements []Settlement, t WorkType, excludeSettlementID string, inFormHours float64) float64 {
	item, ok := order.Item(t)
	if !ok {
		return 0
	}
	var used float64
	for _, s := range settlements {
		if excludeSettlementID != "" && s.ID == excludeSettlementID {
			continue
		}
		for _, si := range s.Items {
			if si.OrderID == order.ID && si.ItemType == t {
				used += si.Hours
			}
		}
	}
	return item.Hours - used - inFormHours
}
