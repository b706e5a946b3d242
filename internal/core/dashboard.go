package core

// WorkTypeHours is an hour total aggregated by work item type.
type WorkTypeHours struct {
	Type  WorkType
	Hours float64
}

// ProgressItem describes one order line item touched in the selected
// period: the period's contribution next to the lifetime consumption
// against the contracted limit.
type ProgressItem struct {
	ItemType     WorkType
	LimitHours   float64
	UsedInPeriod float64
	UsedTotal    float64
	// Remaining is unclamped and may be negative when over-committed.
	Remaining float64
	// Progress is the display percentage, clamped to [0,100].
	Progress float64
}

// OrderProgress groups the progress rows of one order, joined back to
// its client for display.
type OrderProgress struct {
	OrderID     string
	OrderNumber string
	ClientName  string
	Items       []ProgressItem
}

// DashboardSummary is the aggregate view for a period filter.
type DashboardSummary struct {
	Period       Period
	TotalHours   float64
	SettledCount int
	Distribution []WorkTypeHours
	Progress     []OrderProgress
}

// BuildDashboard aggregates the settlement history for the period.
//
// Distribution omits work types with zero in-period hours. Progress lists
// only orders billed in the period, and within them only line items with
// in-period usage; used/remaining figures there are lifetime values, since
// limits are lifetime rather than per-period.
func BuildDashboard(snap Snapshot, p Period) DashboardSummary {
	summary := DashboardSummary{Period: p}

	var inPeriod []SettlementItem
	for _, s := range snap.Settlements {
		if p.Contains(s.Year, s.Month) {
			inPeriod = append(inPeriod, s.Items...)
		}
	}

	byType := make(map[WorkType]float64)
	seenOrders := make(map[string]struct{})
	var orderIDs []string
	for _, item := range inPeriod {
		summary.TotalHours += item.Hours
		byType[item.ItemType] += item.Hours
		if _, ok := seenOrders[item.OrderID]; !ok {
			seenOrders[item.OrderID] = struct{}{}
			orderIDs = append(orderIDs, item.OrderID)
		}
	}
	summary.SettledCount = len(orderIDs)

	for _, t := range WorkTypes() {
		if hours := byType[t]; hours > 0 {
			summary.Distribution = append(summary.Distribution, WorkTypeHours{Type: t, Hours: hours})
		}
	}

	for _, orderID := range orderIDs {
		order, ok := snap.OrderByID(orderID)
		if !ok {
			continue
		}
		clientName := "N/A"
		if client, ok := snap.ClientByID(order.ClientID); ok {
			clientName = client.Name
		}

		var rows []ProgressItem
		for _, orderItem := range order.Items {
			var usedInPeriod float64
			for _, item := range inPeriod {
				if item.OrderID == order.ID && item.ItemType == orderItem.Type {
					usedInPeriod += item.Hours
				}
			}
			if usedInPeriod == 0 {
				continue
			}
			usedTotal := UsedHoursTotal(snap.Settlements, order.ID, orderItem.Type)
			rows = append(rows, ProgressItem{
				ItemType:     orderItem.Type,
				LimitHours:   orderItem.Hours,
				UsedInPeriod: usedInPeriod,
				UsedTotal:    usedTotal,
				Remaining:    orderItem.Hours - usedTotal,
				Progress:     ProgressPercent(order, snap.Settlements, orderItem.Type),
			})
		}
		if len(rows) == 0 {
			continue
		}
		summary.Progress = append(summary.Progress, OrderProgress{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			ClientName:  clientName,
			Items:       rows,
		})
	}

	return summary
}
