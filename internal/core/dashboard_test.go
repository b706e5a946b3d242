package core

import "testing"

func dashboardSnapshot() Snapshot {
	return Snapshot{
		Clients: []Client{
			{ID: "c1", Name: "Global Tech Inc."},
			{ID: "c2", Name: "Innovate Solutions"},
		},
		Orders: []Order{
			testOrder(),
			{ID: "o2", ClientID: "c2", OrderNumber: "ORD/2024/002", Status: StatusActive,
				Items: []OrderItem{{Type: WorkCapex, Hours: 200, Rate: 200}}},
		},
		Settlements: []Settlement{
			{ID: "s1", Year: 2024, Month: 1, Items: []SettlementItem{
				{ID: "i1", OrderID: "o1", ItemType: WorkConsultations, Hours: 10, Rate: 150},
				{ID: "i2", OrderID: "o1", ItemType: WorkOpex, Hours: 25, Rate: 120},
			}},
			{ID: "s2", Year: 2024, Month: 2, Items: []SettlementItem{
				{ID: "i3", OrderID: "o1", ItemType: WorkConsultations, Hours: 30, Rate: 150},
			}},
			{ID: "s3", Year: 2024, Month: 3, Items: []SettlementItem{
				{ID: "i4", OrderID: "o2", ItemType: WorkCapex, Hours: 80, Rate: 200},
			}},
		},
	}
}

func TestBuildDashboardMonth(t *testing.T) {
	snap := dashboardSnapshot()
	sum := BuildDashboard(snap, Period{Year: 2024, Month: 1})

	if !approx(sum.TotalHours, 35) {
		t.Fatalf("total hours = %v, want 35", sum.TotalHours)
	}
	if sum.SettledCount != 1 {
		t.Fatalf("settled orders = %d, want 1", sum.SettledCount)
	}
	if len(sum.Distribution) != 2 {
		t.Fatalf("distribution = %+v, want 2 entries", sum.Distribution)
	}
	for _, d := range sum.Distribution {
		if d.Hours == 0 {
			t.Fatalf("zero-hour entry %q must be omitted", d.Type)
		}
	}

	if len(sum.Progress) != 1 {
		t.Fatalf("progress orders = %d, want 1", len(sum.Progress))
	}
	op := sum.Progress[0]
	if op.ClientName != "Global Tech Inc." || op.OrderNumber != "ORD/2024/001" {
		t.Fatalf("order join wrong: %+v", op)
	}
	for _, row := range op.Items {
		switch row.ItemType {
		case WorkConsultations:
			// In-period hours are month-scoped; used/remaining are lifetime.
			if !approx(row.UsedInPeriod, 10) || !approx(row.UsedTotal, 40) {
				t.Fatalf("consultations row = %+v", row)
			}
			if !approx(row.Remaining, 10) || !approx(row.Progress, 80) {
				t.Fatalf("consultations lifetime figures = %+v", row)
			}
		case WorkOpex:
			if !approx(row.UsedInPeriod, 25) || !approx(row.UsedTotal, 25) {
				t.Fatalf("opex row = %+v", row)
			}
		default:
			t.Fatalf("unexpected row type %q", row.ItemType)
		}
	}
}

func TestBuildDashboardWholeYear(t *testing.T) {
	snap := dashboardSnapshot()
	sum := BuildDashboard(snap, Period{Year: 2024, Month: 0})

	if !approx(sum.TotalHours, 145) {
		t.Fatalf("total hours = %v, want 145", sum.TotalHours)
	}
	if sum.SettledCount != 2 {
		t.Fatalf("settled orders = %d, want 2", sum.SettledCount)
	}
	if len(sum.Distribution) != 3 {
		t.Fatalf("distribution entries = %d, want 3", len(sum.Distribution))
	}
	if len(sum.Progress) != 2 {
		t.Fatalf("progress orders = %d, want 2", len(sum.Progress))
	}
}

func TestBuildDashboardEmptyPeriod(t *testing.T) {
	snap := dashboardSnapshot()
	sum := BuildDashboard(snap, Period{Year: 2022, Month: 0})

	if sum.TotalHours != 0 || sum.SettledCount != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
	if len(sum.Distribution) != 0 {
		t.Fatalf("distribution must be empty, got %+v", sum.Distribution)
	}
	if len(sum.Progress) != 0 {
		t.Fatalf("progress must be empty, got %+v", sum.Progress)
	}
}

// Line items without in-period usage stay out of the progress table even
// when the order itself was billed in the period.
func TestBuildDashboardOmitsUnusedLineItems(t *testing.T) {
	snap := dashboardSnapshot()
	sum := BuildDashboard(snap, Period{Year: 2024, Month: 2})

	if len(sum.Progress) != 1 {
		t.Fatalf("progress orders = %d, want 1", len(sum.Progress))
	}
	rows := sum.Progress[0].Items
	if len(rows) != 1 || rows[0].ItemType != WorkConsultations {
		t.Fatalf("expected only the consultations row, got %+v", rows)
	}
}
