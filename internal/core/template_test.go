package core

import "testing"

func TestCopyFromTemplate(t *testing.T) {
	orders := []Order{
		{ID: "o1", ClientID: "c1", OrderNumber: "A", Status: StatusActive,
			Items: []OrderItem{{Type: WorkConsultations, Hours: 50, Rate: 150}}},
		{ID: "o2", ClientID: "c2", OrderNumber: "B", Status: StatusArchived,
			Items: []OrderItem{{Type: WorkCapex, Hours: 200, Rate: 200}}},
	}
	template := Settlement{ID: "s1", Year: 2024, Month: 1, Items: []SettlementItem{
		{ID: "i1", OrderID: "o1", ItemType: WorkConsultations, Hours: 10, Rate: 150},
		{ID: "i2", OrderID: "o2", ItemType: WorkCapex, Hours: 80, Rate: 200},
	}}

	copied, err := CopyFromTemplate(template, orders)
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if len(copied) != 1 {
		t.Fatalf("copied %d items, want 1", len(copied))
	}
	got := copied[0]
	if got.OrderID != "o1" || got.ItemType != WorkConsultations {
		t.Fatalf("wrong item copied: %+v", got)
	}
	if got.Hours != 0 {
		t.Fatalf("hours must reset to zero, got %v", got.Hours)
	}
	if got.Rate != 150 {
		t.Fatalf("rate must be preserved, got %v", got.Rate)
	}
	if got.ID == "" || got.ID == "i1" {
		t.Fatalf("copied item needs a fresh id, got %q", got.ID)
	}
}

func TestCopyFromTemplateAllInactive(t *testing.T) {
	orders := []Order{
		{ID: "o2", ClientID: "c2", OrderNumber: "B", Status: StatusArchived},
	}
	template := Settlement{ID: "s1", Year: 2024, Month: 1, Items: []SettlementItem{
		{ID: "i2", OrderID: "o2", ItemType: WorkCapex, Hours: 80, Rate: 200},
	}}

	if _, err := CopyFromTemplate(template, orders); err != ErrNoActiveItems {
		t.Fatalf("expected ErrNoActiveItems, got %v", err)
	}
}
