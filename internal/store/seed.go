package store

import (
	"context"
	"fmt"

	"rozliczenia/internal/core"
	"rozliczenia/internal/storage"
)

// SeedDemo installs demo data on first run. A persisted marker keeps the
// seed from overwriting real data on later starts.
func (s *Store) SeedDemo(ctx context.Context) error {
	done, err := s.blobs.HasMarker(ctx, storage.SeedMarker)
	if err != nil {
		return fmt.Errorf("check seed marker: %w", err)
	}
	if done {
		return nil
	}

	s.mu.Lock()
	s.snap = demoSnapshot()
	s.persist(ctx)
	s.mu.Unlock()

	if err := s.blobs.SetMarker(ctx, storage.SeedMarker); err != nil {
		return fmt.Errorf("set seed marker: %w", err)
	}
	s.logger.Info("seeded demo data")
	return nil
}

// ResetDemo discards all data and reinstalls the demo dataset.
func (s *Store) ResetDemo(ctx context.Context) error {
	s.mu.Lock()
	s.snap = demoSnapshot()
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "snapshot", "reset", "", 0, 0)
	s.logger.Info("reset to demo data")
	return nil
}

func demoSnapshot() core.Snapshot {
	return core.Snapshot{
		Clients: []core.Client{
			{ID: "c1", Name: "Global Tech Inc.", TaxID: "123-456-78-90", Phone: "111-222-333",
				Emails: []string{"contact@globaltech.com", "support@globaltech.com"}},
			{ID: "c2", Name: "Innovate Solutions", TaxID: "098-765-43-21", Phone: "444-555-666",
				Emails: []string{"info@innovate.com"}},
		},
		Orders: []core.Order{
			{
				ID:             "o1",
				ClientID:       "c1",
				OrderNumber:    "ORD/2024/001",
				SupplierNumber: "SUP/A/55",
				DocumentDate:   core.NewDate(2024, 1, 15),
				DeliveryDate:   core.NewDate(2024, 12, 31),
				ContractNumber: "CON/2024/XYZ",
				OrderingPerson: "Jan Kowalski",
				Status:         core.StatusActive,
				Items: []core.OrderItem{
					{Type: core.WorkConsultations, Hours: 50, Rate: 150},
					{Type: core.WorkOpex, Hours: 100, Rate: 120},
				},
				Attachments: []core.Attachment{},
			},
			{
				ID:             "o2",
				ClientID:       "c2",
				OrderNumber:    "ORD/2024/002",
				SupplierNumber: "SUP/B/77",
				DocumentDate:   core.NewDate(2024, 2, 20),
				DeliveryDate:   core.NewDate(2024, 6, 30),
				ContractNumber: "CON/2024/ABC",
				OrderingPerson: "Anna Nowak",
				Status:         core.StatusActive,
				Items: []core.OrderItem{
					{Type: core.WorkCapex, Hours: 200, Rate: 200},
				},
				Attachments: []core.Attachment{},
			},
			{
				ID:             "o3",
				ClientID:       "c1",
				OrderNumber:    "ORD/2023/050",
				SupplierNumber: "SUP/A/33",
				DocumentDate:   core.NewDate(2023, 11, 10),
				DeliveryDate:   core.NewDate(2023, 12, 20),
				ContractNumber: "CON/2023/OLD",
				OrderingPerson: "Jan Kowalski",
				Status:         core.StatusArchived,
				Items: []core.OrderItem{
					{Type: core.WorkOpex, Hours: 40, Rate: 100},
				},
				Attachments: []core.Attachment{},
			},
		},
		Settlements: []core.Settlement{
			{
				ID:    "set-2024-01",
				Year:  2024,
				Month: 1,
				Date:  core.NewDate(2024, 1, 31),
				Items: []core.SettlementItem{
					{ID: "si1", OrderID: "o1", ItemType: core.WorkConsultations, Hours: 10, Rate: 150},
					{ID: "si2", OrderID: "o1", ItemType: core.WorkOpex, Hours: 25, Rate: 120},
				},
			},
			{
				ID:    "set-2024-02",
				Year:  2024,
				Month: 2,
				Date:  core.NewDate(2024, 2, 28),
				Items: []core.SettlementItem{
					{ID: "si3", OrderID: "o1", ItemType: core.WorkOpex, Hours: 30, Rate: 120},
				},
			},
			{
				ID:    "set-2024-03",
				Year:  2024,
				Month: 3,
				Date:  core.NewDate(2024, 3, 31),
				Items: []core.SettlementItem{
					{ID: "si4", OrderID: "o2", ItemType: core.WorkCapex, Hours: 80, Rate: 200},
				},
			},
		},
		MonthlyDocuments: []core.MonthlyDocument{},
	}
}
