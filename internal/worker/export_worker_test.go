package worker

import (
	"context"
	"encoding/json"
	"testing"

	"rozliczenia/internal/amqp"
	"rozliczenia/internal/core"
	memsheets "rozliczenia/internal/sheets/memory"
	"rozliczenia/internal/storage"
)

func workerSnapshot() core.Snapshot {
	return core.Snapshot{
		Clients: []core.Client{
			{ID: "c1", Name: "Global Tech Inc."},
		},
		Orders: []core.Order{
			{
				ID:          "o1",
				ClientID:    "c1",
				OrderNumber: "ORD/2024/001",
				Status:      core.StatusActive,
				Items: []core.OrderItem{
					{Type: core.WorkConsultations, Hours: 50, Rate: 150},
				},
			},
		},
		Settlements: []core.Settlement{
			{
				ID:    "set-1",
				Year:  2024,
				Month: 1,
				Date:  core.NewDate(2024, 1, 31),
				Items: []core.SettlementItem{
					{ID: "si1", OrderID: "o1", ItemType: core.WorkConsultations, Hours: 10, Rate: 150},
					{ID: "si2", OrderID: "gone", ItemType: core.WorkOpex, Hours: 5, Rate: 120},
				},
			},
		},
	}
}

func seedBlobs(t *testing.T, snap core.Snapshot) *storage.MemoryStore {
	t.Helper()
	blobs := storage.NewMemoryStore()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := blobs.Save(context.Background(), storage.SnapshotKey, data); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	return blobs
}

func TestRowsForSettlement(t *testing.T) {
	snap := workerSnapshot()
	rows := RowsForSettlement(snap, snap.Settlements[0])

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	first := rows[0]
	if first.Period != "2024-01" || first.ClientName != "Global Tech Inc." || first.OrderNumber != "ORD/2024/001" {
		t.Errorf("row = %+v", first)
	}
	if first.Hours != 10 || first.Rate != 150 || first.Value != 1500 {
		t.Errorf("row values = %+v", first)
	}
	// Item referencing an unknown order still exports, with names blank.
	if rows[1].OrderNumber != "" || rows[1].ClientName != "" {
		t.Errorf("unknown order row = %+v", rows[1])
	}
}

func TestHandleChangeMessageExportsSettlement(t *testing.T) {
	ctx := context.Background()
	blobs := seedBlobs(t, workerSnapshot())
	writer := memsheets.NewWriter()
	w := NewExportWorker(blobs, writer)

	msg := amqp.NewChangeMessage("settlement", "created", "set-1", 2024, 1)
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleChangeMessage: %v", err)
	}

	if got := len(writer.Rows()); got != 2 {
		t.Fatalf("exported %d rows, want 2", got)
	}
	marked, err := blobs.HasMarker(ctx, exportMarker("set-1"))
	if err != nil || !marked {
		t.Fatalf("export marker missing: marked=%v err=%v", marked, err)
	}
}

func TestHandleChangeMessageExportsOnce(t *testing.T) {
	ctx := context.Background()
	blobs := seedBlobs(t, workerSnapshot())
	writer := memsheets.NewWriter()
	w := NewExportWorker(blobs, writer)

	created := amqp.NewChangeMessage("settlement", "created", "set-1", 2024, 1)
	if err := w.HandleChangeMessage(ctx, created); err != nil {
		t.Fatalf("HandleChangeMessage created: %v", err)
	}
	if got := len(writer.Rows()); got != 2 {
		t.Fatalf("exported %d rows, want 2", got)
	}

	// The sheet is append-only: an update event or a redelivered created
	// event for an exported settlement must not append its rows again.
	for _, msg := range []*amqp.ChangeMessage{
		amqp.NewChangeMessage("settlement", "updated", "set-1", 2024, 1),
		amqp.NewChangeMessage("settlement", "created", "set-1", 2024, 1),
	} {
		if err := w.HandleChangeMessage(ctx, msg); err != nil {
			t.Fatalf("HandleChangeMessage %s: %v", msg.Action, err)
		}
	}
	if got := len(writer.Rows()); got != 2 {
		t.Fatalf("re-export duplicated rows, total %d, want 2", got)
	}
}

func TestHandleChangeMessageExportsUpdateOfUnexported(t *testing.T) {
	ctx := context.Background()
	blobs := seedBlobs(t, workerSnapshot())
	writer := memsheets.NewWriter()
	w := NewExportWorker(blobs, writer)

	// An update event for a settlement created while the worker was down
	// still triggers the first export.
	msg := amqp.NewChangeMessage("settlement", "updated", "set-1", 2024, 1)
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleChangeMessage: %v", err)
	}
	if got := len(writer.Rows()); got != 2 {
		t.Fatalf("exported %d rows, want 2", got)
	}
}

func TestHandleChangeMessageIgnoresOtherEntities(t *testing.T) {
	ctx := context.Background()
	blobs := seedBlobs(t, workerSnapshot())
	writer := memsheets.NewWriter()
	w := NewExportWorker(blobs, writer)

	for _, msg := range []*amqp.ChangeMessage{
		amqp.NewChangeMessage("client", "created", "c1", 0, 0),
		amqp.NewChangeMessage("settlement", "deleted", "set-1", 2024, 1),
	} {
		if err := w.HandleChangeMessage(ctx, msg); err != nil {
			t.Fatalf("HandleChangeMessage(%s/%s): %v", msg.Entity, msg.Action, err)
		}
	}

	if got := len(writer.Rows()); got != 0 {
		t.Fatalf("exported %d rows, want 0", got)
	}
}

func TestHandleChangeMessageMissingSettlement(t *testing.T) {
	ctx := context.Background()
	blobs := seedBlobs(t, workerSnapshot())
	writer := memsheets.NewWriter()
	w := NewExportWorker(blobs, writer)

	msg := amqp.NewChangeMessage("settlement", "created", "vanished", 2024, 9)
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleChangeMessage: %v", err)
	}
	if got := len(writer.Rows()); got != 0 {
		t.Fatalf("exported %d rows, want 0", got)
	}
}

func TestExportPendingSkipsAlreadyExported(t *testing.T) {
	ctx := context.Background()
	blobs := seedBlobs(t, workerSnapshot())
	writer := memsheets.NewWriter()
	w := NewExportWorker(blobs, writer)

	if err := w.ExportPending(ctx); err != nil {
		t.Fatalf("ExportPending: %v", err)
	}
	if got := len(writer.Rows()); got != 2 {
		t.Fatalf("first sweep exported %d rows, want 2", got)
	}

	// Second sweep must be a no-op.
	if err := w.ExportPending(ctx); err != nil {
		t.Fatalf("ExportPending again: %v", err)
	}
	if got := len(writer.Rows()); got != 2 {
		t.Fatalf("second sweep exported extra rows, total %d", got)
	}
}
