// Package worker exports settled periods to an external sheet, driven by
// change messages with a periodic sweep as backup.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"rozliczenia/internal/amqp"
	"rozliczenia/internal/core"
	"rozliczenia/internal/sheets"
	"rozliczenia/internal/storage"
)

// ExportWorker pushes settlement rows to a SettlementWriter. Exported
// settlements are tracked with markers in the blob store so the periodic
// sweep does not duplicate rows.
type ExportWorker struct {
	blobs  storage.BlobStore
	writer sheets.SettlementWriter
}

func NewExportWorker(blobs storage.BlobStore, writer sheets.SettlementWriter) *ExportWorker {
	return &ExportWorker{
		blobs:  blobs,
		writer: writer,
	}
}

func exportMarker(settlementID string) string {
	return "sheets_exported_" + settlementID
}

// HandleChangeMessage processes a single change message from AMQP. Only
// settlement creations and updates trigger an export.
func (w *ExportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Entity != "settlement" {
		return nil
	}
	switch msg.Action {
	case "created", "updated":
	default:
		return nil
	}

	slog.InfoContext(ctx, "Processing settlement change",
		"action", msg.Action,
		"id", msg.ID,
		"period", core.PeriodID(msg.Year, msg.Month))

	// The sheet is append-only. Once a settlement is marked exported,
	// appending again (redelivery, or an update event) would duplicate its
	// rows, so such events are dropped.
	done, err := w.blobs.HasMarker(ctx, exportMarker(msg.ID))
	if err != nil {
		return fmt.Errorf("check export marker: %w", err)
	}
	if done {
		slog.InfoContext(ctx, "Settlement already exported, skipping", "id", msg.ID, "action", msg.Action)
		return nil
	}

	snap, err := w.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	sett, ok := snap.SettlementByID(msg.ID)
	if !ok {
		// Deleted between publish and consume, nothing to export.
		slog.WarnContext(ctx, "Settlement missing from snapshot, skipping", "id", msg.ID)
		return nil
	}

	return w.exportSettlement(ctx, snap, sett)
}

// ExportPending exports settlements that have no export marker yet. Used at
// startup and on the periodic tick to recover from missed messages.
func (w *ExportWorker) ExportPending(ctx context.Context) error {
	snap, err := w.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	exported := 0
	for _, sett := range snap.Settlements {
		done, err := w.blobs.HasMarker(ctx, exportMarker(sett.ID))
		if err != nil {
			return fmt.Errorf("check export marker: %w", err)
		}
		if done {
			continue
		}
		if err := w.exportSettlement(ctx, snap, sett); err != nil {
			slog.ErrorContext(ctx, "Failed to export settlement", "id", sett.ID, "error", err)
			continue
		}
		exported++
	}

	if exported > 0 {
		slog.InfoContext(ctx, "Exported pending settlements", "count", exported)
	}
	return nil
}

func (w *ExportWorker) exportSettlement(ctx context.Context, snap core.Snapshot, sett core.Settlement) error {
	rows := RowsForSettlement(snap, sett)
	if err := w.writer.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("append settlement rows: %w", err)
	}

	if err := w.blobs.SetMarker(ctx, exportMarker(sett.ID)); err != nil {
		// The export itself worked, only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark settlement as exported", "id", sett.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported settlement",
		"id", sett.ID,
		"period", sett.PeriodID(),
		"rows", len(rows))
	return nil
}

func (w *ExportWorker) loadSnapshot(ctx context.Context) (core.Snapshot, error) {
	data, ok, err := w.blobs.Load(ctx, storage.SnapshotKey)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return core.Snapshot{}, nil
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// RowsForSettlement flattens a settlement into export rows, resolving order
// and client names from the snapshot.
func RowsForSettlement(snap core.Snapshot, sett core.Settlement) []sheets.Row {
	rows := make([]sheets.Row, 0, len(sett.Items))
	for _, item := range sett.Items {
		row := sheets.Row{
			Period:   sett.PeriodID(),
			Date:     sett.Date.String(),
			WorkType: string(item.ItemType),
			Hours:    item.Hours,
			Rate:     item.Rate,
			Value:    item.Value(),
		}
		if order, ok := snap.OrderByID(item.OrderID); ok {
			row.OrderNumber = order.OrderNumber
			if client, ok := snap.ClientByID(order.ClientID); ok {
				row.ClientName = client.Name
			}
		}
		rows = append(rows, row)
	}
	return rows
}
