// Package memory provides an in-memory settlement writer used by tests and
// dry runs of the export worker.
package memory

import (
	"context"
	"sync"

	ports "rozliczenia/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows []ports.Row
}

var _ ports.SettlementWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) AppendRows(_ context.Context, rows []ports.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, rows...)
	return nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []ports.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]ports.Row, len(w.rows))
	copy(out, w.rows)
	return out
}
