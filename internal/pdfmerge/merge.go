package pdfmerge

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"rozliczenia/internal/core"
)

// ErrNothingToMerge is returned when no document part is present for the
// requested period.
var ErrNothingToMerge = errors.New("no documents to merge")

// Merger combines stored PDF references into one document, in the order
// given. Implementations must leave the inputs untouched on failure.
type Merger interface {
	Merge(refs []core.BlobRef) ([]byte, error)
}

// PDFCPUMerger merges documents with the pdfcpu library.
type PDFCPUMerger struct{}

func NewMerger() *PDFCPUMerger {
	return &PDFCPUMerger{}
}

func (m *PDFCPUMerger) Merge(refs []core.BlobRef) ([]byte, error) {
	var parts []io.ReadSeeker
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		data, err := DecodeRef(ref)
		if err != nil {
			return nil, err
		}
		parts = append(parts, bytes.NewReader(data))
	}
	if len(parts) == 0 {
		return nil, ErrNothingToMerge
	}

	var out bytes.Buffer
	if err := api.MergeRaw(parts, &out, false, nil); err != nil {
		return nil, fmt.Errorf("merge PDFs: %w", err)
	}
	return out.Bytes(), nil
}
