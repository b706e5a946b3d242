// Package pdfmerge handles the binary side of document storage: encoding
// uploaded files into the snapshot's data URI format and merging monthly
// PDFs into a single downloadable document.
package pdfmerge

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"rozliczenia/internal/core"
)

const pdfDataURIPrefix = "data:application/pdf;base64,"

var ErrNotPDF = errors.New("content is not a PDF data URI")

// EncodeRef wraps raw PDF bytes into the data URI form stored in snapshots.
func EncodeRef(data []byte) core.BlobRef {
	return core.BlobRef(pdfDataURIPrefix + base64.StdEncoding.EncodeToString(data))
}

// DecodeRef extracts the raw PDF bytes from a stored data URI.
func DecodeRef(ref core.BlobRef) ([]byte, error) {
	s := string(ref)
	if !strings.HasPrefix(s, pdfDataURIPrefix) {
		return nil, ErrNotPDF
	}
	data, err := base64.StdEncoding.DecodeString(s[len(pdfDataURIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("decode PDF data URI: %w", err)
	}
	return data, nil
}

// IsPDF reports whether raw upload bytes look like a PDF file.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
