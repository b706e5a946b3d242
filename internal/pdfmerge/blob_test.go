package pdfmerge

import (
	"bytes"
	"errors"
	"testing"

	"rozliczenia/internal/core"
)

func TestEncodeDecodeRef(t *testing.T) {
	raw := []byte("%PDF-1.4 fake content")

	ref := EncodeRef(raw)
	got, err := DecodeRef(ref)
	if err != nil {
		t.Fatalf("DecodeRef: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("DecodeRef = %q, want %q", got, raw)
	}
}

func TestDecodeRefRejectsNonPDF(t *testing.T) {
	tests := []struct {
		name string
		ref  core.BlobRef
	}{
		{"empty", ""},
		{"plain text", "hello"},
		{"wrong mime", "data:image/png;base64,AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeRef(tt.ref); !errors.Is(err, ErrNotPDF) {
				t.Fatalf("err = %v, want ErrNotPDF", err)
			}
		})
	}
}

func TestDecodeRefBadBase64(t *testing.T) {
	if _, err := DecodeRef("data:application/pdf;base64,!!!not-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64 payload")
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("%PDF-1.7\n")) {
		t.Fatal("valid PDF header not recognized")
	}
	if IsPDF([]byte("PK\x03\x04")) {
		t.Fatal("zip header accepted as PDF")
	}
	if IsPDF([]byte("%PD")) {
		t.Fatal("truncated header accepted as PDF")
	}
}

func TestMergeSkipsEmptyRefs(t *testing.T) {
	m := NewMerger()
	if _, err := m.Merge([]core.BlobRef{"", ""}); !errors.Is(err, ErrNothingToMerge) {
		t.Fatalf("err = %v, want ErrNothingToMerge", err)
	}
}
