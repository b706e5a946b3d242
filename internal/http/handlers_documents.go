package http

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"rozliczenia/internal/core"
	"rozliczenia/internal/pdfmerge"
	"rozliczenia/internal/store"
)

// handleUploadDocument stores one part of the monthly document set. The
// "kind" field selects the slot: "poz" or "invoice".
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.WarnContext(r.Context(), "Document upload rejected", "error", err)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`<div class="error">Plik jest za duży (maksymalnie ` + strconv.FormatInt(s.maxUploadBytes/1024, 10) + ` KB)</div>`))
		return
	}

	year, err := strconv.Atoi(sanitizeInput(r.FormValue("year")))
	if err != nil {
		writeFormError(w, r, err)
		return
	}
	month, err := strconv.Atoi(sanitizeInput(r.FormValue("month")))
	if err != nil {
		writeFormError(w, r, err)
		return
	}
	kind := sanitizeInput(r.FormValue("kind"))
	if kind != "poz" && kind != "invoice" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Nieznany rodzaj dokumentu</div>`))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeFormError(w, r, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Document read error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Błąd odczytu pliku</div>`))
		return
	}
	if !pdfmerge.IsPDF(data) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_, _ = w.Write([]byte(`<div class="error">Dozwolone są tylko pliki PDF</div>`))
		return
	}

	snap := s.store.Snapshot()
	doc := core.MonthlyDocument{Year: year, Month: month}
	for _, existing := range snap.MonthlyDocuments {
		if existing.Year == year && existing.Month == month {
			doc = existing
			break
		}
	}

	ref := pdfmerge.EncodeRef(data)
	if kind == "poz" {
		doc.PozPDF = ref
	} else {
		doc.InvoicePDF = ref
	}

	if _, err := s.store.SetMonthlyDocument(r.Context(), doc); err != nil {
		s.writeDocumentError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "document:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Zapisano dokument za okres ` + template.HTMLEscapeString(core.PeriodID(year, month)) + `</div>`))
}

// handleDeleteDocument clears the stored documents for a period.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	year, err := strconv.Atoi(sanitizeInput(r.Form.Get("year")))
	if err != nil {
		writeFormError(w, r, err)
		return
	}
	month, err := strconv.Atoi(sanitizeInput(r.Form.Get("month")))
	if err != nil {
		writeFormError(w, r, err)
		return
	}

	if err := s.store.DeleteMonthlyDocument(r.Context(), year, month); err != nil {
		s.writeDocumentError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "document:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Usunięto dokumenty za okres ` + template.HTMLEscapeString(core.PeriodID(year, month)) + `</div>`))
}

// handleDownloadDocuments merges the period's stored PDFs and streams the
// result as a single download.
func (s *Server) handleDownloadDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, month := parseYearMonth(r)

	var doc core.MonthlyDocument
	found := false
	for _, d := range s.store.Snapshot().MonthlyDocuments {
		if d.Year == year && d.Month == month {
			doc = d
			found = true
			break
		}
	}
	if !found {
		http.Error(w, "no documents for period "+core.PeriodID(year, month), http.StatusNotFound)
		return
	}

	merged, err := s.merger.Merge([]core.BlobRef{doc.PozPDF, doc.InvoicePDF})
	if err != nil {
		if errors.Is(err, pdfmerge.ErrNothingToMerge) {
			http.Error(w, "no documents for period "+core.PeriodID(year, month), http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "PDF merge error", "error", err, "year", year, "month", month)
		http.Error(w, "failed to merge documents", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("Rozliczenie-%d-%02d.pdf", year, month)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(merged)))
	_, _ = w.Write(merged)
}

func (s *Server) writeDocumentError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Document operation error", "error", err)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Nie znaleziono dokumentów dla tego okresu</div>`))
	default:
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Nieprawidłowe dane dokumentu: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
	}
}
