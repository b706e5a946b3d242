package http

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"rozliczenia/internal/core"
	"rozliczenia/internal/pdfmerge"
	"rozliczenia/internal/store"
)

func (s *Server) orderFromForm(r *http.Request) (core.Order, error) {
	o := core.Order{
		ID:             sanitizeInput(r.Form.Get("id")),
		ClientID:       sanitizeInput(r.Form.Get("clientId")),
		OrderNumber:    sanitizeInput(r.Form.Get("orderNumber")),
		SupplierNumber: sanitizeInput(r.Form.Get("supplierNumber")),
		ContractNumber: sanitizeInput(r.Form.Get("contractNumber")),
		OrderingPerson: sanitizeInput(r.Form.Get("orderingPerson")),
		Status:         core.OrderStatus(sanitizeInput(r.Form.Get("status"))),
	}

	if v := sanitizeInput(r.Form.Get("documentDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Order{}, fmt.Errorf("invalid document date: %w", err)
		}
		o.DocumentDate = d
	}
	if v := sanitizeInput(r.Form.Get("deliveryDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Order{}, fmt.Errorf("invalid delivery date: %w", err)
		}
		o.DeliveryDate = d
	}

	// Line items arrive as parallel arrays, one entry per form row.
	types := r.Form["itemType"]
	hours := r.Form["itemHours"]
	rates := r.Form["itemRate"]
	for i := range types {
		t := core.WorkType(sanitizeInput(types[i]))
		var h, rate float64
		var err error
		if i < len(hours) {
			if h, err = parseHours(hours[i]); err != nil {
				return core.Order{}, err
			}
		}
		if i < len(rates) {
			if rate, err = parseHours(rates[i]); err != nil {
				return core.Order{}, err
			}
		}
		o.Items = append(o.Items, core.OrderItem{Type: t, Hours: h, Rate: rate})
	}

	return o, nil
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	o, err := s.orderFromForm(r)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	created, err := s.store.AddOrder(r.Context(), o)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "order:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Dodano zamówienie: ` + template.HTMLEscapeString(created.OrderNumber) + `</div>`))
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	o, err := s.orderFromForm(r)
	if err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	// Keep existing attachments, the edit form does not resubmit them.
	if existing, ok := s.store.Snapshot().OrderByID(o.ID); ok {
		o.Attachments = existing.Attachments
	}

	if err := s.store.UpdateOrder(r.Context(), o); err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "order:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Zapisano zamówienie: ` + template.HTMLEscapeString(o.OrderNumber) + `</div>`))
}

// handleDeleteOrder removes an order and every settlement entry that
// referenced it.
func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if err := s.store.DeleteOrder(r.Context(), id); err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "order:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Usunięto zamówienie wraz z pozycjami rozliczeń</div>`))
}

// handleOrderAttachment accepts a PDF upload and attaches it to an order.
func (s *Server) handleOrderAttachment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.WarnContext(r.Context(), "Attachment upload rejected", "error", err)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`<div class="error">Plik jest za duży (maksymalnie ` + strconv.FormatInt(s.maxUploadBytes/1024, 10) + ` KB)</div>`))
		return
	}

	orderID := sanitizeInput(r.FormValue("orderId"))
	snap := s.store.Snapshot()
	order, ok := snap.OrderByID(orderID)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Nie znaleziono zamówienia</div>`))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeFormError(w, r, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Attachment read error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Błąd odczytu pliku</div>`))
		return
	}
	if !pdfmerge.IsPDF(data) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_, _ = w.Write([]byte(`<div class="error">Dozwolone są tylko pliki PDF</div>`))
		return
	}

	order.Attachments = append(order.Attachments, core.Attachment{
		ID:          uuid.NewString(),
		FileName:    sanitizeInput(header.Filename),
		FileContent: pdfmerge.EncodeRef(data),
	})

	if err := s.store.UpdateOrder(r.Context(), order); err != nil {
		s.writeOrderError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "order:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Dodano załącznik: ` + template.HTMLEscapeString(header.Filename) + `</div>`))
}

func (s *Server) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Order operation error", "error", err)
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Nie znaleziono zamówienia</div>`))
	case errors.Is(err, store.ErrClientNotFound):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Wybrany klient nie istnieje</div>`))
	default:
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Nieprawidłowe dane zamówienia: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
	}
}
