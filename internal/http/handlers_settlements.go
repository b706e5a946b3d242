package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"rozliczenia/internal/core"
	"rozliczenia/internal/store"
)

func (s *Server) settlementFromForm(r *http.Request) (core.Settlement, error) {
	sett := core.Settlement{
		ID: sanitizeInput(r.Form.Get("id")),
	}

	year, err := strconv.Atoi(sanitizeInput(r.Form.Get("year")))
	if err != nil {
		return core.Settlement{}, fmt.Errorf("invalid year: %w", err)
	}
	month, err := strconv.Atoi(sanitizeInput(r.Form.Get("month")))
	if err != nil {
		return core.Settlement{}, fmt.Errorf("invalid month: %w", err)
	}
	sett.Year = year
	sett.Month = month

	if v := sanitizeInput(r.Form.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Settlement{}, fmt.Errorf("invalid date: %w", err)
		}
		sett.Date = d
	}

	// Item rows arrive as parallel arrays. Rows with zero hours or an
	// unknown order are dropped by the store, not here.
	orderIDs := r.Form["itemOrderId"]
	types := r.Form["itemType"]
	hours := r.Form["itemHours"]
	rates := r.Form["itemRate"]
	ids := r.Form["itemId"]
	for i := range orderIDs {
		item := core.SettlementItem{
			OrderID: sanitizeInput(orderIDs[i]),
		}
		if i < len(types) {
			item.ItemType = core.WorkType(sanitizeInput(types[i]))
		}
		if i < len(ids) {
			item.ID = sanitizeInput(ids[i])
		}
		if i < len(hours) {
			if item.Hours, err = parseHours(hours[i]); err != nil {
				return core.Settlement{}, err
			}
		}
		if i < len(rates) {
			if item.Rate, err = parseHours(rates[i]); err != nil {
				return core.Settlement{}, err
			}
		}
		sett.Items = append(sett.Items, item)
	}

	return sett, nil
}

func (s *Server) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	sett, err := s.settlementFromForm(r)
	if err != nil {
		s.writeSettlementError(w, r, err)
		return
	}

	created, err := s.store.AddSettlement(r.Context(), sett)
	if err != nil {
		s.writeSettlementError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "settlement:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Zapisano rozliczenie za okres ` + template.HTMLEscapeString(created.PeriodID()) + `</div>`))
}

func (s *Server) handleUpdateSettlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	sett, err := s.settlementFromForm(r)
	if err != nil {
		s.writeSettlementError(w, r, err)
		return
	}

	if err := s.store.UpdateSettlement(r.Context(), sett); err != nil {
		s.writeSettlementError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "settlement:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Zaktualizowano rozliczenie za okres ` + template.HTMLEscapeString(sett.PeriodID()) + `</div>`))
}

func (s *Server) handleDeleteSettlement(w http.ResponseWriter, r *http.Request) {
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
	if err := s.store.DeleteSettlement(r.Context(), id); err != nil {
		s.writeSettlementError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "settlement:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Usunięto rozliczenie</div>`))
}

// handleCopySettlement prefills a new settlement form with the line items of
// an earlier one: hours reset to zero, rates kept, only active orders.
func (s *Server) handleCopySettlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from := sanitizeInput(r.URL.Query().Get("from"))
	snap := s.store.Snapshot()
	source, ok := snap.SettlementByID(from)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Nie znaleziono rozliczenia do skopiowania</div>`))
		return
	}

	items, err := core.CopyFromTemplate(source, snap.Orders)
	if err != nil {
		if errors.Is(err, core.ErrNoActiveItems) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Brak aktywnych zamówień do skopiowania z wybranego rozliczenia</div>`))
			return
		}
		s.writeSettlementError(w, r, err)
		return
	}

	data := struct {
		Items  []core.SettlementItem
		Orders []core.Order
	}{Items: items, Orders: snap.Orders}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "settlement_items.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "settlement_items.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleAvailableHours returns the hours still bookable for an order line
// item in the settlement form, accounting for the edited settlement and
// hours already typed into other rows.
func (s *Server) handleAvailableHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	orderID := sanitizeInput(q.Get("orderId"))
	workType := core.WorkType(sanitizeInput(q.Get("type")))
	exclude := sanitizeInput(q.Get("exclude"))
	inForm, err := parseHours(q.Get("hours"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<span class="error">?</span>`))
		return
	}

	snap := s.store.Snapshot()
	order, ok := snap.OrderByID(orderID)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<span class="error">?</span>`))
		return
	}

	available := core.AvailableForEntry(order, snap.Settlements, workType, exclude, inForm)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<span class="available">` + template.HTMLEscapeString(formatHours(available)) + `</span>`))
}

func (s *Server) writeSettlementError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Settlement operation error", "error", err)

	var dup *store.DuplicatePeriodError
	switch {
	case errors.As(err, &dup):
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`<div class="error">Rozliczenie za okres ` +
			template.HTMLEscapeString(core.PeriodID(dup.Year, dup.Month)) + ` już istnieje</div>`))
	case errors.Is(err, store.ErrNoValidItems):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Rozliczenie nie zawiera żadnej prawidłowej pozycji</div>`))
	case errors.Is(err, store.ErrSettlementNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Nie znaleziono rozliczenia</div>`))
	default:
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Nieprawidłowe dane rozliczenia: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
	}
}
