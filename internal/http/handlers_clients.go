package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"rozliczenia/internal/core"
	"rozliczenia/internal/store"
)

func clientFromForm(r *http.Request) core.Client {
	var emails []string
	for _, e := range strings.Split(r.Form.Get("emails"), ",") {
		e = sanitizeInput(e)
		if e != "" {
			emails = append(emails, e)
		}
	}
	return core.Client{
		ID:     sanitizeInput(r.Form.Get("id")),
		Name:   sanitizeInput(r.Form.Get("name")),
		TaxID:  sanitizeInput(r.Form.Get("nip")),
		Phone:  sanitizeInput(r.Form.Get("phone")),
		Emails: emails,
	}
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	c, err := s.store.AddClient(r.Context(), clientFromForm(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Client create error", "error", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Nieprawidłowe dane klienta: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "client:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Dodano klienta: ` + template.HTMLEscapeString(c.Name) + `</div>`))
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFormError(w, r, err)
		return
	}

	c := clientFromForm(r)
	if err := s.store.UpdateClient(r.Context(), c); err != nil {
		s.writeClientError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "client:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Zapisano klienta: ` + template.HTMLEscapeString(c.Name) + `</div>`))
}

// handleDeleteClient removes a client together with its orders and every
// settlement entry that referenced them.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
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
	if err := s.store.DeleteClient(r.Context(), id); err != nil {
		s.writeClientError(w, r, err)
		return
	}

	s.invalidateDerived()
	w.Header().Set("HX-Trigger", "client:changed")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Usunięto klienta wraz z zamówieniami i rozliczeniami</div>`))
}

func (s *Server) writeClientError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Client operation error", "error", err)
	switch {
	case errors.Is(err, store.ErrClientNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Nie znaleziono klienta</div>`))
	default:
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Nieprawidłowe dane klienta: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
	}
}

func writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`<div class="error">Nieprawidłowy format żądania</div>`))
}
