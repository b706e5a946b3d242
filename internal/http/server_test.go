package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"rozliczenia/internal/core"
	"rozliczenia/internal/pdfmerge"
	"rozliczenia/internal/storage"
	"rozliczenia/internal/store"
)

type stubMerger struct {
	err error
}

func (m stubMerger) Merge(refs []core.BlobRef) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	var any bool
	for _, ref := range refs {
		if ref != "" {
			any = true
		}
	}
	if !any {
		return nil, pdfmerge.ErrNothingToMerge
	}
	return []byte("%PDF-merged"), nil
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.New(storage.NewMemoryStore(), nil, slog.Default())
	if err := st.SeedDemo(context.Background()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	return NewServer(":0", st, stubMerger{}, 1536*1024), st
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(srv, "/")
	if rr.Code != 200 {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Rozliczenia") {
		t.Fatalf("index body missing heading")
	}
	// si1: 10 h x 150 = 1500,00 zł in the history section.
	if !strings.Contains(body, "1500,00 zł") {
		t.Fatalf("index missing settlement history values")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(srv, path); rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestDashboardPartial(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(srv, "/ui/dashboard?year=2024&month=1")
	if rr.Code != 200 {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "35 h") {
		t.Fatalf("dashboard missing total hours: %s", body)
	}
	if !strings.Contains(body, "ORD/2024/001") {
		t.Fatalf("dashboard missing order progress: %s", body)
	}
}

func TestDashboardCacheInvalidatedByMutation(t *testing.T) {
	srv, _ := newTestServer(t)

	if rr := get(srv, "/ui/dashboard?year=2024&month=4"); !strings.Contains(rr.Body.String(), "0 h") {
		t.Fatalf("expected empty period before settlement: %s", rr.Body.String())
	}

	// The form submits every row, including the untouched one with no
	// order selected; the blank row is dropped, not rejected.
	form := url.Values{
		"year":        {"2024"},
		"month":       {"4"},
		"itemOrderId": {"o1", ""},
		"itemType":    {string(core.WorkConsultations), ""},
		"itemHours":   {"5", "0"},
		"itemRate":    {"150", ""},
	}
	if rr := postForm(srv, "/settlements", form); rr.Code != 200 {
		t.Fatalf("create settlement status=%d body=%s", rr.Code, rr.Body.String())
	}

	if rr := get(srv, "/ui/dashboard?year=2024&month=4"); !strings.Contains(rr.Body.String(), "5 h") {
		t.Fatalf("dashboard served stale data after mutation: %s", rr.Body.String())
	}
}

func TestCreateSettlementDuplicatePeriod(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{
		"year":        {"2024"},
		"month":       {"1"},
		"itemOrderId": {"o1"},
		"itemType":    {string(core.WorkOpex)},
		"itemHours":   {"3"},
		"itemRate":    {"120"},
	}
	rr := postForm(srv, "/settlements", form)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "2024-01") {
		t.Fatalf("conflict message should name the period: %s", rr.Body.String())
	}
}

func TestCreateSettlementNoValidItems(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{
		"year":        {"2024"},
		"month":       {"7"},
		"itemOrderId": {"o1"},
		"itemType":    {string(core.WorkOpex)},
		"itemHours":   {"0"},
		"itemRate":    {"120"},
	}
	rr := postForm(srv, "/settlements", form)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDeleteClientCascadesOverHTTP(t *testing.T) {
	srv, st := newTestServer(t)

	rr := postForm(srv, "/clients/delete", url.Values{"id": {"c1"}})
	if rr.Code != 200 {
		t.Fatalf("delete client status=%d: %s", rr.Code, rr.Body.String())
	}

	snap := st.Snapshot()
	if _, ok := snap.ClientByID("c1"); ok {
		t.Fatal("client survived delete")
	}
	if _, ok := snap.OrderByID("o1"); ok {
		t.Fatal("order of deleted client survived")
	}
	if _, ok := snap.SettlementByID("set-2024-01"); ok {
		t.Fatal("settlement emptied by cascade survived")
	}
}

func TestAvailableHoursEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// o1 opex: limit 100, used 25 in 2024-01 and 30 in 2024-02.
	rr := get(srv, "/ui/available?orderId=o1&type="+url.QueryEscape(string(core.WorkOpex)))
	if rr.Code != 200 {
		t.Fatalf("available status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "45 h") {
		t.Fatalf("available = %s, want 45 h", rr.Body.String())
	}

	// Editing set-2024-02 releases its 30 hours.
	rr = get(srv, "/ui/available?orderId=o1&type="+url.QueryEscape(string(core.WorkOpex))+"&exclude=set-2024-02")
	if !strings.Contains(rr.Body.String(), "75 h") {
		t.Fatalf("available with exclude = %s, want 75 h", rr.Body.String())
	}

	if rr := get(srv, "/ui/available?orderId=ghost&type=x"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", rr.Code)
	}
}

func TestCopySettlementEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(srv, "/settlements/copy?from=set-2024-01")
	if rr.Code != 200 {
		t.Fatalf("copy status=%d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `value="o1"`) {
		t.Fatalf("copy output missing order reference: %s", body)
	}
	if !strings.Contains(body, `value="0"`) {
		t.Fatalf("copied rows should start at zero hours: %s", body)
	}

	if rr := get(srv, "/settlements/copy?from=nope"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown template, got %d", rr.Code)
	}
}

func multipartUpload(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadDocumentRejectsNonPDF(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "notes.txt", []byte("plain text"), map[string]string{
		"year": "2024", "month": "1", "kind": "poz",
	})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUploadAndDownloadDocuments(t *testing.T) {
	srv, st := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "poz.pdf", []byte("%PDF-1.4 poz"), map[string]string{
		"year": "2024", "month": "1", "kind": "poz",
	})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("upload status=%d: %s", rr.Code, rr.Body.String())
	}

	// Second upload for the same period fills the other slot of the same record.
	body, contentType = multipartUpload(t, "file", "fv.pdf", []byte("%PDF-1.4 invoice"), map[string]string{
		"year": "2024", "month": "1", "kind": "invoice",
	})
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("second upload status=%d: %s", rr.Code, rr.Body.String())
	}

	docs := st.Snapshot().MonthlyDocuments
	if len(docs) != 1 || docs[0].PozPDF == "" || docs[0].InvoicePDF == "" {
		t.Fatalf("documents after uploads = %+v", docs)
	}

	dl := get(srv, "/documents/download?year=2024&month=1")
	if dl.Code != 200 {
		t.Fatalf("download status=%d: %s", dl.Code, dl.Body.String())
	}
	if got := dl.Header().Get("Content-Disposition"); !strings.Contains(got, "Rozliczenie-2024-01.pdf") {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if dl.Body.String() != "%PDF-merged" {
		t.Fatalf("download body = %q", dl.Body.String())
	}
}

func TestDownloadDocumentsMergeFailure(t *testing.T) {
	st := store.New(storage.NewMemoryStore(), nil, slog.Default())
	if err := st.SeedDemo(context.Background()); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	srv := NewServer(":0", st, stubMerger{err: errors.New("corrupt input")}, 1536*1024)

	if _, err := st.SetMonthlyDocument(context.Background(), core.MonthlyDocument{
		Year: 2024, Month: 1, PozPDF: pdfmerge.EncodeRef([]byte("%PDF-broken")),
	}); err != nil {
		t.Fatalf("SetMonthlyDocument: %v", err)
	}

	rr := get(srv, "/documents/download?year=2024&month=1")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on merge failure, got %d", rr.Code)
	}
}

func TestDownloadDocumentsMissingPeriod(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(srv, "/documents/download?year=2031&month=5")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestXLSXReportHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(srv, "/reports/xlsx?year=2024&month=1")
	if rr.Code != 200 {
		t.Fatalf("report status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "Rozliczenia-2024-01.xlsx") {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("empty report body")
	}
}

func TestResetRestoresDemoData(t *testing.T) {
	srv, st := newTestServer(t)

	if err := st.DeleteClient(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}

	rr := postForm(srv, "/reset", url.Values{})
	if rr.Code != 200 {
		t.Fatalf("reset status=%d: %s", rr.Code, rr.Body.String())
	}

	snap := st.Snapshot()
	if _, ok := snap.ClientByID("c1"); !ok {
		t.Fatal("demo client missing after reset")
	}
	if len(snap.Settlements) != 3 {
		t.Fatalf("settlements after reset = %d, want 3", len(snap.Settlements))
	}
}

func TestMutationsRequirePOST(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/clients", "/orders", "/settlements", "/clients/delete", "/documents/upload", "/reset"} {
		if rr := get(srv, path); rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s GET status=%d, want 405", path, rr.Code)
		}
	}
}
