package attendance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestHandler(t *testing.T, cfg Config, opts ...Option) (http.Handler, *MemoryLog) {
	t.Helper()
	cfg.ExportDir = t.TempDir()
	log := NewMemoryLog()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC)}, opts...)
	svc := NewService(cfg, log, discardLogger(), opts...)
	return NewHandler(svc, cfg, discardLogger()).Routes(), log
}

func postForm(h http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func checkInValues(action string) url.Values {
	return url.Values{"emp_id": {"E1"}, "emp_name": {"Alice"}, "department": {"Eng"}, "action": {action}}
}

func flashFrom(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body=%s", rec.Code, rec.Body.String())
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location header: %v", err)
	}
	if loc.Path != "/" {
		t.Errorf("redirect path = %s, want /", loc.Path)
	}
	return loc.Query().Get("status"), loc.Query().Get("message")
}

func TestSubmitHandler_Accepted(t *testing.T) {
	h, log := newTestHandler(t, DefaultConfig())
	status, message := flashFrom(t, postForm(h, checkInValues("in")))
	if status != "success" || message != "Alice (E1) checked in at 2025-01-02 09:00:00" {
		t.Fatalf("flash = %s %q", status, message)
	}
	if len(log.events) != 1 {
		t.Fatalf("log has %d events, want 1", len(log.events))
	}
}

func TestSubmitHandler_Rejections(t *testing.T) {
	h, log := newTestHandler(t, DefaultConfig())
	flashFrom(t, postForm(h, checkInValues("in")))

	tests := []struct {
		name   string
		values url.Values
		want   string
	}{
		{"already checked in", checkInValues("in"), "You are already checked in."},
		{"missing field", url.Values{"emp_id": {"E9"}, "action": {"in"}}, "All fields are required."},
		{"invalid action", checkInValues("lunch"), "Action must be in or out."},
		{"no prior check-in", url.Values{"emp_id": {"E2"}, "emp_name": {"Bob"}, "department": {"Ops"}, "action": {"out"}}, "Cannot check out without checking in first."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := flashFrom(t, postForm(h, tt.values))
			if status != "error" || message != tt.want {
				t.Fatalf("flash = %s %q, want error %q", status, message, tt.want)
			}
		})
	}
	if len(log.events) != 1 {
		t.Fatalf("rejections changed the log: %d events", len(log.events))
	}
}

func TestShowTodayHandler(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	flashFrom(t, postForm(h, checkInValues("in")))
	flashFrom(t, postForm(h, checkInValues("out")))

	req := httptest.NewRequest(http.MethodGet, "/?status=success&message=saved", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view DailyView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.CheckIns != 1 || view.CheckOuts != 1 || len(view.Records) != 2 {
		t.Fatalf("view = %+v", view)
	}
	if view.Date.String() != "2025-01-02" {
		t.Errorf("date = %s", view.Date.String())
	}
	if view.Flash == nil || view.Flash.Status != "success" || view.Flash.Message != "saved" {
		t.Errorf("flash = %+v", view.Flash)
	}
}

func TestShowTodayHandler_NoFlash(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "flash") {
		t.Errorf("unexpected flash in %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"records":[]`) {
		t.Errorf("records should encode as an empty list: %s", rec.Body.String())
	}
}

func TestExportHandler_CSV(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	flashFrom(t, postForm(h, checkInValues("in")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %s", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "attendance_2025-01-02.csv") {
		t.Errorf("Content-Disposition = %s", cd)
	}
	want := headerLine + "E1,Alice,Eng,Check-in,2025-01-02 09:00:00\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestExportHandler_XLSX(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export?format=xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != FormatXLSX.ContentType() {
		t.Errorf("Content-Type = %s", ct)
	}
	// XLSX is a zip container.
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Errorf("body is not a workbook")
	}
}

func TestExportHandler_Errors(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	for target, want := range map[string]int{
		"/export?format=docx": http.StatusBadRequest,
		"/export?format=pdf":  http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", target, rec.Code, want)
		}
		var body ErrorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Code == "" {
			t.Errorf("%s: error body = %s", target, rec.Body.String())
		}
	}
}

func TestExportHandler_PDF(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PDFEnabled = true
	h, _ := newTestHandler(t, cfg, withPDFRenderer(&fakePDF{body: []byte("%PDF-1.4 fake")}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export?format=pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" || rec.Body.String() != "%PDF-1.4 fake" {
		t.Errorf("unexpected response %s %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}

func TestCorrelationHeader(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(correlationHeader, "corr-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(correlationHeader); got != "corr-123" {
		t.Errorf("correlation id = %q, want corr-123", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get(correlationHeader) == "" {
		t.Errorf("expected a generated correlation id")
	}
}

func TestSubmitHandler_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubmitRatePerMinute = 1
	h, log := newTestHandler(t, cfg)

	flashFrom(t, postForm(h, checkInValues("in")))
	rec := postForm(h, checkInValues("out"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Errorf("missing Retry-After")
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Code != "RATE_LIMITED" || !body.Retryable {
		t.Errorf("error body = %s", rec.Body.String())
	}
	if len(log.events) != 1 {
		t.Errorf("throttled request reached the log")
	}
}
