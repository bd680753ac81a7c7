package httpstatus

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NicolasLM/sauna/status"
)

type fakeStore struct {
	snapshot map[string]status.ServiceCheck
	overall  status.Status
}

func (f *fakeStore) Snapshot() map[string]status.ServiceCheck { return f.snapshot }
func (f *fakeStore) Overall() status.Status                   { return f.overall }

func TestHandleIndexJSON(t *testing.T) {
	st := &fakeStore{
		overall: status.WARN,
		snapshot: map[string]status.ServiceCheck{
			"load": {Name: "load", Status: status.WARN, Output: "load high", Timestamp: time.Now()},
		},
	}
	s := New(":0", "json", st)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for WARN overall", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Content-Length") == "" {
		t.Error("Content-Length not set")
	}
	if rec.Header().Get("Server") != serverHeader {
		t.Errorf("Server header = %q, want %q", rec.Header().Get("Server"), serverHeader)
	}

	var resp indexResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "WARNING" || resp.Code != int(status.WARN) {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Checks["load"].Output != "load high" {
		t.Errorf("checks[load].Output = %q", resp.Checks["load"].Output)
	}
}

func TestHandleIndexCriticalReturns503(t *testing.T) {
	st := &fakeStore{overall: status.CRIT, snapshot: map[string]status.ServiceCheck{}}
	s := New(":0", "json", st)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 for CRIT overall", rec.Code)
	}
}

func TestHandleIndexUnknownPathIs404(t *testing.T) {
	st := &fakeStore{overall: status.OK, snapshot: map[string]status.ServiceCheck{}}
	s := New(":0", "json", st)

	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleIndexRejectsPost(t *testing.T) {
	st := &fakeStore{overall: status.OK, snapshot: map[string]status.ServiceCheck{}}
	s := New(":0", "json", st)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleIndexHTMLEscapesOutput(t *testing.T) {
	st := &fakeStore{
		overall: status.OK,
		snapshot: map[string]status.ServiceCheck{
			"xss": {Name: "xss", Status: status.OK, Output: "<script>alert(1)</script>"},
		},
	}
	s := New(":0", "html", st)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("HTML output must escape check output")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("expected escaped script tag in HTML output")
	}
}

func TestHandleIndexHeadHasNoBody(t *testing.T) {
	st := &fakeStore{overall: status.OK, snapshot: map[string]status.ServiceCheck{}}
	s := New(":0", "json", st)

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	rec := httptest.NewRecorder()
	s.handleIndex(rec, req)

	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response body length = %d, want 0", rec.Body.Len())
	}
}
