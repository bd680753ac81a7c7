package httpicinga

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NicolasLM/sauna/status"
)

func TestSendBatchPostsEachCheck(t *testing.T) {
	var received []icingaPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p icingaPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		received = append(received, p)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := map[string]any{"url": srv.URL, "timeout": 5}
	consumer, err := Factory(cfg)
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}

	err = consumer.Batch.SendBatch([]status.ServiceCheck{
		{Timestamp: time.Now(), Hostname: "h1", Name: "load", Status: status.OK, Output: "fine"},
		{Timestamp: time.Now(), Hostname: "h1", Name: "disk", Status: status.CRIT, Output: "full"},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}

	if len(received) != 2 {
		t.Fatalf("got %d requests, want 2", len(received))
	}
	if received[1].ExitStatus != int(status.CRIT) {
		t.Errorf("second payload exit_status = %d, want %d", received[1].ExitStatus, status.CRIT)
	}
	if received[0].Type != "Service" {
		t.Errorf("type = %q, want Service", received[0].Type)
	}
}

func TestSendBatchStopsOnFirstFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	consumer, err := Factory(map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}

	err = consumer.Batch.SendBatch([]status.ServiceCheck{
		{Timestamp: time.Now(), Name: "a"},
		{Timestamp: time.Now(), Name: "b"},
	})
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (stop at first failure)", calls)
	}
}

func TestFactoryDefaults(t *testing.T) {
	c, err := Factory(map[string]any{})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	if c.Name != "http_icinga" {
		t.Errorf("Name = %q", c.Name)
	}
	if c.Batch == nil {
		t.Fatal("Batch not set")
	}
}
