// Package httpstatus implements the pull-mode HTTP status server consumer:
// GET / on a configured port returns the result store's current state as
// JSON or HTML. Grounded on the teacher's health.DetailedHandler (same
// status-to-HTTP-code mapping, JSON response shape, and ServeMux wiring),
// retargeted at sauna's ServiceCheck/Status model.
package httpstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/NicolasLM/sauna/status"
)

// ResultSource is the subset of store.Store the server needs.
type ResultSource interface {
	Snapshot() map[string]status.ServiceCheck
	Overall() status.Status
}

const serverHeader = "sauna-status/1.0"

// Server is a pull-mode consumer: it owns an http.Server bound to Addr and
// answers every request from the result store, never from a push queue.
type Server struct {
	Addr   string
	Format string // "json" (default) or "html"
	Store  ResultSource

	srv *http.Server
}

// New builds a Server. format is "json" unless set to "html".
func New(addr string, format string, store ResultSource) *Server {
	if format == "" {
		format = "json"
	}
	s := &Server{Addr: addr, Format: format, Store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start implements registry.PullServer: binds the listener, then serves in
// the background. Only a listen error is returned; errors from Serve
// (including http.ErrServerClosed after Stop) are discarded.
func (s *Server) Start() error {
	ln, err := newListener(s.Addr)
	if err != nil {
		return err
	}
	go func() {
		_ = s.srv.Serve(ln)
	}()
	return nil
}

// Stop implements registry.PullServer: gracefully quiesces the listener,
// bounded to a few seconds so shutdown never blocks indefinitely on a
// stuck connection.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Server", serverHeader)

	if r.URL.Path != "/" {
		writeNotFound(w)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(`{"error":"method not allowed"}`))
		}
		return
	}

	snapshot := s.Store.Snapshot()
	overall := s.Store.Overall()

	if s.Format == "html" {
		writeHTML(w, r, overall, snapshot)
		return
	}
	writeJSON(w, r, overall, snapshot)
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte(`{"error":"not found"}`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(body)
}

type checkEntry struct {
	Status    string `json:"status"`
	Code      int    `json:"code"`
	Timestamp int64  `json:"timestamp"`
	Output    string `json:"output"`
}

type indexResponse struct {
	Status string                `json:"status"`
	Code   int                   `json:"code"`
	Checks map[string]checkEntry `json:"checks"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, overall status.Status, snapshot map[string]status.ServiceCheck) {
	resp := indexResponse{
		Status: overall.Text(),
		Code:   int(overall),
		Checks: make(map[string]checkEntry, len(snapshot)),
	}
	for name, c := range snapshot {
		resp.Checks[name] = checkEntry{
			Status:    c.Status.Text(),
			Code:      int(c.Status),
			Timestamp: c.Timestamp.Unix(),
			Output:    c.Output,
		}
	}

	body, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(httpStatusFor(overall))
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func writeHTML(w http.ResponseWriter, r *http.Request, overall status.Status, snapshot map[string]status.ServiceCheck) {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	body := fmt.Sprintf("<html><head><title>sauna</title></head><body><h1>%s</h1><table>\n",
		html.EscapeString(overall.Text()))
	for _, name := range names {
		c := snapshot[name]
		body += fmt.Sprintf(
			"<tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(name),
			html.EscapeString(c.Status.Text()),
			html.EscapeString(c.Output),
		)
	}
	body += "</table></body></html>"

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(httpStatusFor(overall))
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(body))
	}
}

func httpStatusFor(s status.Status) int {
	if s == status.OK || s == status.WARN {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
