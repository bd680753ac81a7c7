// Package httpcheck implements the "request" check: make an HTTP request
// and evaluate its status code, body content, and elapsed time against
// thresholds. Grounded on the original HTTP plugin, rebuilt on stdlib
// net/http instead of python-requests (no DependencyError here: net/http
// is always available).
package httpcheck

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

const defaultTimeout = 10 * time.Second

func request(params map[string]any) (status.Status, string, error) {
	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	url, _ := params["url"].(string)
	if url == "" {
		return status.UNKNOWN, "", fmt.Errorf("httpcheck: \"url\" is required")
	}

	wantCode := 200
	if c, ok := toInt(params["code"]); ok {
		wantCode = c
	}
	wantContent, _ := params["content"].(string)

	timeout := defaultTimeout
	if ms, ok := toInt(params["timeout"]); ok {
		timeout = time.Duration(ms) * time.Millisecond
	}

	warn, err := status.ParseThreshold(params["warn"])
	if err != nil {
		return status.UNKNOWN, "", err
	}
	crit, err := status.ParseThreshold(params["crit"])
	if err != nil {
		return status.UNKNOWN, "", err
	}

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return status.CRIT, err.Error(), nil
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return status.CRIT, err.Error(), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status.CRIT, err.Error(), nil
	}
	elapsedMs := time.Since(start).Milliseconds()

	if resp.StatusCode != wantCode {
		return status.CRIT, fmt.Sprintf("Got status code %d instead of %d", resp.StatusCode, wantCode), nil
	}
	if wantContent != "" && !strings.Contains(string(body), wantContent) {
		return status.CRIT, fmt.Sprintf("Content %q not in response", wantContent), nil
	}

	return status.Evaluate(float64(elapsedMs), 0, warn, crit),
		fmt.Sprintf("HTTP %d in %d ms", resp.StatusCode, elapsedMs), nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Factory builds the httpcheck plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	return &registry.Plugin{
		Name: "http",
		Checks: map[string]registry.CheckFunc{
			"request": request,
		},
	}, nil
}
