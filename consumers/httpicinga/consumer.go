// Package httpicinga implements the batched-mode consumer that posts each
// ServiceCheck to an Icinga2 REST API process-check-result action. Grounded
// on the original HTTPIcingaConsumer (same URL/timeout/headers config, same
// filter/exit_status/plugin_output JSON payload), rebuilt on stdlib
// net/http and the teacher's resilience.Timeout instead of python-requests.
package httpicinga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/resilience"
	"github.com/NicolasLM/sauna/status"
)

const defaultTimeout = 60 * time.Second

// Consumer posts check results to an Icinga2 process-check-result endpoint.
type Consumer struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration

	client *http.Client
}

type icingaPayload struct {
	Filter       string `json:"filter"`
	ExitStatus   int    `json:"exit_status"`
	PluginOutput string `json:"plugin_output"`
	Type         string `json:"type"`
}

// SendBatch implements registry.BatchSender: posts each check in the batch
// as its own request, stopping at the first failure so delivery's retry
// policy can redeliver the whole batch.
func (c *Consumer) SendBatch(checks []status.ServiceCheck) error {
	for _, check := range checks {
		if err := c.send(check); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) send(check status.ServiceCheck) error {
	payload := icingaPayload{
		Filter:       fmt.Sprintf("host.name==%q && service.name==%q", check.Hostname, check.Name),
		ExitStatus:   int(check.Status),
		PluginOutput: check.Output,
		Type:         "Service",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return resilience.ExecuteWithTimeout(context.Background(), c.Timeout, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range c.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("httpicinga: server responded %d", resp.StatusCode)
		}
		return nil
	})
}

// Factory builds a batched-mode Icinga HTTP consumer from its consumer-block
// configuration: {url, timeout, headers}.
func Factory(cfg map[string]any) (*registry.Consumer, error) {
	url, _ := cfg["url"].(string)
	if url == "" {
		url = "http://localhost"
	}

	timeout := defaultTimeout
	if t, ok := cfg["timeout"]; ok {
		if seconds, ok := toInt(t); ok {
			timeout = time.Duration(seconds) * time.Second
		}
	}

	headers := make(map[string]string)
	if raw, ok := cfg["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	c := &Consumer{
		URL:     url,
		Headers: headers,
		Timeout: timeout,
		client:  &http.Client{},
	}

	return &registry.Consumer{
		Name:  "http_icinga",
		Mode:  registry.ModeBatched,
		Batch: c,
	}, nil
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
