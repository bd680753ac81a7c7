// Package disque implements the used_memory/used_memory_rss/qlen checks
// against a Disque (Redis-protocol-compatible) server. Grounded on the
// original Disque plugin, rebuilt on github.com/redis/go-redis/v9 since
// Disque speaks the Redis wire protocol and no Disque-specific Go client
// appears anywhere in the retrieval pack.
package disque

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

// disqueClient is the subset of redis.Client this plugin needs, narrowed
// from the much larger redis.Cmdable interface so tests can fake it without
// a live server.
type disqueClient interface {
	Info(ctx context.Context, section ...string) *redis.StringCmd
	Do(ctx context.Context, args ...any) *redis.Cmd
}

// Plugin holds a shared client to the configured Disque server and caches
// its INFO reply for the lifetime of the process, matching the original's
// lazily-cached disque_info property.
type Plugin struct {
	client disqueClient

	mu   sync.Mutex
	info map[string]string
}

func (p *Plugin) disqueInfo(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info != nil {
		return p.info, nil
	}

	raw, err := p.client.Info(ctx).Result()
	if err != nil {
		return nil, err
	}
	p.info = parseInfo(raw)
	return p.info, nil
}

func parseInfo(raw string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(raw, "\r\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		fields[parts[0]] = parts[1]
	}
	return fields
}

func (p *Plugin) usedMemory(params map[string]any) (status.Status, string, error) {
	info, err := p.disqueInfo(context.Background())
	if err != nil {
		return status.UNKNOWN, "", err
	}
	used, err := strconv.ParseInt(info["used_memory"], 10, 64)
	if err != nil {
		return status.UNKNOWN, "", fmt.Errorf("disque: parsing used_memory: %w", err)
	}

	warn, crit, err := thresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(float64(used), 0, warn, crit),
		fmt.Sprintf("Used memory: %s", status.FormatBytes(used)), nil
}

func (p *Plugin) usedMemoryRSS(params map[string]any) (status.Status, string, error) {
	info, err := p.disqueInfo(context.Background())
	if err != nil {
		return status.UNKNOWN, "", err
	}
	used, err := strconv.ParseInt(info["used_memory_rss"], 10, 64)
	if err != nil {
		return status.UNKNOWN, "", fmt.Errorf("disque: parsing used_memory_rss: %w", err)
	}

	warn, crit, err := thresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(float64(used), 0, warn, crit),
		fmt.Sprintf("Used memory RSS: %s", status.FormatBytes(used)), nil
}

func (p *Plugin) qlen(params map[string]any) (status.Status, string, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return status.UNKNOWN, "", fmt.Errorf("disque: \"key\" is required")
	}

	n, err := p.client.Do(context.Background(), "QLEN", key).Int()
	if err != nil {
		return status.UNKNOWN, "", err
	}

	warn, crit, err := thresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(float64(n), 0, warn, crit),
		fmt.Sprintf("%d items in key %s", n, key), nil
}

func thresholds(params map[string]any) (warn, crit status.Threshold, err error) {
	warn, err = status.ParseThreshold(params["warn"])
	if err != nil {
		return
	}
	crit, err = status.ParseThreshold(params["crit"])
	return
}

// Factory builds the disque plugin from its plugin-block configuration:
// {config: {host, port}}.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	host, port := "localhost", 6379
	if sub, ok := cfg["config"].(map[string]any); ok {
		if h, ok := sub["host"].(string); ok && h != "" {
			host = h
		}
		if p, ok := toInt(sub["port"]); ok {
			port = p
		}
	}

	p := &Plugin{client: redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port)})}

	return &registry.Plugin{
		Name: "disque",
		Checks: map[string]registry.CheckFunc{
			"used_memory":     p.usedMemory,
			"used_memory_rss": p.usedMemoryRSS,
			"qlen":            p.qlen,
		},
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
