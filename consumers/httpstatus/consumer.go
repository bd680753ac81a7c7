package httpstatus

import (
	"fmt"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/store"
)

// Factory builds a pull-mode HTTP status consumer from its consumer-block
// configuration: {port: int, format: "json"|"html"}.
func Factory(resultStore *store.Store) registry.ConsumerFactory {
	return func(cfg map[string]any) (*registry.Consumer, error) {
		port, ok := cfg["port"]
		if !ok {
			return nil, fmt.Errorf("http_status: port is required")
		}
		n, ok := toInt(port)
		if !ok {
			return nil, fmt.Errorf("http_status: port must be an integer")
		}

		format, _ := cfg["format"].(string)
		srv := New(fmt.Sprintf(":%d", n), format, resultStore)

		return &registry.Consumer{
			Name:   "http_status",
			Mode:   registry.ModePull,
			Server: srv,
		}, nil
	}
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
