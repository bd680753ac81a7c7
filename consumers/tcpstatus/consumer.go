package tcpstatus

import (
	"fmt"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/store"
)

// Factory builds a pull-mode TCP status consumer from its consumer-block
// configuration: {port: int, keepalive: bool}.
func Factory(resultStore *store.Store) registry.ConsumerFactory {
	return func(cfg map[string]any) (*registry.Consumer, error) {
		port, ok := cfg["port"]
		if !ok {
			return nil, fmt.Errorf("tcp_status: port is required")
		}
		n, ok := toInt(port)
		if !ok {
			return nil, fmt.Errorf("tcp_status: port must be an integer")
		}

		keepAlive, _ := cfg["keepalive"].(bool)
		srv := New(fmt.Sprintf(":%d", n), resultStore, keepAlive)

		return &registry.Consumer{
			Name:   "tcp_status",
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
