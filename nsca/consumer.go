package nsca

import (
	"fmt"
	"time"

	"github.com/NicolasLM/sauna/registry"
)

// Factory builds a queued-mode NSCA consumer from its consumer-block
// configuration: {servers: []string, encryption_method: int, password:
// string, timeout: seconds}.
func Factory(cfg map[string]any) (*registry.Consumer, error) {
	rawServers, _ := cfg["servers"].([]any)
	if len(rawServers) == 0 {
		return nil, fmt.Errorf("nsca: at least one server is required")
	}
	servers := make([]string, 0, len(rawServers))
	for _, s := range rawServers {
		str, ok := s.(string)
		if !ok || str == "" {
			return nil, fmt.Errorf("nsca: servers must be non-empty strings")
		}
		servers = append(servers, str)
	}

	mode := ModeNone
	if raw, ok := cfg["encryption_method"]; ok {
		n, ok := raw.(int)
		if !ok {
			if f, ok := raw.(float64); ok {
				n = int(f)
			} else {
				return nil, fmt.Errorf("nsca: encryption_method must be an integer")
			}
		}
		mode = EncryptionMode(n)
	}

	var key []byte
	if pw, ok := cfg["password"].(string); ok {
		key = []byte(pw)
	}

	timeout := 10 * time.Second
	if raw, ok := cfg["timeout"]; ok {
		if n, ok := raw.(int); ok {
			timeout = time.Duration(n) * time.Second
		}
	}

	client := NewClient(servers, mode, key, timeout)
	return &registry.Consumer{
		Name:   "nsca",
		Mode:   registry.ModeQueued,
		Sender: client,
	}, nil
}
