// Package config turns a parsed configuration tree (the shape YAML/JSON
// decode into — sauna's engine never parses YAML itself, see
// cmd/sauna) into the concrete values the rest of the engine runs on: a
// list of resolved Check values and a list of instantiated consumers.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/secret"
)

const defaultPeriodicity = 120

// Check is a fully resolved, ready-to-run check: a unique name, its
// periodicity, the plugin's check function, and the per-check params the
// function is called with.
type Check struct {
	Name        string
	Periodicity int
	Function    registry.CheckFunc
	Params      map[string]any
}

// ConsumerSpec is a fully resolved, instantiated consumer.
type ConsumerSpec struct {
	Kind     string
	Mode     registry.Mode
	Consumer *registry.Consumer
}

// Resolved is everything the lifecycle controller needs to start the
// engine.
type Resolved struct {
	Hostname    string
	Periodicity int
	Checks      []Check
	Consumers   []ConsumerSpec
}

// Resolve normalizes tree's plugins/consumers blocks, instantiates each
// against the given registries, and derives the check and consumer lists.
// Dependency errors (an optional plugin or consumer's runtime library isn't
// built into this binary) are collected across every block so the operator
// sees the complete list at once; any other error (unknown plugin/consumer
// name, unknown check type, duplicate check name, bad shape) is fatal
// immediately.
func Resolve(tree map[string]any, plugins *registry.PluginRegistry, consumers *registry.ConsumerRegistry) (*Resolved, error) {
	expanded, err := expandSecrets(tree)
	if err != nil {
		return nil, err
	}
	tree = expanded.(map[string]any)

	r := &Resolved{
		Periodicity: intOr(tree["periodicity"], defaultPeriodicity),
		Hostname:    stringOr(tree["hostname"], localHostname()),
	}

	var depErrs []error
	seenNames := make(map[string]bool)

	pluginBlocks, err := normalizeBlocks(tree["plugins"])
	if err != nil {
		return nil, fmt.Errorf("config: plugins: %w", err)
	}

	for _, block := range pluginBlocks {
		ptype, _ := block["type"].(string)
		if ptype == "" {
			return nil, fmt.Errorf("config: plugin block missing required \"type\"")
		}

		pluginCfg := withoutKeys(block, "type", "checks")
		plugin, err := plugins.Create(ptype, pluginCfg)
		if err != nil {
			var depErr *registry.DependencyError
			if errors.As(err, &depErr) {
				depErrs = append(depErrs, depErr)
				continue
			}
			return nil, fmt.Errorf("config: plugin %q: %w", ptype, err)
		}

		checkBlocks, _ := block["checks"].([]any)
		for _, raw := range checkBlocks {
			entry, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config: plugin %q: check entry must be a mapping", ptype)
			}

			ctype, _ := entry["type"].(string)
			if ctype == "" {
				return nil, fmt.Errorf("config: plugin %q: check entry missing required \"type\"", ptype)
			}

			fn, ok := plugin.Checks[ctype]
			if !ok {
				return nil, fmt.Errorf("config: plugin %q: unknown check type %q", ptype, ctype)
			}

			name := stringOr(entry["name"], strings.ToLower(ptype+"_"+ctype))
			if seenNames[name] {
				return nil, fmt.Errorf("config: duplicate check name %q", name)
			}
			seenNames[name] = true

			r.Checks = append(r.Checks, Check{
				Name:        name,
				Periodicity: intOr(entry["periodicity"], r.Periodicity),
				Function:    fn,
				Params:      withoutKeys(entry, "type", "name", "periodicity"),
			})
		}
	}

	consumerBlocks, err := normalizeBlocks(tree["consumers"])
	if err != nil {
		return nil, fmt.Errorf("config: consumers: %w", err)
	}

	for _, block := range consumerBlocks {
		ctype, _ := block["type"].(string)
		if ctype == "" {
			return nil, fmt.Errorf("config: consumer block missing required \"type\"")
		}

		consumerCfg := withoutKeys(block, "type")
		consumer, err := consumers.Create(ctype, consumerCfg)
		if err != nil {
			var depErr *registry.DependencyError
			if errors.As(err, &depErr) {
				depErrs = append(depErrs, depErr)
				continue
			}
			return nil, fmt.Errorf("config: consumer %q: %w", ctype, err)
		}

		r.Consumers = append(r.Consumers, ConsumerSpec{
			Kind:     ctype,
			Mode:     consumer.Mode,
			Consumer: consumer,
		})
	}

	if len(depErrs) > 0 {
		return nil, errors.Join(depErrs...)
	}

	return r, nil
}

// normalizeBlocks accepts either an ordered sequence of blocks (each a
// mapping with an explicit "type" field) or a mapping keyed by an arbitrary
// block name, and returns the sequence form. In mapping form, a block's
// "type" defaults to its key, and blocks are ordered lexicographically by
// key for determinism (map iteration order is not meaningful here).
func normalizeBlocks(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		blocks := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("block entry must be a mapping")
			}
			blocks = append(blocks, m)
		}
		return blocks, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		blocks := make([]map[string]any, 0, len(v))
		for _, k := range keys {
			m, ok := v[k].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("block %q must be a mapping", k)
			}
			block := cloneMap(m)
			if _, hasType := block["type"]; !hasType {
				block["type"] = k
			}
			blocks = append(blocks, block)
		}
		return blocks, nil
	default:
		return nil, fmt.Errorf("must be a mapping or a sequence, got %T", raw)
	}
}

func withoutKeys(m map[string]any, keys ...string) map[string]any {
	out := cloneMap(m)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func localHostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "localhost"
	}
	return h
}

// expandSecrets recursively walks tree, replacing every string leaf with
// its ${VAR}-expanded form via secret.ExpandEnvStrict.
func expandSecrets(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return secret.ExpandEnvStrict(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ev, err := expandSecrets(val)
			if err != nil {
				return nil, fmt.Errorf("config: %s: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			ev, err := expandSecrets(val)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return v, nil
	}
}
