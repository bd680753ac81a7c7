package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NicolasLM/sauna/config"
	"github.com/NicolasLM/sauna/consumers/homeassistantmqtt"
	"github.com/NicolasLM/sauna/consumers/httpicinga"
	"github.com/NicolasLM/sauna/consumers/httpstatus"
	"github.com/NicolasLM/sauna/consumers/stdout"
	"github.com/NicolasLM/sauna/consumers/tcpstatus"
	"github.com/NicolasLM/sauna/nsca"
	"github.com/NicolasLM/sauna/plugins/command"
	"github.com/NicolasLM/sauna/plugins/disk"
	"github.com/NicolasLM/sauna/plugins/disque"
	"github.com/NicolasLM/sauna/plugins/dummy"
	"github.com/NicolasLM/sauna/plugins/httpcheck"
	"github.com/NicolasLM/sauna/plugins/load"
	"github.com/NicolasLM/sauna/plugins/memory"
	"github.com/NicolasLM/sauna/plugins/network"
	"github.com/NicolasLM/sauna/plugins/tlscert"
	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/store"
)

// builtinPlugins registers every plugin compiled into this binary.
// extra_plugins in spec.md §9 is deliberately not a filesystem/dlopen scan:
// adding a plugin means adding a line here and recompiling, per the
// "compile-time plugin registry" re-architecture note.
func builtinPlugins() *registry.PluginRegistry {
	reg := registry.NewPluginRegistry()
	must(reg.Register("load", load.Factory))
	must(reg.Register("memory", memory.Factory))
	must(reg.Register("disk", disk.Factory))
	must(reg.Register("network", network.Factory))
	must(reg.Register("http", httpcheck.Factory))
	must(reg.Register("ssl_cert", tlscert.Factory))
	must(reg.Register("command", command.Factory))
	must(reg.Register("disque", disque.Factory))
	must(reg.Register("dummy", dummy.Factory))
	return reg
}

// builtinConsumers registers every consumer compiled into this binary.
// httpstatus and tcpstatus close over st so the pull-mode status servers
// read from the same store the runner writes to.
func builtinConsumers(st *store.Store) *registry.ConsumerRegistry {
	reg := registry.NewConsumerRegistry()
	must(reg.Register("stdout", stdout.Factory))
	must(reg.Register("nsca", nsca.Factory))
	must(reg.Register("http_status_server", httpstatus.Factory(st)))
	must(reg.Register("tcp_status_server", tcpstatus.Factory(st)))
	must(reg.Register("http_icinga", httpicinga.Factory))
	must(reg.Register("home_assistant_mqtt", homeassistantmqtt.Factory))
	return reg
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("sauna: built-in registration: %v", err))
	}
}

// loadConfigTree decodes path as YAML into the generic tree shape
// config.Resolve and config.MergeIncludes expect, then resolves its
// `include` glob.
func loadConfigTree(path string) (map[string]any, error) {
	tree, err := decodeYAMLFile(path)
	if err != nil {
		return nil, err
	}
	return config.MergeIncludes(tree, decodeYAMLFile)
}

func decodeYAMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if tree == nil {
		tree = make(map[string]any)
	}
	return tree, nil
}

// resolveFromFile loads path and resolves it against st's registries,
// sharing st with any pull-mode consumer the configuration activates.
func resolveFromFile(path string, st *store.Store) (*config.Resolved, error) {
	tree, err := loadConfigTree(path)
	if err != nil {
		return nil, err
	}
	return config.Resolve(tree, builtinPlugins(), builtinConsumers(st))
}
