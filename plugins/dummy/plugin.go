// Package dummy implements a fixed-result plugin with no external
// dependency, used by the "sample" CLI subcommand and by tests that need a
// trivially predictable check.
package dummy

import (
	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

func ok(params map[string]any) (status.Status, string, error) {
	return status.OK, "Dummy check always returns OK", nil
}

// Factory builds the dummy plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	return &registry.Plugin{
		Name: "dummy",
		Checks: map[string]registry.CheckFunc{
			"ok": ok,
		},
	}, nil
}
