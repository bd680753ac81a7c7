// Package load implements the load1/load5/load15 checks against the host's
// load averages. Grounded on the original LoadPlugin (os.getloadavg, one
// lazily-cached read per execution, "less is better" threshold direction).
package load

import (
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/load"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

// Plugin reads the host's load averages once per check execution and serves
// all three check types from that single sample.
type Plugin struct {
	mu      sync.Mutex
	avg     *load.AvgStat
	sampled bool
}

func (p *Plugin) sample() (*load.AvgStat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.sampled {
		avg, err := load.Avg()
		if err != nil {
			return nil, err
		}
		p.avg = avg
		p.sampled = true
	}
	return p.avg, nil
}

func (p *Plugin) check(value func(*load.AvgStat) float64, label string) registry.CheckFunc {
	return func(params map[string]any) (status.Status, string, error) {
		avg, err := p.sample()
		if err != nil {
			return status.UNKNOWN, "", err
		}

		warn, crit, err := parseThresholds(params)
		if err != nil {
			return status.UNKNOWN, "", err
		}

		v := value(avg)
		return status.Evaluate(v, 0, warn, crit), fmt.Sprintf("%s: %.2f", label, v), nil
	}
}

func parseThresholds(params map[string]any) (warn, crit status.Threshold, err error) {
	warn, err = status.ParseThreshold(params["warn"])
	if err != nil {
		return
	}
	crit, err = status.ParseThreshold(params["crit"])
	return
}

// Factory builds the load plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	p := &Plugin{}
	return &registry.Plugin{
		Name: "load",
		Checks: map[string]registry.CheckFunc{
			"load1":  p.check(func(a *load.AvgStat) float64 { return a.Load1 }, "Load 1"),
			"load5":  p.check(func(a *load.AvgStat) float64 { return a.Load5 }, "Load 5"),
			"load15": p.check(func(a *load.AvgStat) float64 { return a.Load15 }, "Load 15"),
		},
	}, nil
}
