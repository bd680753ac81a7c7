// Package memory implements the available/used_percent/swap_used_percent
// checks against host memory, grounded on the original Memory plugin
// (PsutilPlugin-backed, lazily-cached virtual/swap memory samples, "more is
// better" threshold direction for available bytes).
package memory

import (
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

// Plugin samples virtual and swap memory once per process lifetime and
// serves every check type from that cached sample.
type Plugin struct {
	mu      sync.Mutex
	virtual *mem.VirtualMemoryStat
	swap    *mem.SwapMemoryStat
}

func (p *Plugin) virtualMemory() (*mem.VirtualMemoryStat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.virtual == nil {
		v, err := mem.VirtualMemory()
		if err != nil {
			return nil, err
		}
		p.virtual = v
	}
	return p.virtual, nil
}

func (p *Plugin) swapMemory() (*mem.SwapMemoryStat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.swap == nil {
		s, err := mem.SwapMemory()
		if err != nil {
			return nil, err
		}
		p.swap = s
	}
	return p.swap, nil
}

func (p *Plugin) available(params map[string]any) (status.Status, string, error) {
	v, err := p.virtualMemory()
	if err != nil {
		return status.UNKNOWN, "", err
	}
	warn, err := status.ParseThreshold(params["warn"])
	if err != nil {
		return status.UNKNOWN, "", err
	}
	crit, err := status.ParseThreshold(params["crit"])
	if err != nil {
		return status.UNKNOWN, "", err
	}
	available := float64(v.Available)
	return status.EvaluateMore(available, 0, warn, crit),
		fmt.Sprintf("Memory available: %s", status.FormatBytes(int64(available))), nil
}

func (p *Plugin) usedPercent(params map[string]any) (status.Status, string, error) {
	v, err := p.virtualMemory()
	if err != nil {
		return status.UNKNOWN, "", err
	}
	warn, crit, err := parsePercentThresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(v.UsedPercent, 100, warn, crit),
		fmt.Sprintf("Memory used: %.1f%%", v.UsedPercent), nil
}

func (p *Plugin) swapUsedPercent(params map[string]any) (status.Status, string, error) {
	s, err := p.swapMemory()
	if err != nil {
		return status.UNKNOWN, "", err
	}
	warn, crit, err := parsePercentThresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(s.UsedPercent, 100, warn, crit),
		fmt.Sprintf("Swap used: %.1f%%", s.UsedPercent), nil
}

// parsePercentThresholds accepts either a bare number or a "NN%" string for
// warn/crit, matching the original's _strip_percent_sign_from_check_config.
func parsePercentThresholds(params map[string]any) (warn, crit status.Threshold, err error) {
	warn, err = status.ParseThreshold(params["warn"])
	if err != nil {
		return
	}
	crit, err = status.ParseThreshold(params["crit"])
	return
}

// Factory builds the memory plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	p := &Plugin{}
	return &registry.Plugin{
		Name: "memory",
		Checks: map[string]registry.CheckFunc{
			"available":         p.available,
			"used_percent":      p.usedPercent,
			"swap_used_percent": p.swapUsedPercent,
		},
	}, nil
}
