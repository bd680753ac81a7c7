package load

import (
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v3/load"

	"github.com/NicolasLM/sauna/status"
)

func TestFactoryRegistersThreeChecks(t *testing.T) {
	plugin, err := Factory(nil)
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	for _, name := range []string{"load1", "load5", "load15"} {
		if _, ok := plugin.Checks[name]; !ok {
			t.Errorf("missing check %q", name)
		}
	}
}

func TestCheckEvaluatesAgainstThresholds(t *testing.T) {
	p := &Plugin{sampled: true, avg: &load.AvgStat{Load1: 5, Load5: 1, Load15: 0.5}}
	fn := p.check(func(a *load.AvgStat) float64 { return a.Load1 }, "Load 1")

	st, output, err := fn(map[string]any{"warn": 2, "crit": 4})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if st != status.CRIT {
		t.Errorf("status = %v, want CRIT", st)
	}
	if !strings.Contains(output, "Load 1") {
		t.Errorf("output = %q", output)
	}
}

func TestCheckSamplesOnce(t *testing.T) {
	p := &Plugin{}
	fn := p.check(func(a *load.AvgStat) float64 { return a.Load1 }, "Load 1")
	if _, _, err := fn(nil); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !p.sampled {
		t.Error("expected sample to be cached after first check")
	}
}
