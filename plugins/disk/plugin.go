// Package disk implements the used_percent check over every mounted
// partition, grounded on the original DiskPlugin: report the first
// partition whose usage breaches a threshold, else report overall OK.
package disk

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

// partitions and usage are indirected so tests can substitute fixtures
// without touching the real filesystem.
var (
	partitions = func() ([]disk.PartitionStat, error) { return disk.Partitions(false) }
	usage      = func(path string) (*disk.UsageStat, error) { return disk.Usage(path) }
)

func usedPercent(params map[string]any) (status.Status, string, error) {
	warn, err := status.ParseThreshold(params["warn"])
	if err != nil {
		return status.UNKNOWN, "", err
	}
	crit, err := status.ParseThreshold(params["crit"])
	if err != nil {
		return status.UNKNOWN, "", err
	}

	parts, err := partitions()
	if err != nil {
		return status.UNKNOWN, "", err
	}

	for _, part := range parts {
		u, err := usage(part.Mountpoint)
		if err != nil {
			continue
		}
		st := status.Evaluate(u.UsedPercent, 100, warn, crit)
		if st != status.OK {
			return st, fmt.Sprintf("Partition %s is full at %.1f%%", part.Mountpoint, u.UsedPercent), nil
		}
	}
	return status.OK, "Disk usage correct", nil
}

// Factory builds the disk plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	return &registry.Plugin{
		Name: "disk",
		Checks: map[string]registry.CheckFunc{
			"used_percent": usedPercent,
		},
	}, nil
}
