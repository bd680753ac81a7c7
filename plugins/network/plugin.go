// Package network implements the upload/download byte- and packet-speed
// checks, grounded on the original Network plugin: sample an interface's
// counters, sleep a delay, sample again, and report the per-second delta.
package network

import (
	"fmt"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

const defaultDelay = 1 * time.Second

// ioCounters is indirected so tests can substitute fixtures.
var ioCounters = func() ([]psnet.IOCountersStat, error) { return psnet.IOCounters(true) }

// sleep is indirected so tests don't have to pay the real delay.
var sleep = time.Sleep

type sample struct {
	bytesSent, bytesRecv     uint64
	packetsSent, packetsRecv uint64
}

func sampleInterface(iface string) (sample, error) {
	counters, err := ioCounters()
	if err != nil {
		return sample{}, err
	}
	for _, c := range counters {
		if c.Name == iface {
			return sample{c.BytesSent, c.BytesRecv, c.PacketsSent, c.PacketsRecv}, nil
		}
	}
	return sample{}, fmt.Errorf("network: interface %q not found", iface)
}

func speed(params map[string]any) (ul, dl, pUl, pDl float64, err error) {
	iface, _ := params["interface"].(string)
	if iface == "" {
		err = fmt.Errorf("network: \"interface\" is required")
		return
	}

	first, err := sampleInterface(iface)
	if err != nil {
		return
	}
	sleep(defaultDelay)
	last, err := sampleInterface(iface)
	if err != nil {
		return
	}

	elapsed := defaultDelay.Seconds()
	ul = float64(last.bytesSent-first.bytesSent) / elapsed
	dl = float64(last.bytesRecv-first.bytesRecv) / elapsed
	pUl = float64(last.packetsSent-first.packetsSent) / elapsed
	pDl = float64(last.packetsRecv-first.packetsRecv) / elapsed
	return
}

func uploadDataSpeed(params map[string]any) (status.Status, string, error) {
	ul, _, _, _, err := speed(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	warn, crit, err := thresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(ul, 0, warn, crit), fmt.Sprintf("Upload speed: %s/s", status.FormatBytes(int64(ul))), nil
}

func downloadDataSpeed(params map[string]any) (status.Status, string, error) {
	_, dl, _, _, err := speed(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	warn, crit, err := thresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(dl, 0, warn, crit), fmt.Sprintf("Download speed: %s/s", status.FormatBytes(int64(dl))), nil
}

func uploadPacketSpeed(params map[string]any) (status.Status, string, error) {
	_, _, pUl, _, err := speed(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	warn, crit, err := thresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(pUl, 0, warn, crit), fmt.Sprintf("Upload: %.2f p/s", pUl), nil
}

func downloadPacketSpeed(params map[string]any) (status.Status, string, error) {
	_, _, _, pDl, err := speed(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	warn, crit, err := thresholds(params)
	if err != nil {
		return status.UNKNOWN, "", err
	}
	return status.Evaluate(pDl, 0, warn, crit), fmt.Sprintf("Download: %.2f p/s", pDl), nil
}

func thresholds(params map[string]any) (warn, crit status.Threshold, err error) {
	warn, err = status.ParseThreshold(params["warn"])
	if err != nil {
		return
	}
	crit, err = status.ParseThreshold(params["crit"])
	return
}

// Factory builds the network plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	return &registry.Plugin{
		Name: "network",
		Checks: map[string]registry.CheckFunc{
			"upload_data_speed":     uploadDataSpeed,
			"download_data_speed":   downloadDataSpeed,
			"upload_packet_speed":   uploadPacketSpeed,
			"download_packet_speed": downloadPacketSpeed,
		},
	}, nil
}
