package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Write a sample configuration file covering the common built-in plugins and consumers",
		RunE: func(cmd *cobra.Command, args []string) error {
			const path = "sauna_sample.yml"
			if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
				return fmt.Errorf("sauna: writing %s: %w", path, err)
			}
			fmt.Printf("Created file %s\n", path)
			return nil
		},
	}
}

const sampleConfig = `# Sample sauna configuration. It leaves out the disque plugin and the nsca,
# http_icinga and home_assistant_mqtt consumers. Tune the warn/crit
# thresholds for your host.

periodicity: 120

plugins:
  - type: load
    checks:
      - type: load1
        warn: 2
        crit: 4
      - type: load5
        warn: 1.5
        crit: 3

  - type: memory
    checks:
      - type: available
        warn: 1G
        crit: 512M
      - type: used_percent
        warn: 80%
        crit: 90%

  - type: disk
    checks:
      - type: used_percent
        warn: 80%
        crit: 90%

  - type: network
    checks:
      - type: upload_data_speed
        interface: eth0
        warn: 50M
        crit: 100M

  - type: http
    checks:
      - type: request
        name: homepage
        url: https://example.com
        warn: 200
        crit: 1000

  - type: ssl_cert
    checks:
      - type: validity
        host: example.com
        min_valid_days: 30
        warn: 1

  - type: command
    checks:
      - type: command
        name: raid_status
        command: /usr/local/bin/check_raid.sh

  - type: dummy
    checks:
      - type: ok
        name: always_ok

consumers:
  - type: stdout
  - type: http_status_server
    port: 5555
  - type: tcp_status_server
    port: 5556
    keepalive: true
`
