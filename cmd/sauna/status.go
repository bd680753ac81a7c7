package main

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/NicolasLM/sauna/config"
	"github.com/NicolasLM/sauna/status"
	"github.com/NicolasLM/sauna/store"
)

var humanStatus = map[status.Status]string{
	status.OK:      "OK",
	status.WARN:    "Warning",
	status.CRIT:    "Critical",
	status.UNKNOWN: "Unknown",
}

func newStatusCmd(flags *globalFlags, log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run every configured check once and print its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveFromFile(flags.configPath, store.New())
			if err != nil {
				return fmt.Errorf("sauna: %w", err)
			}

			checks := append([]config.Check(nil), resolved.Checks...)
			sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

			for _, c := range checks {
				st, output := runOnce(c)
				fmt.Printf("  %-30s %-14s %s\n", c.Name, humanStatus[st], output)
			}
			return nil
		},
	}
}

// runOnce executes a single check's function directly, converting a panic
// or error into UNKNOWN, matching runner.RunTick's per-check contract but
// without touching the result store or delivery fan-out: this is a
// read-only, one-shot CLI path.
func runOnce(c config.Check) (st status.Status, output string) {
	defer func() {
		if r := recover(); r != nil {
			st, output = status.UNKNOWN, fmt.Sprintf("panic: %v", r)
		}
	}()

	var err error
	st, output, err = c.Function(c.Params)
	if err != nil {
		return status.UNKNOWN, err.Error()
	}
	return st, output
}
