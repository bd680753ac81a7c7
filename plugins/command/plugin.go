// Package command implements the "command" check: run an external command
// and treat its exit code as the check's status directly. Grounded on the
// original Command plugin (argv split on whitespace with no shell-style
// quoting, combined stdout+stderr,
// return code used verbatim as the status unless it falls outside
// OK/WARN/CRIT).
package command

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

// run is indirected so tests can substitute fixtures without spawning a
// real process.
var run = func(name string, args []string) (int, string, error) {
	cmd := exec.Command(name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()

	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), out.String(), nil
	}
	if err != nil {
		return 0, out.String(), err
	}
	return 0, out.String(), nil
}

func command(params map[string]any) (status.Status, string, error) {
	raw, _ := params["command"].(string)
	if raw == "" {
		return status.UNKNOWN, "", errMissingCommand
	}

	fields := strings.Fields(raw)
	code, output, err := run(fields[0], fields[1:])
	if err != nil {
		return status.UNKNOWN, err.Error(), nil
	}

	return returnCodeToStatus(code), output, nil
}

var errMissingCommand = commandError("command: \"command\" is required")

type commandError string

func (e commandError) Error() string { return string(e) }

func returnCodeToStatus(code int) status.Status {
	switch status.Status(code) {
	case status.OK, status.WARN, status.CRIT:
		return status.Status(code)
	default:
		return status.UNKNOWN
	}
}

// Factory builds the command plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	return &registry.Plugin{
		Name: "command",
		Checks: map[string]registry.CheckFunc{
			"command": command,
		},
	}, nil
}
