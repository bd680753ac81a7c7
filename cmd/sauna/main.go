// Command sauna runs the health-check daemon: it loads a YAML
// configuration, resolves it against the compiled-in plugin and consumer
// registries, and drives the lifecycle controller until it receives
// SIGINT/SIGTERM. The engine's own packages never import a YAML decoder or
// cobra; this command is the thin, swappable shell spec.md §1 scopes out of
// the core.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
