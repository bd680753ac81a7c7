// Package stdout implements the simplest queued-mode consumer: it prints
// every delivered ServiceCheck to standard output. Grounded on the original
// Python StdoutConsumer, which does nothing but print(service_check).
package stdout

import (
	"fmt"
	"io"
	"os"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

// Consumer writes each ServiceCheck to Out, one line per check.
type Consumer struct {
	Out io.Writer
}

// Send implements registry.Sender.
func (c *Consumer) Send(check status.ServiceCheck) error {
	_, err := fmt.Fprintf(c.Out, "%s %s %s %s %q\n",
		check.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		check.Hostname,
		check.Name,
		check.Status.Text(),
		check.Output,
	)
	return err
}

// Factory builds a queued-mode stdout consumer. It takes no configuration.
func Factory(cfg map[string]any) (*registry.Consumer, error) {
	c := &Consumer{Out: os.Stdout}
	return &registry.Consumer{
		Name:   "stdout",
		Mode:   registry.ModeQueued,
		Sender: c,
	}, nil
}
