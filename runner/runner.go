// Package runner executes the checks due on a scheduler tick: it calls
// each check's function, converts panics and errors into an UNKNOWN
// result, stamps the result with a timestamp and hostname, writes it to
// the result store, and hands it to the delivery fan-out.
//
// Every invocation is wrapped in the adapted observe.Middleware, the same
// span/metrics/log shape the teacher applies to tool execution, retargeted
// here at check execution (check.exec.<name> spans and metrics).
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/NicolasLM/sauna/config"
	"github.com/NicolasLM/sauna/observe"
	"github.com/NicolasLM/sauna/status"
)

// FanOut receives every result the instant it is written to the store, so
// the caller can broadcast it to push consumers.
type FanOut func(status.ServiceCheck)

// Runner executes due checks sequentially, as spec'd: many probes touch
// shared host resources (procfs, sockets) and some plugins keep
// per-instance caches, so parallelising across checks in the same tick is
// not attempted here.
type Runner struct {
	hostname   string
	store      ResultWriter
	middleware *observe.Middleware
	fanOut     FanOut
}

// ResultWriter is the subset of store.Store the runner needs, kept as an
// interface so tests can substitute a fake.
type ResultWriter interface {
	Write(status.ServiceCheck)
}

// New creates a Runner. obs must be non-nil; pass an Observer built with
// every subsystem disabled to get a no-op one.
func New(hostname string, store ResultWriter, obs observe.Observer, fanOut FanOut) (*Runner, error) {
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("runner: building middleware: %w", err)
	}
	return &Runner{
		hostname:   hostname,
		store:      store,
		middleware: mw,
		fanOut:     fanOut,
	}, nil
}

// RunTick executes every check in due, in order, writing each result to
// the store and handing it to FanOut before moving to the next check.
func (r *Runner) RunTick(ctx context.Context, due []config.Check) {
	for _, c := range due {
		r.runOne(ctx, c)
	}
}

type invokeResult struct {
	status status.Status
	output string
}

func (r *Runner) runOne(ctx context.Context, c config.Check) {
	meta := observe.CheckMeta{Name: c.Name}

	exec := r.middleware.Wrap(func(ctx context.Context, meta observe.CheckMeta, input any) (any, error) {
		return r.invoke(c)
	})

	result, err := exec(ctx, meta, nil)

	var st status.Status
	var output string
	if err != nil {
		st = status.UNKNOWN
		output = err.Error()
	} else {
		res := result.(invokeResult)
		st = res.status
		output = res.output
	}

	sc := status.ServiceCheck{
		Timestamp: time.Now(),
		Hostname:  r.hostname,
		Name:      c.Name,
		Status:    st,
		Output:    output,
	}

	r.store.Write(sc)
	if r.fanOut != nil {
		r.fanOut(sc)
	}
}

// invoke calls the check's function, converting a panic into an error so
// a single bad probe never takes down the runner's goroutine.
func (r *Runner) invoke(c config.Check) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("check %q panicked: %v", c.Name, p)
		}
	}()

	st, output, ferr := c.Function(c.Params)
	if ferr != nil {
		return nil, ferr
	}
	return invokeResult{status: st, output: output}, nil
}
