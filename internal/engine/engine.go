// Package engine wires the resolved configuration into a running daemon:
// it drives the scheduler, the check runner, the result store, and the
// delivery fan-out, and starts/stops every pull-mode consumer's server.
// This is the lifecycle controller of spec.md §4.9/§11: one producer loop
// (scheduler+runner), one worker per push consumer, one server per pull
// consumer, all joined cleanly on Stop.
package engine

import (
	"context"
	"time"

	"github.com/NicolasLM/sauna/config"
	"github.com/NicolasLM/sauna/delivery"
	"github.com/NicolasLM/sauna/observe"
	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/runner"
	"github.com/NicolasLM/sauna/scheduler"
	"github.com/NicolasLM/sauna/store"
)

// Logger is the minimal component logger the engine needs for its own
// lifecycle messages, matching logrus.Entry's shape so cmd/sauna can pass
// one directly.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Infof(string, ...any)  {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// Engine owns one full daemon lifecycle: scheduler tick loop, runner,
// result store, delivery manager, and every pull server.
type Engine struct {
	resolved *config.Resolved
	store    *store.Store
	sched    *scheduler.Scheduler
	runner   *runner.Runner
	delivery *delivery.Manager
	obs      observe.Observer
	log      Logger

	checksByName map[string]config.Check
	pullServers  []registry.PullServer
}

// New builds an Engine from a Resolve()d configuration. st is the result
// store the runner writes to; callers that register pull-mode consumers
// (the HTTP/TCP status servers) must build it first and hand it to those
// consumer factories before calling config.Resolve, then pass the same
// instance here so the runner and the pull servers share one store. obs is
// shut down by Stop. policy is the delivery fan-out's retry/stale-age/
// batching policy; pass delivery.DefaultPolicy() for spec.md's defaults.
func New(resolved *config.Resolved, st *store.Store, obs observe.Observer, policy delivery.Policy, log Logger) (*Engine, error) {
	if log == nil {
		log = noopLogger{}
	}
	if st == nil {
		st = store.New()
	}

	checked := make([]scheduler.Checked, 0, len(resolved.Checks))
	byName := make(map[string]config.Check, len(resolved.Checks))
	for _, c := range resolved.Checks {
		checked = append(checked, scheduler.Checked{Name: c.Name, Periodicity: c.Periodicity})
		byName[c.Name] = c
	}
	sched := scheduler.New(checked)

	mgr := delivery.NewManager(resolved.Consumers, policy, obs.Logger())

	r, err := runner.New(resolved.Hostname, st, obs, mgr.Broadcast)
	if err != nil {
		return nil, err
	}

	return &Engine{
		resolved:     resolved,
		store:        st,
		sched:        sched,
		runner:       r,
		delivery:     mgr,
		obs:          obs,
		log:          log,
		checksByName: byName,
	}, nil
}

// Store returns the result store, so the pull-consumer factories and the
// "status" CLI subcommand can be wired to the same instance the runner
// writes to.
func (e *Engine) Store() *store.Store { return e.store }

// Run starts every push worker and pull server, then drives the scheduler
// tick loop until ctx is cancelled. It returns once the tick loop has
// exited; callers should then call Stop to join workers and servers.
func (e *Engine) Run(ctx context.Context) error {
	e.delivery.Start(ctx)

	var started []registry.PullServer
	for _, spec := range e.resolved.Consumers {
		if spec.Mode != registry.ModePull {
			continue
		}
		if err := spec.Consumer.Server.Start(); err != nil {
			e.log.Errorf("consumer %s: failed to start: %v", spec.Kind, err)
			continue
		}
		started = append(started, spec.Consumer.Server)
		e.log.Infof("consumer %s: started", spec.Kind)
	}
	e.pullServers = started

	tickDur := time.Duration(e.sched.TickDuration()) * time.Second
	ticker := time.NewTicker(tickDur)
	defer ticker.Stop()

	e.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

func (e *Engine) runTick(ctx context.Context) {
	_, due := e.sched.Next()
	if len(due) == 0 {
		return
	}
	checks := make([]config.Check, 0, len(due))
	for _, d := range due {
		if c, ok := e.checksByName[d.Name]; ok {
			checks = append(checks, c)
		}
	}
	e.runner.RunTick(ctx, checks)
}

// Stop waits for every push worker to drain its shutdown sentinel and
// every pull server to close, bounded by ctx. obs is shut down last.
func (e *Engine) Stop(ctx context.Context) {
	e.delivery.Shutdown(ctx)

	for _, srv := range e.pullServers {
		if err := srv.Stop(); err != nil {
			e.log.Warnf("consumer: error stopping server: %v", err)
		}
	}

	if err := e.obs.Shutdown(ctx); err != nil {
		e.log.Warnf("observability: error during shutdown: %v", err)
	}
}
