package delivery

import (
	"context"
	"sync"

	"github.com/NicolasLM/sauna/config"
	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/resilience"
	"github.com/NicolasLM/sauna/status"
)

// Manager owns one Queue+Worker per push consumer and broadcasts every
// produced ServiceCheck onto all of them. Pull consumers are tracked
// separately (see PullConsumers) since they have no queue.
type Manager struct {
	workers       []*Worker
	queues        []*Queue
	PullConsumers []config.ConsumerSpec

	wg sync.WaitGroup
}

// NewManager builds queues and workers for every push consumer in specs,
// using policy for all of them (a future per-consumer override can read
// policy fields out of ConsumerSpec.Consumer's own config if needed).
func NewManager(specs []config.ConsumerSpec, policy Policy, logger Logger) *Manager {
	m := &Manager{}

	batchedCount := 0
	for _, spec := range specs {
		if spec.Mode == registry.ModeBatched {
			batchedCount++
		}
	}

	var bulkhead *resilience.Bulkhead
	if batchedCount > 0 {
		bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: batchedCount})
	}

	for _, spec := range specs {
		if spec.Mode == registry.ModePull {
			m.PullConsumers = append(m.PullConsumers, spec)
			continue
		}
		q := NewQueue(policy.MaxQueueSize, func(dropped status.ServiceCheck) {
			if logger != nil {
				logger.Warn(context.Background(), "dropping oldest queued check on overflow")
			}
		})
		w := NewWorker(spec.Kind, spec.Consumer, q, policy, logger)
		if spec.Mode == registry.ModeBatched {
			w.WithBulkhead(bulkhead, m.spawn)
		}
		m.queues = append(m.queues, q)
		m.workers = append(m.workers, w)
	}
	return m
}

// spawn runs fn in a goroutine tracked by m.wg, so Shutdown waits for any
// in-flight batch flush before returning.
func (m *Manager) spawn(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

// Start launches one goroutine per push consumer's worker loop.
func (m *Manager) Start(ctx context.Context) {
	for _, w := range m.workers {
		w := w
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Run(ctx)
		}()
	}
}

// Broadcast enqueues a copy of check onto every push consumer's queue. A
// slow consumer's queue filling up never blocks this call nor the other
// consumers, matching spec's broadcast policy.
func (m *Manager) Broadcast(check status.ServiceCheck) {
	for _, q := range m.queues {
		q.Push(Item{Check: check})
	}
}

// Shutdown pushes the shutdown sentinel onto every queue and waits for
// every worker goroutine to exit or ctx to be done, whichever comes first.
func (m *Manager) Shutdown(ctx context.Context) {
	for _, q := range m.queues {
		q.Push(Item{Shutdown: true})
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}
