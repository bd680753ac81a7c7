// Package delivery fans out each produced ServiceCheck to every push
// consumer's own queue and runs a per-consumer worker loop that applies
// staleness, retry, and batching policy before handing items to the
// consumer's Sender/BatchSender. Pull consumers have no queue and are not
// driven by this package; they read the result store directly.
package delivery

import (
	"context"
	"math"
	"time"

	"github.com/NicolasLM/sauna/observe"
	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/resilience"
	"github.com/NicolasLM/sauna/status"
)

// Policy holds the per-consumer tunables from spec §4.5, with the
// original daemon's defaults (sauna.consumers.base.Consumer).
type Policy struct {
	StaleAge      time.Duration // default 300s
	RetryDelay    time.Duration // default 10s
	MaxRetry      int           // default -1 (infinite); 0 drops on first failure
	MaxBatchSize  int           // default 64, batched mode only
	MaxBatchDelay time.Duration // default 15s, batched mode only
	MaxQueueSize  int           // 0 = unbounded

	// RateLimit caps outbound sends per second per consumer (token bucket);
	// 0 disables rate limiting. Protects a monitoring backend (NSCA, Icinga,
	// MQTT broker) from a send burst, e.g. when a backlog of queued checks
	// flushes all at once after the backend recovers from an outage.
	RateLimit float64
	RateBurst int // burst size for RateLimit; 0 uses resilience.RateLimiter's own default
}

// DefaultPolicy returns spec's documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		StaleAge:      300 * time.Second,
		RetryDelay:    10 * time.Second,
		MaxRetry:      -1,
		MaxBatchSize:  64,
		MaxBatchDelay: 15 * time.Second,
		RateLimit:     50,
		RateBurst:     20,
	}
}

// Logger is the minimal logging surface the worker needs for its warn-level
// drop/retry notices; satisfied by observe.Logger.
type Logger interface {
	Warn(ctx context.Context, msg string, fields ...observe.Field)
}

// Worker drives one push consumer's queue: pop (or batch) items, check
// staleness, send with retry/circuit-breaker protection, and drop what
// cannot be delivered.
type Worker struct {
	Name   string
	Mode   registry.Mode
	Queue  *Queue
	Policy Policy
	Logger Logger

	circuit     *resilience.CircuitBreaker
	rateLimiter *resilience.RateLimiter
	consum      *registry.Consumer
	bulkhead    *resilience.Bulkhead
	spawn       func(func())
}

// NewWorker builds a Worker for consumer c, backed by queue and policy.
// bulkhead and spawn are only used in batched mode, to let a flush run
// concurrently with the worker popping the next batch while still
// bounding the number of in-flight flushes (see Manager); both may be nil
// for queued/pull consumers or in tests, in which case flushes run inline.
func NewWorker(name string, c *registry.Consumer, queue *Queue, policy Policy, logger Logger) *Worker {
	w := &Worker{
		Name:   name,
		Mode:   c.Mode,
		Queue:  queue,
		Policy: policy,
		Logger: logger,
		consum: c,
		circuit: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		}),
	}
	if policy.RateLimit > 0 {
		w.rateLimiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        policy.RateLimit,
			Burst:       policy.RateBurst,
			WaitOnLimit: true,
			MaxWait:     policy.RetryDelay,
		})
	}
	return w
}

// executor composes the per-attempt resilience patterns around a single
// send: the circuit breaker always applies, the rate limiter only when
// configured. Retry stays outside executor and calls it once per attempt,
// so the circuit breaker and rate limiter are consulted on every retry, not
// just once per queued item.
func (w *Worker) executor() *resilience.Executor {
	opts := []resilience.ExecutorOption{resilience.WithCircuitBreaker(w.circuit)}
	if w.rateLimiter != nil {
		opts = append(opts, resilience.WithRateLimiter(w.rateLimiter))
	}
	return resilience.NewExecutor(opts...)
}

// WithBulkhead attaches a shared bulkhead and spawn function used to run
// batch flushes concurrently with bounded parallelism. Returns w for
// chaining.
func (w *Worker) WithBulkhead(bulkhead *resilience.Bulkhead, spawn func(func())) *Worker {
	w.bulkhead = bulkhead
	w.spawn = spawn
	return w
}

// Run drives the worker loop until ctx is done or the shutdown sentinel is
// popped from the queue, dispatching to the mode-appropriate loop.
func (w *Worker) Run(ctx context.Context) {
	switch w.Mode {
	case registry.ModeBatched:
		w.runBatched(ctx)
	default:
		w.runQueued(ctx)
	}
}

func (w *Worker) runQueued(ctx context.Context) {
	for {
		item, ok := w.Queue.Pop(ctx)
		if !ok || item.Shutdown {
			return
		}
		if w.isStale(item.Check) {
			w.warn(ctx, "dropping stale check", item.Check.Name)
			continue
		}
		w.sendWithRetry(ctx, func(ctx context.Context) error {
			return w.consum.Sender.Send(item.Check)
		}, item.Check.Name)
	}
}

func (w *Worker) runBatched(ctx context.Context) {
	maxSize := w.Policy.MaxBatchSize
	if maxSize <= 0 {
		maxSize = 64
	}
	maxDelay := w.Policy.MaxBatchDelay
	if maxDelay <= 0 {
		maxDelay = 15 * time.Second
	}

	for {
		first, ok := w.Queue.Pop(ctx)
		if !ok {
			return
		}
		if first.Shutdown {
			return
		}

		batch := []status.ServiceCheck{first.Check}
		deadline := time.Now().Add(maxDelay)
		shuttingDown := false

	fill:
		for len(batch) < maxSize {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			if !w.Queue.WaitItem(ctx, remaining) {
				break
			}
			for _, it := range w.Queue.DrainUpTo(maxSize - len(batch)) {
				if it.Shutdown {
					shuttingDown = true
					break fill
				}
				batch = append(batch, it.Check)
			}
		}

		if w.isStale(batch[len(batch)-1]) {
			w.warn(ctx, "dropping stale batch", batch[len(batch)-1].Name)
		} else {
			w.sendBatchWithRetry(ctx, batch)
		}

		if shuttingDown || ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) isStale(c status.ServiceCheck) bool {
	staleAge := w.Policy.StaleAge
	if staleAge < 0 {
		staleAge = 0
	}
	return time.Since(c.Timestamp) >= staleAge
}

func (w *Worker) sendWithRetry(ctx context.Context, send func(context.Context) error, name string) {
	retrier := w.retrier(name)
	executor := w.executor()
	err := retrier.Execute(ctx, func(ctx context.Context) error {
		return executor.Execute(ctx, send)
	})
	if err != nil {
		w.warn(ctx, "dropping check after max retries", name)
	}
}

func (w *Worker) sendBatchWithRetry(ctx context.Context, batch []status.ServiceCheck) {
	flush := func(ctx context.Context) {
		retrier := w.retrier(batch[len(batch)-1].Name)
		executor := w.executor()
		err := retrier.Execute(ctx, func(ctx context.Context) error {
			return executor.Execute(ctx, func(ctx context.Context) error {
				return w.consum.Batch.SendBatch(batch)
			})
		})
		if err != nil {
			w.warn(ctx, "dropping batch after max retries", batch[len(batch)-1].Name)
		}
	}

	if w.bulkhead == nil || w.spawn == nil {
		flush(ctx)
		return
	}

	w.spawn(func() {
		_ = w.bulkhead.Execute(ctx, func(ctx context.Context) error {
			flush(ctx)
			return nil
		})
	})
}

func (w *Worker) retrier(itemName string) *resilience.Retry {
	maxAttempts := w.Policy.MaxRetry + 1
	if w.Policy.MaxRetry < 0 {
		maxAttempts = math.MaxInt32
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	delay := w.Policy.RetryDelay
	if delay <= 0 {
		delay = 10 * time.Second
	}
	return resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  maxAttempts,
		InitialDelay: delay,
		MaxDelay:     delay,
		Strategy:     resilience.BackoffConstant,
		Jitter:       false,
		OnRetry: func(attempt int, sendErr error, delay time.Duration) {
			if w.Logger == nil {
				return
			}
			w.Logger.Warn(context.Background(), "could not send check, retrying",
				observe.Field{Key: "consumer", Value: w.Name},
				observe.Field{Key: "check", Value: itemName},
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "error", Value: sendErr.Error()},
			)
		},
	})
}

func (w *Worker) warn(ctx context.Context, msg, checkName string) {
	if w.Logger == nil {
		return
	}
	w.Logger.Warn(ctx, msg, observe.Field{Key: "consumer", Value: w.Name}, observe.Field{Key: "check", Value: checkName})
}
