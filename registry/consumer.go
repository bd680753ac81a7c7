package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NicolasLM/sauna/status"
)

// Mode is a consumer's delivery mode, selected by its factory and used by
// the delivery package to decide which worker loop to run.
type Mode int

const (
	// ModeQueued delivers items one at a time from an unbounded (up to
	// overflow) per-consumer queue, retrying failures.
	ModeQueued Mode = iota
	// ModeBatched accumulates items and flushes them together, either when
	// a batch size is reached or a deadline elapses.
	ModeBatched
	// ModePull never receives a push; the consumer exposes query-only
	// state (the HTTP/TCP status servers).
	ModePull
)

func (m Mode) String() string {
	switch m {
	case ModeQueued:
		return "queued"
	case ModeBatched:
		return "batched"
	case ModePull:
		return "pull"
	default:
		return "unknown"
	}
}

// Sender is what a queued consumer implements: deliver one ServiceCheck
// downstream. Batched consumers implement BatchSender instead.
// Implementations report send errors so delivery's retry policy can apply.
type Sender interface {
	Send(check status.ServiceCheck) error
}

// BatchSender is implemented by batched-mode consumers.
type BatchSender interface {
	SendBatch(checks []status.ServiceCheck) error
}

// PullServer is implemented by pull-mode consumers (HTTP/TCP status
// servers): they are started and stopped by the lifecycle controller but
// never receive pushed items directly; they read the result store.
type PullServer interface {
	Start() error
	Stop() error
}

// Consumer is what a registered consumer factory returns. Exactly one of
// Sender/BatchSender/PullServer is populated, matching Mode.
type Consumer struct {
	Name   string
	Mode   Mode
	Sender Sender
	Batch  BatchSender
	Server PullServer
}

// ConsumerFactory builds a Consumer from its consumer-block configuration.
type ConsumerFactory func(cfg map[string]any) (*Consumer, error)

// ConsumerRegistry is the process-wide table of known consumer factories.
type ConsumerRegistry struct {
	mu        sync.RWMutex
	consumers map[string]ConsumerFactory
}

// NewConsumerRegistry creates an empty consumer registry.
func NewConsumerRegistry() *ConsumerRegistry {
	return &ConsumerRegistry{consumers: make(map[string]ConsumerFactory)}
}

// Register adds a consumer factory. Fails if name is already present.
func (r *ConsumerRegistry) Register(name string, factory ConsumerFactory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("registry: invalid consumer registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.consumers[name]; exists {
		return fmt.Errorf("registry: consumer %q already registered", name)
	}
	r.consumers[name] = factory
	return nil
}

// Create instantiates a consumer by name.
func (r *ConsumerRegistry) Create(name string, cfg map[string]any) (*Consumer, error) {
	r.mu.RLock()
	factory, ok := r.consumers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown consumer %q", name)
	}
	return factory(cfg)
}

// Get reports whether a consumer factory is registered, without creating it.
func (r *ConsumerRegistry) Get(name string) (ConsumerFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.consumers[name]
	return f, ok
}

// List returns registered consumer names in stable alphabetical order.
func (r *ConsumerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.consumers))
	for name := range r.consumers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
