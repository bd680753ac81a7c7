package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/NicolasLM/sauna/status"
)

// Item is what flows through a push consumer's queue: either a produced
// result or the shutdown sentinel that tells the worker loop to exit.
type Item struct {
	Check    status.ServiceCheck
	Shutdown bool
}

// Queue is a per-consumer FIFO of Items. It is unbounded by default; set
// MaxSize > 0 to cap it, in which case Push drops the oldest queued item
// and reports it to onOverflow, matching spec's "overflow drops the oldest
// item for that consumer and logs a warning".
type Queue struct {
	mu         sync.Mutex
	items      []Item
	maxSize    int
	notify     chan struct{}
	onOverflow func(status.ServiceCheck)
}

// NewQueue creates a queue. maxSize <= 0 means unbounded.
func NewQueue(maxSize int, onOverflow func(status.ServiceCheck)) *Queue {
	return &Queue{
		maxSize:    maxSize,
		notify:     make(chan struct{}, 1),
		onOverflow: onOverflow,
	}
}

// Push enqueues item, dropping the oldest queued item first if the queue
// is at capacity.
func (q *Queue) Push(item Item) {
	q.mu.Lock()
	if q.maxSize > 0 && len(q.items) >= q.maxSize {
		dropped := q.items[0]
		q.items = q.items[1:]
		if q.onOverflow != nil && !dropped.Shutdown {
			q.onOverflow(dropped.Check)
		}
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop blocks until an item is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (Item, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
			continue
		case <-ctx.Done():
			return Item{}, false
		}
	}
}

// DrainUpTo removes and returns up to n queued items without blocking, used
// by batched mode to fill a buffer. n <= 0 drains everything queued.
func (q *Queue) DrainUpTo(n int) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || n > len(q.items) {
		n = len(q.items)
	}
	out := append([]Item(nil), q.items[:n]...)
	q.items = q.items[n:]
	return out
}

// WaitItem blocks until an item is pushed, timeout elapses, or ctx is
// done, reporting whether it woke because of a push. Used by batched mode
// to accumulate a buffer up to max_batch_delay without busy-polling.
func (q *Queue) WaitItem(ctx context.Context, timeout time.Duration) bool {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutCh = t.C
	}
	select {
	case <-q.notify:
		return true
	case <-timeoutCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// Len reports the number of items currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
