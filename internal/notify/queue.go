// Package notify presents desktop notifications through a bounded FIFO
// drained by a single consumer with a fixed pause between presentations.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

// Queue limits.
const (
	DefaultCapacity = 10
	MinCapacity     = 1
	MaxCapacity     = 50
	DefaultDelay    = 500 * time.Millisecond
)

// Stats is a snapshot of the queue.
type Stats struct {
	Supported    bool `json:"supported"`
	QueueSize    int  `json:"queueSize"`
	MaxQueueSize int  `json:"maxQueueSize"`
	IsProcessing bool `json:"isProcessing"`
}

// Queue holds pending notifications. Run is the only consumer.
type Queue struct {
	notifier host.Notifier
	delay    time.Duration
	log      logging.Logger
	wake     chan struct{}

	mu       sync.Mutex
	pending  []host.Notification
	capacity int
	draining bool
}

// NewQueue returns a queue presenting through notifier. Non-positive
// capacity or negative delay select the defaults.
func NewQueue(notifier host.Notifier, capacity int, delay time.Duration, log logging.Logger) *Queue {
	if log == nil {
		log = logging.Discard()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Queue{
		notifier: notifier,
		delay:    delay,
		log:      log,
		wake:     make(chan struct{}, 1),
		capacity: clamp(capacity),
	}
}

// Enqueue appends n, evicting the oldest pending entry when full. Support
// is checked before anything is queued.
func (q *Queue) Enqueue(n host.Notification) error {
	if !q.notifier.Supported() {
		return host.ErrNotificationsUnsupported
	}
	q.mu.Lock()
	if len(q.pending) >= q.capacity {
		dropped := q.pending[0]
		q.pending = q.pending[1:]
		q.log.Debug("notification evicted", "title", dropped.Title)
	}
	q.pending = append(q.pending, n)
	q.mu.Unlock()
	q.signal()
	return nil
}

// EnqueueBatch appends as many of ns as fit without evicting anything and
// returns how many were queued.
func (q *Queue) EnqueueBatch(ns []host.Notification) (int, error) {
	if !q.notifier.Supported() {
		return 0, host.ErrNotificationsUnsupported
	}
	q.mu.Lock()
	added := 0
	for _, n := range ns {
		if len(q.pending) >= q.capacity {
			break
		}
		q.pending = append(q.pending, n)
		added++
	}
	q.mu.Unlock()
	if added > 0 {
		q.signal()
	}
	return added, nil
}

// Clear drops every pending notification.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
	q.log.Info("notification queue cleared")
}

// SetCapacity changes the capacity, clamped to [MinCapacity, MaxCapacity].
// Pending entries beyond the new capacity are dropped from the back.
func (q *Queue) SetCapacity(n int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.capacity = clamp(n)
	if len(q.pending) > q.capacity {
		q.pending = q.pending[:q.capacity]
	}
	q.log.Info("notification queue capacity set", "capacity", q.capacity)
	return q.capacity
}

// Stats reports the queue state.
func (q *Queue) Stats() Stats {
	supported := q.notifier.Supported()
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Supported:    supported,
		QueueSize:    len(q.pending),
		MaxQueueSize: q.capacity,
		IsProcessing: q.draining,
	}
}

// Run drains the queue until ctx is done. Pending entries are dropped on
// exit.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
		if !q.drain(ctx) {
			return
		}
	}
}

// drain presents entries until the queue is empty. It reports false when
// ctx ended first.
func (q *Queue) drain(ctx context.Context) bool {
	for {
		n, ok := q.pop()
		if !ok {
			return true
		}
		if err := q.notifier.Show(n); err != nil {
			q.log.Error("present notification failed", "title", n.Title, "error", err.Error())
		} else {
			q.log.Debug("notification presented", "title", n.Title)
		}
		if q.delay > 0 {
			t := time.NewTimer(q.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				q.stopDraining()
				return false
			case <-t.C:
			}
		}
	}
}

func (q *Queue) pop() (host.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		q.draining = false
		return host.Notification{}, false
	}
	q.draining = true
	n := q.pending[0]
	q.pending = q.pending[1:]
	return n, true
}

func (q *Queue) stopDraining() {
	q.mu.Lock()
	q.draining = false
	q.mu.Unlock()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func clamp(n int) int {
	if n < MinCapacity {
		return MinCapacity
	}
	if n > MaxCapacity {
		return MaxCapacity
	}
	return n
}
