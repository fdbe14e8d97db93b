package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/todo-app/internal/queue"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultActivityCapacity is the number of recent entries kept when no capacity is given
const DefaultActivityCapacity = 100

// ErrDeliveriesClosed is returned by Run when the broker stops delivering
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// ActivityEntry is one processed change
type ActivityEntry struct {
	EventID    string
	Type       queue.EventType
	TodoID     int64
	Title      string
	OccurredAt time.Time
	Lag        time.Duration
}

// ActivityRecorder keeps a bounded feed of recent todo changes and per-type counts
type ActivityRecorder struct {
	logger   *zap.Logger
	capacity int

	mu     sync.Mutex
	recent []ActivityEntry
	counts map[queue.EventType]int

	processed *prometheus.CounterVec
	lag       prometheus.Histogram
}

// NewActivityRecorder creates a recorder. reg may be nil.
func NewActivityRecorder(logger *zap.Logger, reg prometheus.Registerer, capacity int) (*ActivityRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = DefaultActivityCapacity
	}

	a := &ActivityRecorder{
		logger:   logger,
		capacity: capacity,
		counts:   make(map[queue.EventType]int),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_events_processed_total",
			Help: "Todo change events processed by the activity worker",
		}, []string{"type"}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "todo_event_lag_seconds",
			Help:    "Delay between a todo change and its processing",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{a.processed, a.lag} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register activity metrics: %w", err)
			}
		}
	}
	return a, nil
}

// ProcessEvent records one event
func (a *ActivityRecorder) ProcessEvent(ctx context.Context, event *queue.Event) error {
	if event == nil {
		return errors.New("nil event")
	}

	entry := ActivityEntry{
		EventID:    event.ID.String(),
		Type:       event.Type,
		TodoID:     event.TodoID,
		OccurredAt: event.OccurredAt,
	}
	if event.Todo != nil {
		entry.Title = event.Todo.Title
	}
	if !event.OccurredAt.IsZero() {
		entry.Lag = time.Since(event.OccurredAt)
	}

	a.mu.Lock()
	a.counts[event.Type]++
	a.recent = append(a.recent, entry)
	if len(a.recent) > a.capacity {
		a.recent = a.recent[len(a.recent)-a.capacity:]
	}
	a.mu.Unlock()

	a.processed.WithLabelValues(string(event.Type)).Inc()
	if entry.Lag > 0 {
		a.lag.Observe(entry.Lag.Seconds())
	}

	a.logger.Info("todo_activity",
		zap.String("event_id", entry.EventID),
		zap.String("event_type", string(entry.Type)),
		zap.Int64("todo_id", entry.TodoID),
		zap.String("request_id", event.RequestID),
		zap.Duration("lag", entry.Lag),
	)
	return nil
}

// Run settles deliveries until ctx is done. It returns ErrDeliveriesClosed if the
// broker closes the stream first.
func (a *ActivityRecorder) Run(ctx context.Context, deliveries <-chan *queue.Delivery, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Error("queue_error", zap.Error(err))
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}

			if err := a.ProcessEvent(ctx, d.Event); err != nil {
				a.logger.Error("failed_to_process_event", zap.Error(err))
				if nackErr := d.Nack(false); nackErr != nil {
					a.logger.Warn("failed_to_nack_event", zap.Error(nackErr))
				}
				continue
			}
			if err := d.Ack(); err != nil {
				a.logger.Warn("failed_to_ack_event", zap.Error(err))
			}
		}
	}
}

// Recent returns the newest entries, oldest first
func (a *ActivityRecorder) Recent() []ActivityEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ActivityEntry, len(a.recent))
	copy(out, a.recent)
	return out
}

// Counts returns the number of events processed per type
func (a *ActivityRecorder) Counts() map[queue.EventType]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[queue.EventType]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}
