package ledger

import (
	"context"
	"sync/atomic"
	"time"

	"revenue_backend/internal/revenue/domain"
	"revenue_backend/platform/logger"
)

// Sink durably appends sealed cycle summaries. Sinks are write-only: nothing
// is read back into the counters.
type Sink interface {
	Name() string
	Append(ctx context.Context, summary domain.CycleSummary) error
}

const (
	defaultQueueSize   = 256
	defaultSinkTimeout = 10 * time.Second
)

// WriteBehind forwards sealed summaries to durable sinks off the cycle path.
// Enqueue never blocks; when the queue is full the summary is dropped.
type WriteBehind struct {
	queue   chan domain.CycleSummary
	sinks   []Sink
	log     *logger.Logger
	timeout time.Duration
	dropped atomic.Uint64
}

// NewWriteBehind creates a forwarder for sinks.
func NewWriteBehind(log *logger.Logger, queueSize int, sinks ...Sink) *WriteBehind {
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}
	return &WriteBehind{
		queue:   make(chan domain.CycleSummary, queueSize),
		sinks:   sinks,
		log:     log,
		timeout: defaultSinkTimeout,
	}
}

// Enabled reports whether any sink is configured.
func (w *WriteBehind) Enabled() bool {
	return w != nil && len(w.sinks) > 0
}

// Dropped returns how many summaries were discarded on a full queue.
func (w *WriteBehind) Dropped() uint64 {
	return w.dropped.Load()
}

// Enqueue schedules summary for persistence.
func (w *WriteBehind) Enqueue(summary domain.CycleSummary) bool {
	if !w.Enabled() {
		return false
	}
	select {
	case w.queue <- summary:
		return true
	default:
		w.dropped.Add(1)
		w.log.Warn("cycle ledger queue full, dropping summary", "cycle", summary.CycleNumber)
		return false
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (w *WriteBehind) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return nil
		case summary := <-w.queue:
			w.write(context.Background(), summary)
		}
	}
}

func (w *WriteBehind) flush() {
	for {
		select {
		case summary := <-w.queue:
			w.write(context.Background(), summary)
		default:
			return
		}
	}
}

func (w *WriteBehind) write(parent context.Context, summary domain.CycleSummary) {
	for _, sink := range w.sinks {
		ctx, cancel := context.WithTimeout(parent, w.timeout)
		err := sink.Append(ctx, summary)
		cancel()
		if err != nil {
			w.log.Error("cycle ledger append failed", "sink", sink.Name(), "cycle", summary.CycleNumber, "error", err)
		}
	}
}
