// Package worker applies queued load records to the leaderboard.
//
// A single worker owns every write coming from a load, so records are applied
// in the order they were read.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/okian/rankboard/internal/adapters/mq/queue"
	"github.com/okian/rankboard/pkg/logger"
	"github.com/okian/rankboard/pkg/metrics"
)

// Record abstracts what workers read off the queue.
type Record = queue.Record

// Updater writes a player's score.
type Updater interface {
	Upsert(ctx context.Context, name string, score float64) (bool, error)
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Record
}

// Worker processes records and writes them using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// Stats counts what a worker did with the records it received.
type Stats struct {
	Applied int64 // records written, inserts and updates
	Created int64 // records that introduced a new player
	Failed  int64 // records the updater rejected
}

// InMemoryWorker implements Worker over an in-process queue.
type InMemoryWorker struct {
	queue   Queue
	updater Updater
	name    string

	applied atomic.Int64
	created atomic.Int64
	failed  atomic.Int64

	errMu sync.Mutex
	errs  *multierror.Error

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop. It returns when the queue is closed and drained,
// when ctx is canceled, or after Shutdown.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := w.process(ctx, rec); err != nil {
				w.logger.Warn(ctx, "record rejected", logger.Int("line", rec.Line), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the loop without draining and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Stats returns the counters accumulated so far.
func (w *InMemoryWorker) Stats() Stats {
	return Stats{
		Applied: w.applied.Load(),
		Created: w.created.Load(),
		Failed:  w.failed.Load(),
	}
}

// Err returns every rejected record's error, or nil.
func (w *InMemoryWorker) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.errs.ErrorOrNil()
}

func (w *InMemoryWorker) process(ctx context.Context, rec Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()))
	}()

	created, err := w.updater.Upsert(ctx, rec.Name, rec.Score)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "upsert_error")

		err = fmt.Errorf("line %d: %w", rec.Line, err)
		w.errMu.Lock()
		w.errs = multierror.Append(w.errs, err)
		w.errMu.Unlock()
		return err
	}

	w.applied.Add(1)
	if created {
		w.created.Add(1)
	}
	metrics.RecordWorkerProcessed()
	return nil
}
