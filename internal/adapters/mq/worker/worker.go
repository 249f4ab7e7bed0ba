// Package worker runs asynchronous card classification off the job queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
	"github.com/dzhang123/DynaCard/pkg/logger"
	"github.com/dzhang123/DynaCard/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU(); classification is CPU bound
	poolShutdownTimeout     = 30 * time.Second
)

// Classifier labels the samples of a job.
type Classifier interface {
	ClassifyJob(j model.Job) (shape.Outcome, error)
}

// Store persists classification results.
type Store interface {
	Save(ctx context.Context, r model.Result) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Job
}

// Worker processes jobs and stores their results.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue      Queue
	classifier Classifier
	store      Store
	name       string
	now        func() time.Time

	// Shutdown control
	shutdown chan struct{}
	stopOnce atomic.Bool
	done     chan struct{}

	counters *counters
	logger   logger.Logger
}

// counters are shared by every worker of a pool.
type counters struct {
	processed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, classifier Classifier, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		classifier: classifier,
		store:      store,
		name:       "worker",
		now:        time.Now,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		counters:   &counters{},
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// Released on every exit path so the queue stops forwarding to us.
	dequeueCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobs := w.queue.Dequeue(dequeueCtx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) signal() {
	if w.stopOnce.CompareAndSwap(false, true) {
		close(w.shutdown)
	}
}

// process classifies one job and stores its result. A card that cannot be
// classified still produces a stored result carrying the error code; only
// a failed store write is returned as an error.
func (w *InMemoryWorker) process(ctx context.Context, job model.Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.UpdateWorkerActiveCount(int(w.counters.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.counters.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	out, err := w.classifier.ClassifyJob(job)
	metrics.RecordClassificationLatency(float64(time.Since(start).Microseconds()) / 1000)

	result := model.NewResult(job, out, err, w.now())
	if err != nil {
		metrics.RecordClassificationError(result.ErrorCode)
		w.counters.failed.Add(1)
		w.logger.Warn(ctx, "card not classified",
			logger.String("job_id", job.ID),
			logger.String("well_id", job.Header.WellID),
			logger.String("code", result.ErrorCode),
			logger.Error(err),
		)
	} else {
		metrics.RecordClassification(out.Label.String())
		w.logger.Debug(ctx, "card classified",
			logger.String("job_id", job.ID),
			logger.String("label", out.Label.String()),
		)
	}

	if err := w.store.Save(ctx, result); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_failed")
		return fmt.Errorf("store result %s: %w", job.ID, err)
	}
	w.counters.processed.Add(1)
	return nil
}

// Stats are the cumulative counts of a pool.
type Stats struct {
	Workers   int   `json:"workers"`
	Active    int64 `json:"active"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *counters
	logger   logger.Logger
}

// NewPool creates a new worker pool. A count below one picks a default
// from the number of CPUs.
func NewPool(workerCount int, queue Queue, classifier Classifier, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		counters: &counters{},
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(queue, classifier, store,
			append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)...)
		w.counters = pool.counters
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats returns the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   len(p.workers),
		Active:    p.counters.active.Load(),
		Processed: p.counters.processed.Load(),
		Failed:    p.counters.failed.Load(),
	}
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx (capped at 30s) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			w.signal()
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not drain: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
