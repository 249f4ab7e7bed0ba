// Package service wires the classifier, job queue, worker pool, dedupe
// cache and result store behind the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/dzhang123/DynaCard/internal/adapters/mq/queue"
	workerpool "github.com/dzhang123/DynaCard/internal/adapters/mq/worker"
	"github.com/dzhang123/DynaCard/internal/adapters/repository"
	"github.com/dzhang123/DynaCard/internal/domain/dedupe"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
	"github.com/dzhang123/DynaCard/pkg/logger"
	"github.com/dzhang123/DynaCard/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize       = 10000
	defaultDedupeSize      = 50000
	defaultMaxHistoryLimit = 500
	stopTimeout            = 30 * time.Second
)

// Ack reports what happened to a submitted card.
type Ack struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Ack statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// Service implements the API dependencies for the classification system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobQueue   *jobqueue.InMemoryQueue
	classifier *shape.Classifier
	workerPool *workerpool.Pool

	// Configuration
	workerCount         int
	queueSize           int
	dedupeSize          int
	minAcceptableWeight float64
	maxHistoryLimit     int
	now                 func() time.Time

	// State. A service runs once: Stop closes the store for good.
	started   bool
	stopped   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of cards waiting for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMinAcceptableWeight sets the peak load below which a card is a flowing well.
func WithMinAcceptableWeight(w float64) Option {
	return func(s *Service) {
		if w >= 0 {
			s.minAcceptableWeight = w
		}
	}
}

// WithMaxHistoryLimit caps the number of results one history query returns.
func WithMaxHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistoryLimit = n
		}
	}
}

// WithStore sets the result store. The service closes it on Stop.
// Without it an in-memory store is used.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source for submission and classification stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         runtime.NumCPU() * 2,
		queueSize:           defaultQueueSize,
		dedupeSize:          defaultDedupeSize,
		minAcceptableWeight: shape.DefaultMinAcceptableWeight,
		maxHistoryLimit:     defaultMaxHistoryLimit,
		now:                 time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.classifier = shape.New(shape.WithMinAcceptableWeight(s.minAcceptableWeight))
	return s
}

// Start initializes and starts the service components. A stopped service
// cannot be started again and returns ErrStopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting classification service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory result store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.store,
		workerpool.WithClock(s.now))
	// Workers outlive the request that started the service.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "classification service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Float64("minAcceptableWeight", s.minAcceptableWeight),
	)

	return nil
}

// Stop drains the queue, stops the workers and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping classification service...")

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error
	if err := s.workerPool.Shutdown(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("result store: %w", err))
	}

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "classification service stopped")
	return errors.Join(errs...)
}

// ClassifyJob labels the samples of j, honouring its threshold override.
// It is the classifier the worker pool runs.
func (s *Service) ClassifyJob(j model.Job) (shape.Outcome, error) { //nolint:gocritic // hugeParam: Job is passed by value like the queue
	c := s.classifier
	if j.MinAcceptableWeight != nil {
		c = shape.New(shape.WithMinAcceptableWeight(*j.MinAcceptableWeight))
	}
	return c.Classify(j.Samples)
}

// Classify labels a card synchronously. The returned result is never
// stored; when classification fails it carries the error code and the
// error is returned too.
func (s *Service) Classify(ctx context.Context, j model.Job) (model.Result, error) { //nolint:gocritic // hugeParam: Job is passed by value like the queue
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := s.now()
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = now
	}

	start := time.Now()
	out, err := s.ClassifyJob(j)
	metrics.RecordClassificationLatency(float64(time.Since(start).Microseconds()) / 1000)

	result := model.NewResult(j, out, err, now)
	if err != nil {
		metrics.RecordClassificationError(result.ErrorCode)
		s.log().Debug(ctx, "card not classified",
			logger.String("well_id", j.Header.WellID),
			logger.String("code", result.ErrorCode),
			logger.Error(err),
		)
		return result, err
	}
	metrics.RecordClassification(out.Label.String())
	return result, nil
}

// Submit queues a card for asynchronous classification. A card without
// an id gets a fresh one; an id seen before is acknowledged as duplicate
// without queueing. When the queue is full the id is forgotten again so
// the caller can retry.
func (s *Service) Submit(ctx context.Context, j model.Job) (Ack, error) { //nolint:gocritic // hugeParam: Job is passed by value like the queue
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Ack{}, ErrNotStarted
	}

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = s.now()
	}

	if s.deduper.SeenAndRecord(ctx, j.ID) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate card submission", logger.String("id", j.ID))
		return Ack{ID: j.ID, Status: StatusDuplicate, Duplicate: true}, nil
	}

	if err := s.jobQueue.Enqueue(ctx, j); err != nil {
		s.deduper.Unrecord(ctx, j.ID)
		if errors.Is(err, jobqueue.ErrFull) {
			return Ack{}, fmt.Errorf("card %s: %w", j.ID, ErrQueueFull)
		}
		return Ack{}, fmt.Errorf("enqueue card %s: %w", j.ID, err)
	}

	s.logger.Debug(ctx, "card queued",
		logger.String("id", j.ID),
		logger.String("well_id", j.Header.WellID),
		logger.Int("samples", len(j.Samples)),
	)
	return Ack{ID: j.ID, Status: StatusAccepted}, nil
}

// Result returns the stored result for id.
func (s *Service) Result(ctx context.Context, id string) (model.Result, error) {
	store, err := s.resultStore()
	if err != nil {
		return model.Result{}, err
	}
	return store.Get(ctx, id)
}

// History returns up to limit results for a well, newest first.
func (s *Service) History(ctx context.Context, wellID string, limit int) ([]model.Result, error) {
	if limit < 1 || limit > s.maxHistoryLimit {
		return nil, fmt.Errorf("limit %d not in [1, %d]: %w", limit, s.maxHistoryLimit, ErrInvalidLimit)
	}
	store, err := s.resultStore()
	if err != nil {
		return nil, err
	}
	return store.ListByWell(ctx, wellID, limit)
}

// MaxHistoryLimit returns the largest accepted history limit.
func (s *Service) MaxHistoryLimit() int { return s.maxHistoryLimit }

func (s *Service) resultStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":             s.started,
		"workerCount":         s.workerCount,
		"queueSize":           s.queueSize,
		"dedupeSize":          s.dedupeSize,
		"minAcceptableWeight": s.minAcceptableWeight,
		"maxHistoryLimit":     s.maxHistoryLimit,
	}

	if s.started {
		queueLen := s.jobQueue.Len()
		pool := s.workerPool.Stats()
		stats["queueLength"] = queueLen
		stats["processed"] = pool.Processed
		stats["failed"] = pool.Failed
		stats["activeWorkers"] = pool.Active
		stats["dedupeEntries"] = s.deduper.Size()
		stats["uptimeSeconds"] = s.now().Sub(s.startedAt).Seconds()
		if n, err := s.store.Count(context.Background()); err == nil {
			stats["storedResults"] = n
			metrics.UpdateStoredResults(n)
		}
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
