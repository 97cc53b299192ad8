package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is a queued background task. Payload travels with the job in memory only.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error schedules a retry.
type Handler func(context.Context, Job) error

// ExhaustedFunc is called once a job has failed MaxRetries+1 times.
type ExhaustedFunc func(context.Context, Job, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	OnExhaust  ExhaustedFunc
	Logger     *zap.Logger
}

// Stats are running counters of a queue.
type Stats struct {
	Enqueued  uint64 `json:"enqueued"`
	Succeeded uint64 `json:"succeeded"`
	Retried   uint64 `json:"retried"`
	Exhausted uint64 `json:"exhausted"`
	Pending   int    `json:"pending"`
}

// Queue is an in-memory job dispatcher backed by a goroutine pool.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	onExhaust  ExhaustedFunc
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	enqueued  uint64
	succeeded uint64
	retried   uint64
	exhausted uint64
}

// NewQueue builds a queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		onExhaust:  cfg.OnExhaust,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Start begins worker consumption. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for in-flight jobs to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue pushes a job onto the queue, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, err)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		atomic.AddUint64(&q.enqueued, 1)
		return nil
	}
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  atomic.LoadUint64(&q.enqueued),
		Succeeded: atomic.LoadUint64(&q.succeeded),
		Retried:   atomic.LoadUint64(&q.retried),
		Exhausted: atomic.LoadUint64(&q.exhausted),
		Pending:   len(q.jobs),
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(job, err)
				continue
			}
			atomic.AddUint64(&q.succeeded, 1)
		}
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}
	if job.Attempt >= q.maxRetries {
		atomic.AddUint64(&q.exhausted, 1)
		q.logger.Error("job exceeded retries", fields...)
		if q.onExhaust != nil {
			q.onExhaust(q.ctx, job, err)
		}
		return
	}
	atomic.AddUint64(&q.retried, 1)
	q.logger.Warn("job failed, retrying", fields...)

	job.Attempt++
	go func(j Job) {
		timer := time.NewTimer(q.retryDelay * time.Duration(j.Attempt))
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
