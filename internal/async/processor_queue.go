package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/ingest"
	"github.com/joseph-ayodele/health-reports/internal/ocr"
	"github.com/joseph-ayodele/health-reports/internal/pipeline"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one file waiting to be analyzed. TraceID becomes the run's request id.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// Queue accepts jobs until Shutdown.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// DocumentProcessor is satisfied by *pipeline.Processor.
type DocumentProcessor interface {
	Process(ctx context.Context, doc entity.Document, rc pipeline.RunConfig) (*entity.Report, error)
}

type ProcessorQueue struct {
	proc       DocumentProcessor
	credential func() string
	logger     *slog.Logger
	workers    int
	timeout    time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewProcessorQueue starts the workers. credential is read per job so a
// rotated key takes effect without a restart. One worker by default: runs
// are not meant to overlap.
func NewProcessorQueue(proc DocumentProcessor, credential func() string, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	if credential == nil {
		credential = func() string { return "" }
	}
	q := &ProcessorQueue{
		proc:       proc,
		credential: credential,
		logger:     logger,
		workers:    1,
		timeout:    5 * time.Minute,
		ch:         make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithRequestID(ctx, job.TraceID)

	doc, err := ingest.LoadDocument(job.Path)
	if err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "stage", "load", "error", err)
		return
	}

	r, err := q.proc.Process(ctx, doc, pipeline.RunConfig{
		Credential: q.credential(),
		Observer:   ocr.LogObserver{Logger: q.logger.With("path", job.Path)},
	})
	if err != nil {
		q.logger.Error("processing failed",
			"worker_id", workerID,
			"path", job.Path,
			"code", common.ErrorCode(err),
			"error", err,
		)
		return
	}
	q.logger.Info("processed file successfully",
		"worker_id", workerID,
		"path", job.Path,
		"report_id", r.ID,
		"metrics", len(r.Metrics),
		"queued_ms", time.Since(job.SubmittedAt).Milliseconds(),
	)
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path, "trace_id", job.TraceID)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
