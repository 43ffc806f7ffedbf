package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appErrors "github.com/dlswn666/johapon-api/internal/errors"
	"github.com/dlswn666/johapon-api/internal/model"
)

// Processor is the job body. It returns the aggregated send result or the
// error that fails the job.
type Processor func(ctx context.Context, req *model.SendRequest) (*model.SendResult, error)

type Config struct {
	Concurrency int
	MaxSize     int
	JobTimeout  time.Duration
	Retention   time.Duration
	// CancelGrace is how long a worker keeps its slot after cancelling a
	// job body, waiting for the body to return.
	CancelGrace time.Duration
}

func DefaultConfig() Config {
	return Config{
		Concurrency: 5,
		MaxSize:     100,
		JobTimeout:  5 * time.Minute,
		Retention:   time.Hour,
		CancelGrace: 5 * time.Second,
	}
}

type Option func(*Queue)

// WithClock replaces time.Now for job timestamps and sweeping.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

type task struct {
	id  string
	req *model.SendRequest
}

type outcome struct {
	result *model.SendResult
	err    error
}

// Queue is a bounded in-memory job queue served by a fixed worker pool.
// Jobs are lost on restart.
type Queue struct {
	cfg     Config
	process Processor
	log     zerolog.Logger
	now     func() time.Time

	// mu guards jobs, the counters and closed. Every job mutation replaces
	// the stored value while holding it.
	mu      sync.RWMutex
	jobs    map[string]model.Job
	pending int
	running int
	closed  bool

	work    chan task
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func New(cfg Config, process Processor, log zerolog.Logger, opts ...Option) *Queue {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = def.CancelGrace
	}

	q := &Queue{
		cfg:     cfg,
		process: process,
		log:     log,
		now:     time.Now,
		jobs:    make(map[string]model.Job),
		work:    make(chan task, cfg.MaxSize),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the workers. Cancelling ctx aborts running jobs.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.baseCtx, q.cancel = context.WithCancel(ctx)

	for i := 0; i < q.cfg.Concurrency; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.log.Info().Int("concurrency", q.cfg.Concurrency).Int("max_size", q.cfg.MaxSize).Msg("job queue started")
}

// Stop refuses new jobs and waits for queued ones to finish. When ctx
// expires first, running jobs are cancelled and left pending jobs fail.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.work)
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.log.Info().Msg("job queue drained")
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

// Enqueue admits a request. A full queue rejects it with ErrQueueFull and
// records nothing.
func (q *Queue) Enqueue(req *model.SendRequest) (model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return model.Job{}, appErrors.ErrQueueClosed
	}
	if q.pending+q.running >= q.cfg.MaxSize {
		q.log.Warn().Int("pending", q.pending).Int("running", q.running).Msg("queue full, job rejected")
		return model.Job{}, appErrors.ErrQueueFull
	}

	job := model.Job{
		ID:             uuid.NewString(),
		TenantID:       req.TenantID,
		SenderID:       req.SenderID,
		TemplateCode:   req.TemplateCode,
		RecipientCount: len(req.Recipients),
		Status:         model.JobPending,
		CreatedAt:      q.now(),
	}
	q.jobs[job.ID] = job
	q.pending++
	// buffered to MaxSize and pending < MaxSize here, so this never blocks
	q.work <- task{id: job.ID, req: req}

	q.log.Info().Str("job", job.ID).Int("recipients", job.RecipientCount).Msg("job queued")
	return job, nil
}

// Status returns a deep copy of the job record.
func (q *Queue) Status(id string) (model.Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[id]
	if !ok {
		return model.Job{}, appErrors.NewJobNotFound(id)
	}
	return job.Clone(), nil
}

func (q *Queue) QueueStatus() model.QueueStatus {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return model.QueueStatus{
		Pending:     q.pending,
		Running:     q.running,
		Concurrency: q.cfg.Concurrency,
		MaxSize:     q.cfg.MaxSize,
		IsFull:      q.pending+q.running >= q.cfg.MaxSize,
	}
}

// Sweep drops finished jobs older than the retention window and reports
// how many were removed.
func (q *Queue) Sweep() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-q.cfg.Retention)
	removed := 0
	for id, job := range q.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(q.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		q.log.Info().Int("removed", removed).Int("remaining", len(q.jobs)).Msg("finished jobs swept")
	}
	return removed
}

func (q *Queue) worker(n int) {
	defer q.wg.Done()
	for t := range q.work {
		if q.baseCtx.Err() != nil {
			q.begin(t.id)
			q.finish(t.id, outcome{err: fmt.Errorf("job cancelled before start: %w", q.baseCtx.Err())})
			continue
		}
		q.run(n, t)
	}
}

func (q *Queue) run(n int, t task) {
	log := q.log.With().Str("job", t.id).Int("worker", n).Logger()
	q.begin(t.id)
	log.Info().Msg("job started")

	ctx, cancel := context.WithTimeout(q.baseCtx, q.cfg.JobTimeout)
	defer cancel()

	results := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- outcome{err: fmt.Errorf("job panicked: %v", r)}
			}
		}()
		res, err := q.process(ctx, t.req)
		results <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case out = <-results:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out = outcome{err: fmt.Errorf("%w after %s", appErrors.ErrJobTimeout, q.cfg.JobTimeout)}
		} else {
			out = outcome{err: fmt.Errorf("job cancelled: %w", ctx.Err())}
		}
		// hold the slot until the body returns so in-flight sends stay
		// within the concurrency bound; its result is dropped either way
		grace := time.NewTimer(q.cfg.CancelGrace)
		select {
		case <-results:
		case <-grace.C:
			log.Warn().Dur("grace", q.cfg.CancelGrace).Msg("job body still running after cancellation, releasing worker")
		}
		grace.Stop()
	}
	if out.err == nil && out.result == nil {
		out.err = errors.New("job produced no result")
	}

	q.finish(t.id, out)
	if out.err != nil {
		log.Error().Err(out.err).Msg("job failed")
		return
	}
	log.Info().
		Bool("success", out.result.Success).
		Int("kakao", out.result.KakaoSuccessCount).
		Int("fail", out.result.FailCount).
		Msg("job completed")
}

func (q *Queue) begin(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending--
	q.running++

	job, ok := q.jobs[id]
	if !ok || job.Status != model.JobPending {
		return
	}
	started := q.now()
	job.Status = model.JobProcessing
	job.StartedAt = &started
	q.jobs[id] = job
}

func (q *Queue) finish(id string, out outcome) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.running--

	job, ok := q.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	completed := q.now()
	job.CompletedAt = &completed
	if out.err != nil {
		job.Status = model.JobFailed
		job.Error = out.err.Error()
	} else {
		job.Status = model.JobCompleted
		job.Result = out.result.Clone()
	}
	q.jobs[id] = job
}
