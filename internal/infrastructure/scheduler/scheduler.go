// Package scheduler runs order imports, stock and price syncs, feed uploads and
// report imports on a bounded worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	infraconfig "github.com/m13/backoffice/internal/infrastructure/config"
	"github.com/m13/backoffice/internal/infrastructure/logger"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// historySize is the number of finished attempts kept in memory
const historySize = 100

// Handler does the work of one job type and returns a short summary
type Handler func(ctx context.Context, job *Job) (string, error)

// JobRecorder receives one observation per finished attempt
type JobRecorder interface {
	RecordJob(ctx context.Context, jobType string, duration time.Duration, err error)
}

// Config holds the worker pool settings
type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// ConfigFrom maps the application configuration
func ConfigFrom(cfg infraconfig.SchedulerConfig) Config {
	return Config{
		Workers:       cfg.MaxConcurrentJobs,
		QueueSize:     cfg.QueueSize,
		JobTimeout:    cfg.JobTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}
}

// Validate checks the settings
func (c Config) Validate() error {
	switch {
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	case c.JobTimeout <= 0:
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry attempts cannot be negative", ErrInvalidConfig)
	case c.RetryAttempts > 0 && c.RetryDelay <= 0:
		return fmt.Errorf("%w: retry delay must be positive", ErrInvalidConfig)
	}
	return nil
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithJobRepository writes a catalog.Job record for every attempt
func WithJobRepository(repo catalog.JobRepository) Option {
	return func(s *Scheduler) {
		s.jobRepo = repo
	}
}

// WithRecorder sets the metrics sink
func WithRecorder(r JobRecorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

// Scheduler runs jobs on a fixed number of workers
type Scheduler struct {
	config   Config
	logger   *zap.Logger
	jobRepo  catalog.JobRepository
	recorder JobRecorder

	handlers map[JobType]Handler
	queue    chan *Job
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
	active  map[string]*Job // queued, running or waiting for a retry
	retries map[*Job]*time.Timer
	history []Job
}

// NewScheduler creates a stopped scheduler
func NewScheduler(cfg Config, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		config:   cfg,
		logger:   logger.Named("scheduler"),
		handlers: make(map[JobType]Handler),
		queue:    make(chan *Job, cfg.QueueSize),
		active:   make(map[string]*Job),
		retries:  make(map[*Job]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register sets the handler of a job type. Call it before Start.
func (s *Scheduler) Register(t JobType, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[t] = h
}

// Handles reports whether t has a handler
func (s *Scheduler) Handles(t JobType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handlers[t]
	return ok
}

// Start launches the workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs, drops pending retries and waits for the workers
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	for job, timer := range s.retries {
		timer.Stop()
		delete(s.retries, job)
		delete(s.active, job.key())
	}
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit enqueues a job. target narrows it to one marketplace or feed.
func (s *Scheduler) Submit(t JobType, target string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSchedulerNotRunning
	}
	if _, ok := s.handlers[t]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, t)
	}
	job := NewJob(t, target, s.config.RetryAttempts)
	if _, busy := s.active[job.key()]; busy {
		return nil, fmt.Errorf("%w: %s", ErrJobInProgress, job.Name())
	}

	select {
	case s.queue <- job:
	default:
		return nil, ErrJobQueueFull
	}
	s.active[job.key()] = job
	s.logger.Debug("Job submitted", zap.String("job_id", job.ID.String()), zap.String("job", job.Name()))
	return snapshot(job), nil
}

// Active lists queued, running and retrying jobs
func (s *Scheduler) Active() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.active))
	for _, j := range s.active {
		out = append(out, *snapshot(j))
	}
	return out
}

// History returns up to limit finished attempts, newest first
func (s *Scheduler) History(limit int) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]Job, limit)
	copy(out, s.history[:limit])
	return out
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.process(ctx, job, id)
		}
	}
}

func (s *Scheduler) process(ctx context.Context, job *Job, workerID int) {
	s.mu.Lock()
	handler := s.handlers[job.Type]
	job.Start()
	s.mu.Unlock()

	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job", job.Name()),
		zap.Int("attempt", job.RetryCount+1),
	)
	ctx = logger.WithContext(ctx, log)
	if job.Target != "" {
		ctx, log = logger.WithMarketplace(ctx, log, job.Target)
	}
	log.Info("Job started")

	record := catalog.StartJob("scheduler "+string(job.Type), job.Target)
	s.saveRecord(ctx, record, log)

	summary, err := s.run(ctx, job, handler)

	record.Finish(err)
	s.saveRecord(context.WithoutCancel(ctx), record, log)

	s.mu.Lock()
	if err != nil {
		job.Fail(err)
	} else {
		job.Complete(summary)
	}
	duration := job.Duration()
	s.history = append([]Job{*snapshot(job)}, s.history...)
	if len(s.history) > historySize {
		s.history = s.history[:historySize]
	}
	retry := err != nil && s.running && job.ShouldRetry() && ctx.Err() == nil
	var delay time.Duration
	if retry {
		delay = job.ScheduleRetry(s.config.RetryDelay)
		s.retries[job] = time.AfterFunc(delay, func() { s.requeue(job) })
	} else {
		delete(s.active, job.key())
	}
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordJob(ctx, string(job.Type), duration, err)
	}
	switch {
	case err == nil:
		log.Info("Job finished", zap.String("summary", summary), zap.Duration("duration", duration))
	case retry:
		log.Warn("Job failed, retrying", zap.Error(err), zap.Duration("retry_in", delay))
	default:
		log.Error("Job failed", zap.Error(err))
	}
}

// run executes handler under the job timeout with profiler labels and a span
func (s *Scheduler) run(ctx context.Context, job *Job, handler Handler) (summary string, err error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	telemetry.WithJobLabels(jobCtx, string(job.Type), job.Target, func(ctx context.Context) {
		ctx, span := telemetry.StartSpan(ctx, "scheduler", string(job.Type),
			telemetry.AttrJobType.String(string(job.Type)),
			telemetry.AttrMarketplace.String(job.Target),
		)
		defer span.End()
		summary, err = handler(ctx, job)
		if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("job exceeded %s: %w", s.config.JobTimeout, ctx.Err())
		}
		telemetry.RecordError(span, err)
	})
	return summary, err
}

func (s *Scheduler) requeue(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.retries, job)
	if !s.running {
		delete(s.active, job.key())
		return
	}
	select {
	case s.queue <- job:
	default:
		delete(s.active, job.key())
		s.logger.Warn("Queue full, dropping retry", zap.String("job_id", job.ID.String()), zap.String("job", job.Name()))
	}
}

func (s *Scheduler) saveRecord(ctx context.Context, record *catalog.Job, log *zap.Logger) {
	if s.jobRepo == nil {
		return
	}
	if err := s.jobRepo.Save(ctx, record); err != nil {
		log.Warn("Failed to store job record", zap.Error(err))
	}
}

func snapshot(j *Job) *Job {
	c := *j
	return &c
}
