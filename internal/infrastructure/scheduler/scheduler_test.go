package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	infraconfig "github.com/m13/backoffice/internal/infrastructure/config"
)

type memoryJobRepo struct {
	mu   sync.Mutex
	jobs map[string]catalog.Job
}

func (r *memoryJobRepo) Save(_ context.Context, job *catalog.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jobs == nil {
		r.jobs = map[string]catalog.Job{}
	}
	r.jobs[job.ID.String()] = *job
	return nil
}

func (r *memoryJobRepo) FindRecent(context.Context, int) ([]*catalog.Job, error) { return nil, nil }

func (r *memoryJobRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func (r *memoryJobRepo) all() []catalog.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	return out
}

type countingRecorder struct {
	ok, failed atomic.Int32
}

func (r *countingRecorder) RecordJob(_ context.Context, _ string, _ time.Duration, err error) {
	if err != nil {
		r.failed.Add(1)
		return
	}
	r.ok.Add(1)
}

func testConfig() Config {
	return Config{Workers: 2, QueueSize: 4, JobTimeout: time.Second, RetryAttempts: 2, RetryDelay: 10 * time.Millisecond}
}

func startScheduler(t *testing.T, cfg Config, opts ...Option) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	return s
}

func run(t *testing.T, s *Scheduler) {
	t.Helper()
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	broken := []func(*Config){
		func(c *Config) { c.Workers = 0 },
		func(c *Config) { c.QueueSize = 0 },
		func(c *Config) { c.JobTimeout = 0 },
		func(c *Config) { c.RetryAttempts = -1 },
		func(c *Config) { c.RetryDelay = 0 },
	}
	for _, mutate := range broken {
		cfg := testConfig()
		mutate(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	}

	cfg := testConfig()
	cfg.RetryAttempts, cfg.RetryDelay = 0, 0
	assert.NoError(t, cfg.Validate(), "no retries need no delay")
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(infraconfig.SchedulerConfig{
		MaxConcurrentJobs: 3, QueueSize: 100, JobTimeout: 30 * time.Minute, RetryAttempts: 3, RetryDelay: time.Minute,
	})
	assert.Equal(t, Config{Workers: 3, QueueSize: 100, JobTimeout: 30 * time.Minute, RetryAttempts: 3, RetryDelay: time.Minute}, cfg)
}

func TestScheduler_SubmitNotRunning(t *testing.T) {
	s := startScheduler(t, testConfig())
	s.Register(JobOrderImport, func(context.Context, *Job) (string, error) { return "", nil })

	_, err := s.Submit(JobOrderImport, "")
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_SubmitUnknownType(t *testing.T) {
	s := startScheduler(t, testConfig())
	run(t, s)

	_, err := s.Submit(JobFeedUpload, "zalando")
	assert.ErrorIs(t, err, ErrUnknownJobType)
	assert.False(t, s.Handles(JobFeedUpload))
}

func TestScheduler_RunsJobAndRecords(t *testing.T) {
	repo := &memoryJobRepo{}
	rec := &countingRecorder{}
	s := startScheduler(t, testConfig(), WithJobRepository(repo), WithRecorder(rec))
	var gotTarget atomic.Value
	s.Register(JobStockSync, func(_ context.Context, job *Job) (string, error) {
		gotTarget.Store(job.Target)
		return "pushed 3 items", nil
	})
	run(t, s)

	job, err := s.Submit(JobStockSync, "otto")
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)

	require.Eventually(t, func() bool { return len(s.History(0)) == 1 }, 2*time.Second, 5*time.Millisecond)
	done := s.History(0)[0]
	assert.Equal(t, job.ID, done.ID)
	assert.Equal(t, JobStatusSuccess, done.Status)
	assert.Equal(t, "pushed 3 items", done.Summary)
	assert.Equal(t, "otto", gotTarget.Load())
	assert.Empty(t, s.Active())
	assert.Equal(t, int32(1), rec.ok.Load())

	require.Eventually(t, func() bool {
		jobs := repo.all()
		return len(jobs) == 1 && jobs[0].End != nil
	}, time.Second, 5*time.Millisecond)
	record := repo.all()[0]
	assert.Equal(t, "scheduler stock_sync", record.Cmd)
	assert.Equal(t, "otto", record.Description)
	assert.True(t, record.Successful)
}

func TestScheduler_RejectsDuplicate(t *testing.T) {
	release := make(chan struct{})
	s := startScheduler(t, testConfig())
	s.Register(JobOrderImport, func(ctx context.Context, _ *Job) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "", nil
	})
	run(t, s)
	defer close(release)

	_, err := s.Submit(JobOrderImport, "aboutyou")
	require.NoError(t, err)
	_, err = s.Submit(JobOrderImport, "aboutyou")
	assert.ErrorIs(t, err, ErrJobInProgress)

	_, err = s.Submit(JobOrderImport, "otto")
	assert.NoError(t, err, "other targets are independent")
	assert.Len(t, s.Active(), 2)
}

func TestScheduler_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.Workers, cfg.QueueSize = 1, 1
	release := make(chan struct{})
	started := make(chan struct{}, 3)
	s := startScheduler(t, cfg)
	s.Register(JobStockSync, func(ctx context.Context, _ *Job) (string, error) {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "", nil
	})
	run(t, s)
	defer close(release)

	_, err := s.Submit(JobStockSync, "otto")
	require.NoError(t, err)
	<-started
	_, err = s.Submit(JobStockSync, "etsy")
	require.NoError(t, err)
	_, err = s.Submit(JobStockSync, "tiktok")
	assert.ErrorIs(t, err, ErrJobQueueFull)
}

func TestScheduler_RetriesWithBackoff(t *testing.T) {
	rec := &countingRecorder{}
	s := startScheduler(t, testConfig(), WithRecorder(rec))
	var calls atomic.Int32
	s.Register(JobPriceSync, func(context.Context, *Job) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("aboutyou: 502")
		}
		return "ok", nil
	})
	run(t, s)

	_, err := s.Submit(JobPriceSync, "aboutyou")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(s.History(0)) == 3 }, 2*time.Second, 5*time.Millisecond)
	hist := s.History(0)
	assert.Equal(t, JobStatusSuccess, hist[0].Status)
	assert.Equal(t, 2, hist[0].RetryCount)
	assert.Equal(t, JobStatusFailed, hist[1].Status)
	assert.Equal(t, "aboutyou: 502", hist[2].Error)
	assert.Equal(t, int32(2), rec.failed.Load())
	assert.Equal(t, int32(1), rec.ok.Load())
	assert.Len(t, s.History(1), 1)
}

func TestScheduler_GivesUpAfterRetries(t *testing.T) {
	cfg := testConfig()
	cfg.RetryAttempts = 1
	s := startScheduler(t, cfg)
	s.Register(JobFeedUpload, func(context.Context, *Job) (string, error) {
		return "", errors.New("zalando rejected feed")
	})
	run(t, s)

	_, err := s.Submit(JobFeedUpload, "zalando")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(s.History(0)) == 2 && len(s.Active()) == 0 }, 2*time.Second, 5*time.Millisecond)
	_, err = s.Submit(JobFeedUpload, "zalando")
	assert.NoError(t, err, "a finished job can be submitted again")
}

func TestScheduler_TimeoutAndPanic(t *testing.T) {
	cfg := testConfig()
	cfg.RetryAttempts, cfg.RetryDelay, cfg.JobTimeout = 0, 0, 20*time.Millisecond
	s := startScheduler(t, cfg)
	s.Register(JobReportImport, func(ctx context.Context, _ *Job) (string, error) {
		<-ctx.Done()
		return "", nil
	})
	s.Register(JobOrderImport, func(context.Context, *Job) (string, error) {
		panic("nil order")
	})
	run(t, s)

	_, err := s.Submit(JobReportImport, "")
	require.NoError(t, err)
	_, err = s.Submit(JobOrderImport, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(s.History(0)) == 2 }, 2*time.Second, 5*time.Millisecond)
	errs := map[JobType]string{}
	for _, j := range s.History(0) {
		assert.Equal(t, JobStatusFailed, j.Status)
		errs[j.Type] = j.Error
	}
	assert.Contains(t, errs[JobReportImport], "exceeded")
	assert.Contains(t, errs[JobOrderImport], "panicked")
}

func TestScheduler_HistoryIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 200
	s := startScheduler(t, cfg)
	s.Register(JobStockSync, func(context.Context, *Job) (string, error) { return "", nil })
	run(t, s)

	for i := 0; i < historySize+20; i++ {
		_, err := s.Submit(JobStockSync, string(rune('a'+i%26))+time.Duration(i).String())
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return len(s.Active()) == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, s.History(0), historySize)
}

func TestScheduler_StopDropsPendingRetry(t *testing.T) {
	cfg := testConfig()
	cfg.RetryDelay = time.Hour
	s := startScheduler(t, cfg)
	s.Register(JobStockSync, func(context.Context, *Job) (string, error) { return "", errors.New("down") })
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Submit(JobStockSync, "galaxus")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(s.History(0)) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, s.Active(), 1, "waiting for its retry")

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Empty(t, s.Active())
}
