package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobType(t *testing.T) {
	for _, jt := range AllJobTypes() {
		got, err := ParseJobType(string(jt))
		require.NoError(t, err)
		assert.Equal(t, jt, got)
	}

	_, err := ParseJobType("usage_snapshot")
	assert.ErrorIs(t, err, ErrUnknownJobType)
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(JobStockSync, "otto", 2)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, "stock_sync otto", job.Name())
	assert.Equal(t, "order_import", NewJob(JobOrderImport, "", 0).Name())

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)
	assert.Zero(t, job.Duration())

	job.Fail(errors.New("otto: 503"))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "otto: 503", job.Error)
	assert.True(t, job.ShouldRetry())

	delay := job.ScheduleRetry(time.Minute)
	assert.Equal(t, time.Minute, delay)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.NextRetryAt)

	job.Start()
	assert.Empty(t, job.Error)
	job.Complete("pushed 120 items")
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.Nil(t, job.NextRetryAt)
	assert.False(t, job.ShouldRetry())
}

func TestJob_ShouldRetry_Exhausted(t *testing.T) {
	job := NewJob(JobPriceSync, "aboutyou", 1)
	job.Start()
	job.Fail(errors.New("x"))
	job.ScheduleRetry(time.Second)
	job.Start()
	job.Fail(errors.New("x"))

	assert.False(t, job.ShouldRetry())
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{time.Minute, 0, time.Minute},
		{time.Minute, 1, time.Minute},
		{time.Minute, 2, 2 * time.Minute},
		{time.Minute, 3, 4 * time.Minute},
		{time.Minute, 5, 16 * time.Minute},
		{time.Minute, 6, 30 * time.Minute},
		{time.Minute, 40, 30 * time.Minute},
		{time.Hour, 1, 30 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.base, tt.attempt), "base %s attempt %d", tt.base, tt.attempt)
	}
}
