package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func TestInterval_Next(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 17, 30, 0, time.UTC)

	assert.Equal(t, base.Add(time.Hour), Every(time.Hour).Next(base))
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), Interval{Every: time.Hour, Align: true}.Next(base))
	assert.True(t, Every(0).Next(base).IsZero())
	assert.Equal(t, "@every 1h0m0s", Every(time.Hour).String())
}

func TestScheduler_Register(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, Every(time.Minute)))
	assert.ErrorIs(t, s.Register(job, Every(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, Every(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)
	assert.ErrorIs(t, s.SetEnabled("missing", false), ErrJobNotFound)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "@every 1m0s", infos[0].Schedule)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := New(Config{Tick: 5 * time.Millisecond})
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, Every(10*time.Millisecond)))

	var completed atomic.Int32
	s.OnJobComplete(func(r JobResult) {
		assert.Equal(t, "tick", r.JobName)
		assert.True(t, r.Success)
		completed.Add(1)
	})

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.Eventually(t, func() bool { return completed.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_DisabledJobDoesNotRun(t *testing.T) {
	s := New(Config{Tick: 5 * time.Millisecond})
	job := &countingJob{name: "off"}
	require.NoError(t, s.Register(job, Every(5*time.Millisecond)))
	require.NoError(t, s.SetEnabled("off", false))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, job.runs.Load())
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := New(Config{Tick: 2 * time.Millisecond})
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, Every(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobRunning)

	// Stop cancels the blocked run.
	require.NoError(t, s.Stop())
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(Config{})
	boom := errors.New("boom")
	require.NoError(t, s.Register(&countingJob{name: "manual", err: boom}, Every(time.Hour)))

	res, err := s.RunNow(context.Background(), "manual")
	assert.ErrorIs(t, err, boom)
	assert.True(t, res.Manual)
	assert.False(t, res.Success)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	info := s.ListJobs()[0]
	assert.Equal(t, int64(1), info.RunCount)
	assert.Equal(t, int64(1), info.FailCount)
	require.NotNil(t, info.LastResult)
}
