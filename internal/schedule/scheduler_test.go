package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/trace"
)

type countingJob struct {
	name    string
	runs    atomic.Int32
	block   chan struct{}
	err     error
	traceID atomic.Value
}

func (j *countingJob) Name() string {
	if j.name == "" {
		return "counting"
	}
	return j.name
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if id, ok := trace.GetTraceId(ctx); ok {
		j.traceID.Store(id)
	}
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func addEntry(t *testing.T, s *CronScheduler, job Job) *entry {
	t.Helper()
	require.NoError(t, s.AddJob(job, "@every 1h"))
	return s.entries[job.Name()]
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&countingJob{}, "not a cron line"))
	require.Empty(t, s.Entries())
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&countingJob{}, "@every 1h"))
	require.Error(t, s.AddJob(&countingJob{}, "@every 1h"))
}

func TestEntryRunSkipsOverlap(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{block: make(chan struct{})}
	e := addEntry(t, s, job)

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	e.Run()
	require.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	<-done
	job.block = nil
	e.Run()
	require.Equal(t, int32(2), job.runs.Load())
}

func TestEntryRunRecordsStatus(t *testing.T) {
	s := NewCronScheduler()
	boom := errors.New("boom")
	job := &countingJob{name: "index_regenerate", err: boom}
	e := addEntry(t, s, job)
	e.Run()

	statuses := s.Entries()
	require.Len(t, statuses, 1)
	require.Equal(t, "index_regenerate", statuses[0].Name)
	require.Equal(t, "@every 1h", statuses[0].Spec)
	require.ErrorIs(t, statuses[0].LastErr, boom)
	require.False(t, statuses[0].LastRun.IsZero())

	id, _ := job.traceID.Load().(string)
	require.Contains(t, id, "cron-")
}

func TestStartStop(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{}
	require.NoError(t, s.AddJob(job, "@every 1s"))
	s.Start(context.Background())
	require.False(t, s.Entries()[0].Next.IsZero())
	require.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	s.Stop()
}
