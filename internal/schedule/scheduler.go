package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/trace"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// EntryStatus is a snapshot of one scheduled job.
type EntryStatus struct {
	Name     string
	Spec     string
	Next     time.Time
	LastRun  time.Time
	LastErr  error
	Duration time.Duration
}

// CronScheduler accepts five-field specs and descriptors such as "@every 10m".
// Ticks that arrive while the previous run of the same job is in progress are dropped.
type CronScheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]*entry
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		ctx:     context.Background(),
		entries: make(map[string]*entry),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}
	e := &entry{owner: c, job: job, spec: spec}
	id, err := c.cron.AddJob(spec, e)
	if err != nil {
		return fmt.Errorf("schedule job %s (%q): %w", name, spec, err)
	}
	e.id = id
	c.entries[name] = e
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	c.cron.Start()
	for _, st := range c.Entries() {
		logutil.GetLogger(ctx).Info("job scheduled",
			zap.String("job", st.Name),
			zap.String("spec", st.Spec),
			zap.Time("next", st.Next),
		)
	}
}

// Stop waits for running jobs to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

// Entries reports every job sorted by name.
func (c *CronScheduler) Entries() []EntryStatus {
	c.mu.Lock()
	list := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		list = append(list, e)
	}
	c.mu.Unlock()

	out := make([]EntryStatus, 0, len(list))
	for _, e := range list {
		st := e.status()
		st.Next = c.cron.Entry(e.id).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *CronScheduler) baseContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

type entry struct {
	owner   *CronScheduler
	job     Job
	spec    string
	id      cron.EntryID
	running atomic.Bool

	mu       sync.Mutex
	lastRun  time.Time
	lastErr  error
	duration time.Duration
}

// Run implements cron.Job.
func (e *entry) Run() {
	ctx := trace.WithTraceId(e.owner.baseContext(), "cron-"+uuid.NewString())
	logger := logutil.GetLogger(ctx).With(zap.String("job", e.job.Name()))
	if !e.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return
	}
	defer e.running.Store(false)

	start := time.Now()
	err := e.job.Run(ctx)
	elapsed := time.Since(start)

	e.mu.Lock()
	e.lastRun, e.lastErr, e.duration = start, err, elapsed
	e.mu.Unlock()

	if err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("duration", elapsed))
		return
	}
	logger.Info("job done", zap.Duration("duration", elapsed))
}

func (e *entry) status() EntryStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EntryStatus{
		Name:     e.job.Name(),
		Spec:     e.spec,
		LastRun:  e.lastRun,
		LastErr:  e.lastErr,
		Duration: e.duration,
	}
}
