package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
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

// CronScheduler runs jobs on five-field cron specs. A job whose previous run
// is still in progress is skipped.
type CronScheduler struct {
	cron *cron.Cron
	jobs map[string]*scheduledJob
	ctx  atomic.Pointer[context.Context]
}

type scheduledJob struct {
	job     Job
	spec    string
	running atomic.Bool
	owner   *CronScheduler
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]*scheduledJob),
	}
}

// AddJob registers job under spec. An empty spec or "-" leaves the job
// disabled. Names must be unique.
func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "-" {
		logger.Info("job disabled")
		return nil
	}
	sj := &scheduledJob{job: job, spec: spec, owner: c}
	if _, err := c.cron.AddJob(spec, sj); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	c.jobs[name] = sj
	logger.Info("job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx.Store(&ctx)
	c.cron.Start()
}

// RunNow runs a scheduled job synchronously and reports whether it exists.
func (c *CronScheduler) RunNow(name string) bool {
	sj, ok := c.jobs[name]
	if ok {
		sj.Run()
	}
	return ok
}

// Stop waits for running jobs to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) runContext() context.Context {
	if p := c.ctx.Load(); p != nil {
		return *p
	}
	return context.Background()
}

// Run satisfies cron.Job.
func (s *scheduledJob) Run() {
	ctx := s.owner.runContext()
	logger := logutil.GetLogger(ctx).With(zap.String("job", s.job.Name()), zap.String("spec", s.spec))
	if !s.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	err := s.job.Run(ctx)
	if err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("job finished", zap.Duration("duration", time.Since(start)))
}
