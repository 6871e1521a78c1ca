// Package scheduler runs the hub's periodic background jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the most recent run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobRun describes the latest run of a registered job
type JobRun struct {
	Name        string
	Schedule    string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	Runs        int
}

// Config holds scheduler configuration
type Config struct {
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{JobTimeout: 30 * time.Minute}
}

type registeredJob struct {
	job     Job
	entryID cron.EntryID
	run     JobRun
}

// Scheduler runs registered jobs on their cron schedules. A job still
// running when its next tick fires is skipped, and a panicking job is
// recovered and marked failed.
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*registeredJob
	baseCtx   context.Context
	cancel    context.CancelFunc
	isRunning bool
}

// New creates a new scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	cl := &cronLogger{logger: logger.Named("cron")}
	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		jobs:    make(map[string]*registeredJob),
		baseCtx: context.Background(),
	}
}

// Register adds a job on a cron schedule. Standard five-field expressions
// and descriptors such as "@every 1m" or "@daily" are accepted.
func (s *Scheduler) Register(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	rj := &registeredJob{
		job: job,
		run: JobRun{Name: name, Schedule: schedule, Status: JobStatusPending},
	}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(rj) })
	if err != nil {
		return fmt.Errorf("%w %q for %s: %v", ErrInvalidSchedule, schedule, name, err)
	}
	rj.entryID = id
	s.jobs[name] = rj

	s.logger.Info("Job registered", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.isRunning = true
	s.cron.Start()

	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop stops scheduling, cancels running jobs and waits for them to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs a registered job synchronously outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	rj, ok := s.jobs[name]
	running := s.isRunning
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !running {
		return ErrSchedulerNotRunning
	}
	return s.runJob(ctx, rj)
}

// Status returns the latest run of a job
func (s *Scheduler) Status(name string) (JobRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rj, ok := s.jobs[name]
	if !ok {
		return JobRun{}, false
	}
	return rj.run, true
}

// NextRun returns when a job is next due. Zero before Start.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	rj, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(rj.entryID).Next
}

func (s *Scheduler) execute(rj *registeredJob) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	_ = s.runJob(ctx, rj)
}

func (s *Scheduler) runJob(parent context.Context, rj *registeredJob) (err error) {
	name := rj.job.Name()
	started := time.Now()
	s.setRun(rj, func(r *JobRun) {
		r.Status = JobStatusRunning
		r.StartedAt = &started
		r.CompletedAt = nil
		r.Error = ""
	})

	ctx, cancel := context.WithTimeout(parent, s.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
		completed := time.Now()
		s.setRun(rj, func(r *JobRun) {
			r.CompletedAt = &completed
			r.Runs++
			if err != nil {
				r.Status = JobStatusFailed
				r.Error = err.Error()
			} else {
				r.Status = JobStatusSuccess
			}
		})
		if err != nil {
			level := s.logger.Error
			if errors.Is(err, context.Canceled) {
				level = s.logger.Warn
			}
			level("Job failed", zap.String("job", name), zap.Duration("duration", completed.Sub(started)), zap.Error(err))
			return
		}
		s.logger.Debug("Job completed", zap.String("job", name), zap.Duration("duration", completed.Sub(started)))
	}()

	return rj.job.Run(ctx)
}

func (s *Scheduler) setRun(rj *registeredJob, fn func(*JobRun)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&rj.run)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
