package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tokrilabs/tokri-backend/pkg/logger"
	"github.com/tokrilabs/tokri-backend/pkg/metrics"
)

// Job is one scheduled unit of work.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on their intervals. Each tick takes the
// job's redis lock first, so multiple cron workers stay single-flight.
type Scheduler struct {
	lock    *Lock
	metrics *metrics.CronJobMetrics
	logg    *logger.Logger
	jobs    []Job
}

// NewScheduler builds an empty scheduler.
func NewScheduler(lock *Lock, m *metrics.CronJobMetrics, logg *logger.Logger) (*Scheduler, error) {
	if lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	return &Scheduler{lock: lock, metrics: m, logg: logg}, nil
}

// Register adds a job to the schedule. Not safe to call after Start.
func (s *Scheduler) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	if job.Interval() <= 0 {
		return fmt.Errorf("job %q needs a positive interval", job.Name())
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start blocks until ctx is cancelled, running every registered job on its
// own ticker.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	lockName := "cron:" + job.Name()
	acquired, err := s.lock.Acquire(ctx, lockName)
	if err != nil {
		s.warn(ctx, job, "cron lock unavailable", err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if rerr := s.lock.Release(ctx, lockName); rerr != nil {
			s.warn(ctx, job, "cron lock release failed", rerr)
		}
	}()

	start := time.Now()
	err = job.Run(ctx)
	s.metrics.ObserveDuration(job.Name(), time.Since(start))
	if err != nil {
		s.metrics.IncFailure(job.Name())
		s.warn(ctx, job, "cron job failed", err)
		return
	}
	s.metrics.IncSuccess(job.Name())
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "job", job.Name()), "cron job completed")
	}
}

func (s *Scheduler) warn(ctx context.Context, job Job, msg string, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"error": err.Error(),
	})
	s.logg.Warn(logCtx, msg)
}
