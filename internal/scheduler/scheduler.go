// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of periodic work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron instance whose jobs share one lifetime context.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler. Schedules use six fields, seconds first
// ("0 */5 * * * *"). A job still running when its next tick fires is skipped.
func New(logger *slog.Logger) *Scheduler {
	logger = logger.With(slog.String("system", "cron"))
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger{logger}),
		cron.WithChain(
			recoverer(logger),
			cron.SkipIfStillRunning(cronLogger{logger}),
		),
	)
	return &Scheduler{cron: c, logger: logger, ctx: ctx, cancel: cancel}
}

// Add registers job under name on spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Warn("scheduler: job failed",
				slog.String("job", name),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Debug("scheduler: job done",
			slog.String("job", name),
			slog.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("scheduler: add %s: %w", name, err)
	}
	s.logger.Info("scheduler: registered", slog.String("job", name), slog.String("schedule", spec))
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler: started")
	<-ctx.Done()
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler: stopped")
	return nil
}

func recoverer(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("scheduler: job panic", slog.Any("panic", r))
				}
			}()
			j.Run()
		})
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug("cron: "+msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, append(kv, slog.String("error", err.Error()))...)
}
