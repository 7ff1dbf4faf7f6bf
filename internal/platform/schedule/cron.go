// Package schedule drives periodic jobs with robfig/cron and logs through zerolog
package schedule

import (
	"context"

	"github.com/robfig/cron/v3"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
)

// Job is a unit of scheduled work; ctx is cancelled when the scheduler stops
type Job func(ctx context.Context)

// Scheduler runs jobs on cron specs. A job that is still running when its
// next tick fires is skipped, never overlapped
type Scheduler struct {
	c   *cron.Cron
	ctx context.Context
	log cronLogger
}

// New builds a Scheduler whose jobs receive ctx
func New(ctx context.Context) *Scheduler {
	l := cronLogger{log: logger.Named("cron")}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	return &Scheduler{c: c, ctx: ctx, log: l}
}

// Add registers job under spec ("@daily", "0 3 * * *", ...). A bad spec is a
// config error
func (s *Scheduler) Add(spec string, job Job) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeConfig, "schedule %q", spec)
	}
	s.AddSchedule(sched, job)
	return nil
}

// AddSchedule registers job under an already parsed schedule
func (s *Scheduler) AddSchedule(sched cron.Schedule, job Job) {
	s.c.Schedule(sched, cron.FuncJob(func() { job(s.ctx) }))
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs
func (s *Scheduler) Run(ctx context.Context) error {
	s.c.Start()
	<-ctx.Done()
	<-s.c.Stop().Done()
	return nil
}

// Validate reports whether spec parses with the scheduler's parser
func Validate(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug().Fields(kv).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error().Err(err).Fields(kv).Msg(msg)
}
