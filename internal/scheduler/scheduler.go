// Package scheduler generates commission reports for each closed window on a
// cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fkhayef/parkwise/internal/period"
	"github.com/fkhayef/parkwise/internal/report"
)

// Generator is the report operation the jobs drive
type Generator interface {
	GenerateCommissionReport(ctx context.Context, p period.Period, start, end *time.Time) (*report.CommissionReport, error)
}

// Schedules holds one cron spec per period. An empty spec disables that job.
type Schedules struct {
	Daily   string
	Weekly  string
	Monthly string
}

// Scheduler manages the report cron jobs
type Scheduler struct {
	cron      *cron.Cron
	generator Generator
	schedules Schedules
	loc       *time.Location
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a scheduler that evaluates cron specs in loc
func New(generator Generator, schedules Schedules, loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := zapCronLogger{logger: logger.Named("cron")}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:      c,
		generator: generator,
		schedules: schedules,
		loc:       loc,
		timeout:   5 * time.Minute,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the cron scheduler
func (s *Scheduler) Start() error {
	jobs := []struct {
		period period.Period
		spec   string
	}{
		{period.Daily, s.schedules.Daily},
		{period.Weekly, s.schedules.Weekly},
		{period.Monthly, s.schedules.Monthly},
	}

	for _, job := range jobs {
		if job.spec == "" {
			s.logger.Info("report job disabled", zap.String("period", string(job.period)))
			continue
		}
		p := job.period
		if _, err := s.cron.AddFunc(job.spec, func() { s.RunPrevious(p) }); err != nil {
			return fmt.Errorf("failed to schedule %s report job: %w", p, err)
		}
		s.logger.Info("scheduled report job",
			zap.String("period", string(p)),
			zap.String("schedule", job.spec),
		)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunPrevious generates the report for the window that closed most recently
func (s *Scheduler) RunPrevious(p period.Period) {
	window, err := period.Previous(p, s.now(), s.loc)
	if err != nil {
		s.logger.Error("failed to resolve report window", zap.String("period", string(p)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rep, err := s.generator.GenerateCommissionReport(ctx, p, &window.Start, &window.End)
	if err != nil {
		s.logger.Error("scheduled report generation failed",
			zap.String("period", string(p)),
			zap.Time("start_date", window.Start),
			zap.Time("end_date", window.End),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("scheduled report generated",
		zap.String("period", string(p)),
		zap.String("report_id", rep.ID),
	)
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
