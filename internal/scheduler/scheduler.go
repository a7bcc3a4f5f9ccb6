// Package scheduler triggers harvests of due sources on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/harvest"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
)

// Runner harvests every due source.
type Runner interface {
	RunDue(ctx context.Context) harvest.Report
}

// Scheduler runs Runner.RunDue on every cron tick. Overlapping ticks are
// skipped while a run is in progress.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	log    logger.Logger
	spec   string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler for a standard five-field cron spec or descriptor.
func New(spec string, runner Runner, log logger.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
	)

	return &Scheduler{cron: c, runner: runner, log: log, spec: spec}, nil
}

// Start registers the tick and starts the cron loop. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return errors.New("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.spec, s.Tick); err != nil {
		return fmt.Errorf("failed to schedule harvest: %w", err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started", logger.String("spec", s.spec))
	return nil
}

// Stop cancels in-flight runs and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Tick harvests due sources once.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	report := s.runner.RunDue(ctx)
	s.log.Info("Scheduled harvest finished",
		logger.RunID(report.RunID),
		logger.Int("sources", len(report.Sources)),
		logger.Int("records", report.TotalRecords()),
		logger.Int("created", report.TotalCreated()),
	)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, logger.Any(key, kv[i+1]))
	}
	return out
}
