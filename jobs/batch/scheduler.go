package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/tripscore/core/logger"
	"github.com/kilianp07/tripscore/core/model"
	coremon "github.com/kilianp07/tripscore/core/monitoring"
)

// Scheduler runs a batch on a cron schedule. A tick is skipped while the
// previous batch is still running.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	table  model.Table
	log    logger.Logger

	mu      sync.Mutex
	running bool
	runs    int
}

// NewScheduler registers the batch under spec, a standard five field cron
// expression.
func NewScheduler(ctx context.Context, spec string, runner *Runner, table model.Table, log logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		runner: runner,
		table:  table,
		log:    log,
	}
	tick := func() {
		defer coremon.Recover()
		s.RunNow(ctx)
	}
	if _, err := s.cron.AddFunc(spec, tick); err != nil {
		return nil, fmt.Errorf("register batch schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("batch scheduler started")
}

// Stop stops the scheduler and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Infof("batch scheduler stopped")
}

// Runs reports how many batches completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// RunNow executes one batch unless one is already running. It reports
// whether a batch ran.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warnf("previous batch still running, skipping tick")
		return false
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if _, err := s.runner.Run(ctx, s.table); err != nil {
		s.log.Errorf("scheduled batch: %v", err)
	}

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	return true
}
