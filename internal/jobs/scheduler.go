package jobs

import (
	"fmt"

	"github.com/coopfin/ledger-api/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler fires jobs on cron expressions. Firing only enqueues: the
// worker pool does the actual processing, so overlapping ticks queue up
// instead of running concurrently against the same rows.
type Scheduler struct {
	cron   *cron.Cron
	worker *Worker
}

// NewScheduler creates a scheduler backed by the given worker pool
func NewScheduler(worker *Worker) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		worker: worker,
	}
}

// Add registers a job under a cron expression (standard 5-field format)
func (s *Scheduler) Add(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.worker.Enqueue(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	logger.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Start begins firing scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop. Jobs already enqueued keep running on the
// worker until its own shutdown.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
