package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"clubhub-backend/internal/jobs"
	"clubhub-backend/internal/logger"
)

// Scheduler manages cron job scheduling.
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler with seconds precision in UTC and
// registers all maintenance jobs.
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	_, err := s.cron.AddFunc(cfg.ExpireStaleOrders, s.jobs.ExpireStaleOrders)
	if err != nil {
		logger.Error("Failed to register ExpireStaleOrders job", "error", err)
	}

	_, err = s.cron.AddFunc(cfg.ReconcileRSVPs, s.jobs.ReconcileRSVPs)
	if err != nil {
		logger.Error("Failed to register ReconcileRSVPs job", "error", err)
	}

	_, err = s.cron.AddFunc(cfg.ResyncClaims, s.jobs.ResyncClaims)
	if err != nil {
		logger.Error("Failed to register ResyncClaims job", "error", err)
	}

	logger.Info("All cron jobs registered successfully")
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning reports whether any jobs are registered.
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
