// Package jobs holds the scheduled maintenance work: expiring stale
// orders, reconciling duplicate rsvps and resyncing derived claims.
package jobs

import (
	"context"
	"time"

	"clubhub-backend/internal/config"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
	"clubhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs.
type JobRunner struct {
	orderRepo  repository.OrderRepository
	rsvpRepo   repository.RSVPRepository
	claimsSync service.ClaimsSyncService
	auditor    service.Auditor
	config     *config.Config
}

func NewJobRunner(
	orderRepo repository.OrderRepository,
	rsvpRepo repository.RSVPRepository,
	claimsSync service.ClaimsSyncService,
	auditor service.Auditor,
	cfg *config.Config,
) *JobRunner {
	return &JobRunner{
		orderRepo:  orderRepo,
		rsvpRepo:   rsvpRepo,
		claimsSync: claimsSync,
		auditor:    auditor,
		config:     cfg,
	}
}

// Config exposes the loaded configuration to the scheduler.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery so one bad
// job cannot take down the worker.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once, for manual execution.
func (jr *JobRunner) RunAll() {
	jr.ExpireStaleOrders()
	jr.ReconcileRSVPs()
	jr.ResyncClaims()
}
