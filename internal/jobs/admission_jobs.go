package jobs

import (
	"context"
	"time"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/logger"
)

const systemActorID = "system"

// ExpireStaleOrders rejects pending orders whose payment never
// arrived. An expired order stops blocking the user's duplicate-order
// check, so they can try again.
func (jr *JobRunner) ExpireStaleOrders() {
	jr.runWithRecovery("ExpireStaleOrders", func(ctx context.Context) {
		maxAge := time.Duration(jr.config.Scheduler.StaleOrderMaxAgeHours) * time.Hour
		cutoff := time.Now().UTC().Add(-maxAge)

		orders, err := jr.orderRepo.ListStalePending(ctx, cutoff)
		if err != nil {
			logger.Error("failed to list stale orders", "error", err)
			return
		}

		expired := 0
		for i := range orders {
			order := &orders[i]
			if !order.CanTransitionTo(domain.OrderStatusRejected) {
				continue
			}
			order.Status = domain.OrderStatusRejected
			order.RejectReason = "expired"
			order.UpdatedOn = time.Now().UTC()
			if err := jr.orderRepo.Update(ctx, order); err != nil {
				logger.Error("failed to expire order", "order_id", order.ID, "error", err)
				continue
			}
			jr.auditor.Record(ctx, systemActorID, "order.expired", "orders", order.ID, nil)
			expired++
		}
		logger.Info("stale order sweep finished", "candidates", len(orders), "expired", expired)
	})
}

// ReconcileRSVPs looks for (event, user) pairs holding more than one
// confirmed rsvp. The partial unique index makes this structurally
// impossible, so any hit means the index is missing or was bypassed;
// the job reports rather than repairs.
func (jr *JobRunner) ReconcileRSVPs() {
	jr.runWithRecovery("ReconcileRSVPs", func(ctx context.Context) {
		duplicates, err := jr.rsvpRepo.ListDuplicateConfirmed(ctx)
		if err != nil {
			logger.Error("failed to list duplicate rsvps", "error", err)
			return
		}
		if len(duplicates) == 0 {
			logger.Info("rsvp reconciliation finished, no duplicates")
			return
		}

		for _, d := range duplicates {
			logger.Warn("duplicate confirmed rsvp detected",
				"rsvp_id", d.ID,
				"event_id", d.EventID,
				"user_id", d.UserID)
			jr.auditor.Record(ctx, systemActorID, "rsvp.duplicate_detected", "rsvps", d.ID, map[string]string{
				"event_id": d.EventID,
				"user_id":  d.UserID,
			})
		}
		logger.Warn("rsvp reconciliation finished with duplicates", "count", len(duplicates))
	})
}
