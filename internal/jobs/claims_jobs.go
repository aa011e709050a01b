package jobs

import (
	"context"

	"clubhub-backend/internal/logger"
)

// ResyncClaims is the safety net for missed membership-changed
// records: it recomputes every user's derived claims and reports how
// many were stale. A non-zero count means the bus dropped or delayed
// a trigger.
func (jr *JobRunner) ResyncClaims() {
	jr.runWithRecovery("ResyncClaims", func(ctx context.Context) {
		stale, err := jr.claimsSync.ResyncAll(ctx)
		if err != nil {
			logger.Error("claims resync failed", "error", err)
			return
		}
		if stale > 0 {
			logger.Warn("claims resync found stale users", "count", stale)
			return
		}
		logger.Info("claims resync finished, all users current")
	})
}
