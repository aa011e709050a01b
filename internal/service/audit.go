package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
)

type auditService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditor builds the append-only audit recorder. A failed append is
// logged and swallowed so audit trouble never fails the operation
// being audited; the issuance transaction writes its own audit row
// in-transaction and does not go through here.
func NewAuditor(auditRepo repository.AuditLogRepository) Auditor {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(ctx context.Context, actorID, action, targetCollection, targetID string, metadata map[string]string) {
	entry := &domain.AuditLogEntry{
		ID:               uuid.NewString(),
		ActorID:          actorID,
		Action:           action,
		TargetCollection: targetCollection,
		TargetID:         targetID,
		Metadata:         metadata,
		CreatedOn:        time.Now().UTC(),
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		logger.Error("failed to append audit entry",
			"action", action,
			"target_id", targetID,
			"error", err)
	}
}
