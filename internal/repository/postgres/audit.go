package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type auditLogRepository struct {
	db *sql.DB
}

func NewAuditLogRepository(db *sql.DB) repository.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	entry.CreatedOn = time.Now()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, target_collection, target_id, metadata, created_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorID, entry.Action, entry.TargetCollection, entry.TargetID, meta, entry.CreatedOn)
	return err
}
