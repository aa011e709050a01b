package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type rsvpRepository struct {
	db *sql.DB
}

func NewRSVPRepository(db *sql.DB) repository.RSVPRepository {
	return &rsvpRepository{db: db}
}

func (r *rsvpRepository) GetConfirmed(ctx context.Context, eventID, userID string) (*domain.RSVP, error) {
	rv := &domain.RSVP{}
	query := `SELECT id, event_id, user_id, status, created_on, updated_on FROM rsvps
	          WHERE event_id = $1 AND user_id = $2 AND status = $3`
	err := r.db.QueryRowContext(ctx, query, eventID, userID, domain.RSVPStatusConfirmed).
		Scan(&rv.ID, &rv.EventID, &rv.UserID, &rv.Status, &rv.CreatedOn, &rv.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rv, nil
}

// CreateConfirmed is the authoritative flat-capacity enforcement point
// for the free RSVP path. The guard's pre-check is advisory; this
// transaction locks the event row so the count-then-insert sequence is
// linearizable with respect to concurrent RSVPs and ticket issuance
// for the same event.
func (r *rsvpRepository) CreateConfirmed(ctx context.Context, rv *domain.RSVP) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var capacity sql.NullInt32
	var sold int32
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, tickets_sold_count FROM events WHERE id = $1 FOR UPDATE`, rv.EventID).
		Scan(&capacity, &sold)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}

	if capacity.Valid {
		var confirmed int32
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = $2`, rv.EventID, domain.RSVPStatusConfirmed).
			Scan(&confirmed)
		if err != nil {
			return err
		}
		if confirmed+sold >= capacity.Int32 {
			return repository.ErrCapacityReached
		}
	}

	now := time.Now()
	rv.Status = domain.RSVPStatusConfirmed
	rv.CreatedOn = now
	rv.UpdatedOn = now
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rsvps (id, event_id, user_id, status, created_on, updated_on) VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.EventID, rv.UserID, rv.Status, rv.CreatedOn, rv.UpdatedOn)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *rsvpRepository) Cancel(ctx context.Context, eventID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rsvps SET status = $1, updated_on = $2 WHERE event_id = $3 AND user_id = $4 AND status = $5`,
		domain.RSVPStatusCanceled, time.Now(), eventID, userID, domain.RSVPStatusConfirmed)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *rsvpRepository) CountConfirmed(ctx context.Context, eventID string) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rsvps WHERE event_id = $1 AND status = $2`, eventID, domain.RSVPStatusConfirmed).
		Scan(&count)
	return count, err
}

// ListDuplicateConfirmed returns every confirmed rsvp beyond the first
// per (event, user) pair, oldest kept. The unique index makes new
// duplicates impossible; this covers rows that predate it.
func (r *rsvpRepository) ListDuplicateConfirmed(ctx context.Context) ([]domain.RSVP, error) {
	query := `SELECT id, event_id, user_id, status, created_on, updated_on FROM (
	            SELECT *, ROW_NUMBER() OVER (PARTITION BY event_id, user_id ORDER BY created_on) AS rn
	            FROM rsvps WHERE status = $1
	          ) ranked WHERE rn > 1`
	rows, err := r.db.QueryContext(ctx, query, domain.RSVPStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dupes []domain.RSVP
	for rows.Next() {
		var rv domain.RSVP
		if err := rows.Scan(&rv.ID, &rv.EventID, &rv.UserID, &rv.Status, &rv.CreatedOn, &rv.UpdatedOn); err != nil {
			return nil, err
		}
		dupes = append(dupes, rv)
	}
	return dupes, rows.Err()
}
