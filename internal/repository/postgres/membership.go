package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipColumns = `id, user_id, club_id, role, status, dues_status, banned, reviewed_by, created_on, updated_on`

func scanMembership(row interface{ Scan(...interface{}) error }) (*domain.Membership, error) {
	m := &domain.Membership{}
	err := row.Scan(&m.ID, &m.UserID, &m.ClubID, &m.Role, &m.Status, &m.DuesStatus, &m.Banned, &m.ReviewedBy, &m.CreatedOn, &m.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	query := `INSERT INTO memberships (id, user_id, club_id, role, status, dues_status, banned, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	now := time.Now()
	m.CreatedOn = now
	m.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query, m.ID, m.UserID, m.ClubID, m.Role, m.Status, m.DuesStatus, m.Banned, m.CreatedOn, m.UpdatedOn)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *membershipRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`
	m, err := scanMembership(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return m, err
}

func (r *membershipRepository) GetByUserAndClub(ctx context.Context, userID, clubID string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1 AND club_id = $2`
	m, err := scanMembership(r.db.QueryRowContext(ctx, query, userID, clubID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return m, err
}

func (r *membershipRepository) Update(ctx context.Context, m *domain.Membership) error {
	query := `UPDATE memberships SET role=$1, status=$2, dues_status=$3, banned=$4, reviewed_by=$5, updated_on=$6 WHERE id=$7`
	m.UpdatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query, m.Role, m.Status, m.DuesStatus, m.Banned, m.ReviewedBy, m.UpdatedOn, m.ID)
	return err
}

func (r *membershipRepository) ListApprovedByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1 AND status = $2`
	rows, err := r.db.QueryContext(ctx, query, userID, domain.MembershipStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func (r *membershipRepository) ListByClub(ctx context.Context, clubID string, status domain.MembershipStatus) ([]domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE club_id = $1`
	args := []interface{}{clubID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func (r *membershipRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM memberships`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectMemberships(rows *sql.Rows) ([]domain.Membership, error) {
	var memberships []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *m)
	}
	return memberships, rows.Err()
}
