package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type clubRepository struct {
	db *sql.DB
}

func NewClubRepository(db *sql.DB) repository.ClubRepository {
	return &clubRepository{db: db}
}

func (r *clubRepository) Create(ctx context.Context, c *domain.Club) error {
	query := `INSERT INTO clubs (id, name, description, university_id, owner_id, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now()
	c.CreatedOn = now
	c.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Description, c.UniversityID, c.OwnerID, c.Status, c.CreatedOn, c.UpdatedOn)
	return err
}

func (r *clubRepository) GetByID(ctx context.Context, id string) (*domain.Club, error) {
	c := &domain.Club{}
	query := `SELECT id, name, description, university_id, owner_id, status, created_on, updated_on FROM clubs WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.UniversityID, &c.OwnerID, &c.Status, &c.CreatedOn, &c.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *clubRepository) Update(ctx context.Context, c *domain.Club) error {
	query := `UPDATE clubs SET name=$1, description=$2, status=$3, updated_on=$4 WHERE id=$5`
	_, err := r.db.ExecContext(ctx, query, c.Name, c.Description, c.Status, time.Now(), c.ID)
	return err
}

func (r *clubRepository) List(ctx context.Context, status domain.ClubStatus) ([]domain.Club, error) {
	query := `SELECT id, name, description, university_id, owner_id, status, created_on, updated_on FROM clubs`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_on DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clubs []domain.Club
	for rows.Next() {
		var c domain.Club
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.UniversityID, &c.OwnerID, &c.Status, &c.CreatedOn, &c.UpdatedOn); err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

type approvalRequestRepository struct {
	db *sql.DB
}

func NewApprovalRequestRepository(db *sql.DB) repository.ApprovalRequestRepository {
	return &approvalRequestRepository{db: db}
}

func (r *approvalRequestRepository) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `INSERT INTO approval_requests (id, type, target_id, requested_by, status, note, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now()
	req.CreatedOn = now
	req.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query, req.ID, req.Type, req.TargetID, req.RequestedBy, req.Status, req.Note, req.CreatedOn, req.UpdatedOn)
	return err
}

func (r *approvalRequestRepository) GetByID(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	req := &domain.ApprovalRequest{}
	query := `SELECT id, type, target_id, requested_by, status, reviewed_by, note, created_on, updated_on FROM approval_requests WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.Type, &req.TargetID, &req.RequestedBy, &req.Status, &req.ReviewedBy, &req.Note, &req.CreatedOn, &req.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *approvalRequestRepository) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `UPDATE approval_requests SET status=$1, reviewed_by=$2, note=$3, updated_on=$4 WHERE id=$5`
	_, err := r.db.ExecContext(ctx, query, req.Status, req.ReviewedBy, req.Note, time.Now(), req.ID)
	return err
}

func (r *approvalRequestRepository) ListPending(ctx context.Context) ([]domain.ApprovalRequest, error) {
	query := `SELECT id, type, target_id, requested_by, status, reviewed_by, note, created_on, updated_on
	          FROM approval_requests WHERE status = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, domain.ApprovalRequestStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.ApprovalRequest
	for rows.Next() {
		var req domain.ApprovalRequest
		if err := rows.Scan(&req.ID, &req.Type, &req.TargetID, &req.RequestedBy, &req.Status, &req.ReviewedBy, &req.Note, &req.CreatedOn, &req.UpdatedOn); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
