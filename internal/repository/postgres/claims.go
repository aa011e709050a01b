package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type claimsRepository struct {
	db *sql.DB
}

func NewClaimsRepository(db *sql.DB) repository.ClaimsRepository {
	return &claimsRepository{db: db}
}

func (r *claimsRepository) Get(ctx context.Context, userID string) (*domain.AuthorizationClaims, error) {
	var officerRaw, memberRaw []byte
	claims := &domain.AuthorizationClaims{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT super_admin, officer_of_club, member_of_club, updated_on FROM user_claims WHERE user_id = $1`, userID).
		Scan(&claims.SuperAdmin, &officerRaw, &memberRaw, &claims.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		claims.OfficerOfClub = map[string]bool{}
		claims.MemberOfClub = map[string]bool{}
		return claims, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(officerRaw, &claims.OfficerOfClub); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(memberRaw, &claims.MemberOfClub); err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *claimsRepository) Upsert(ctx context.Context, claims *domain.AuthorizationClaims) error {
	officerRaw, err := json.Marshal(claims.OfficerOfClub)
	if err != nil {
		return err
	}
	memberRaw, err := json.Marshal(claims.MemberOfClub)
	if err != nil {
		return err
	}
	claims.UpdatedOn = time.Now()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO user_claims (user_id, super_admin, officer_of_club, member_of_club, updated_on)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   super_admin = EXCLUDED.super_admin,
		   officer_of_club = EXCLUDED.officer_of_club,
		   member_of_club = EXCLUDED.member_of_club,
		   updated_on = EXCLUDED.updated_on`,
		claims.UserID, claims.SuperAdmin, officerRaw, memberRaw, claims.UpdatedOn)
	return err
}
