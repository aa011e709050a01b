package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/claims"
	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/events"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
)

type claimsSyncService struct {
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	claimsRepo     repository.ClaimsRepository
	publisher      claims.Publisher
	auditor        Auditor
	now            func() time.Time
}

// NewClaimsSyncService builds the synchronizer that derives the cached
// authorization claims from approved memberships. The database row is
// the copy the backend trusts; mirroring to the identity provider is
// best-effort. publisher may be nil when no provider is configured.
func NewClaimsSyncService(
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	claimsRepo repository.ClaimsRepository,
	publisher claims.Publisher,
	auditor Auditor,
) ClaimsSyncService {
	return &claimsSyncService{
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		claimsRepo:     claimsRepo,
		publisher:      publisher,
		auditor:        auditor,
		now:            time.Now,
	}
}

// SyncUser recomputes the claims from scratch: membership flags come
// solely from approved, non-banned records; the super-admin flag comes
// from the user record and is never derived. Unchanged claims skip the
// write and the audit entry.
func (s *claimsSyncService) SyncUser(ctx context.Context, userID string) (*domain.AuthorizationClaims, bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, status.Error(codes.NotFound, "user not found")
		}
		return nil, false, status.Error(codes.Internal, "failed to load user")
	}

	memberships, err := s.membershipRepo.ListApprovedByUser(ctx, userID)
	if err != nil {
		return nil, false, status.Error(codes.Internal, "failed to list memberships")
	}

	next := &domain.AuthorizationClaims{
		UserID:        userID,
		SuperAdmin:    user.SuperAdmin,
		OfficerOfClub: map[string]bool{},
		MemberOfClub:  map[string]bool{},
		UpdatedOn:     s.now().UTC(),
	}
	for i := range memberships {
		m := &memberships[i]
		if !m.IsActiveMember() {
			continue
		}
		next.MemberOfClub[m.ClubID] = true
		if m.IsOfficer() {
			next.OfficerOfClub[m.ClubID] = true
		}
	}

	current, err := s.claimsRepo.Get(ctx, userID)
	if err != nil {
		return nil, false, status.Error(codes.Internal, "failed to load current claims")
	}
	if next.Equal(current) {
		logger.Debug("claims unchanged, skipping write", "user_id", userID)
		return current, false, nil
	}

	if err := s.claimsRepo.Upsert(ctx, next); err != nil {
		return nil, false, status.Error(codes.Internal, "failed to store claims")
	}
	s.auditor.Record(ctx, userID, "claims.updated", "user_claims", userID, map[string]string{
		"member_clubs":  strconv.Itoa(len(next.MemberOfClub)),
		"officer_clubs": strconv.Itoa(len(next.OfficerOfClub)),
	})

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, next); err != nil {
			logger.ErrorContext(ctx, "failed to mirror claims to identity provider", "user_id", userID, "error", err)
		}
	}
	return next, true, nil
}

func (s *claimsSyncService) HandleMembershipChanged(ctx context.Context, event events.MembershipChanged) error {
	_, changed, err := s.SyncUser(ctx, event.UserID)
	if err != nil {
		return err
	}
	if changed {
		logger.InfoContext(ctx, "claims resynced after membership change",
			"user_id", event.UserID,
			"membership_id", event.MembershipID)
	}
	return nil
}

// ResyncAll is the safety-net sweep for missed triggers. It walks
// every user holding memberships and reports how many were stale.
func (s *claimsSyncService) ResyncAll(ctx context.Context) (int, error) {
	userIDs, err := s.membershipRepo.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	stale := 0
	for _, userID := range userIDs {
		_, changed, err := s.SyncUser(ctx, userID)
		if err != nil {
			logger.ErrorContext(ctx, "claims resync failed for user", "user_id", userID, "error", err)
			continue
		}
		if changed {
			stale++
		}
	}
	return stale, nil
}
