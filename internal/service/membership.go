package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/events"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
)

type membershipService struct {
	membershipRepo repository.MembershipRepository
	clubRepo       repository.ClubRepository
	userRepo       repository.UserRepository
	publisher      events.Publisher
	email          EmailSender
	auditor        Auditor
	now            func() time.Time
}

// NewMembershipService builds the join/approve/ban workflow. Every
// write publishes a membership-changed record; the worker recomputes
// the subject user's claims from it, so claims lag writes briefly.
func NewMembershipService(
	membershipRepo repository.MembershipRepository,
	clubRepo repository.ClubRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	email EmailSender,
	auditor Auditor,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		clubRepo:       clubRepo,
		userRepo:       userRepo,
		publisher:      publisher,
		email:          email,
		auditor:        auditor,
		now:            time.Now,
	}
}

// RequestToJoin creates or revives the single membership record for
// the (user, club) pair. A rejected or archived record is reset to
// PENDING instead of inserting a second row.
func (s *membershipService) RequestToJoin(ctx context.Context, actor Actor, clubID string) (*domain.Membership, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "club not found")
		}
		return nil, status.Error(codes.Internal, "failed to load club")
	}
	if club.Status != domain.ClubStatusActive {
		return nil, status.Error(codes.FailedPrecondition, "club is not accepting members")
	}

	now := s.now().UTC()
	existing, err := s.membershipRepo.GetByUserAndClub(ctx, actor.UserID, clubID)
	switch {
	case err == nil:
		switch existing.Status {
		case domain.MembershipStatusApproved:
			return nil, status.Error(codes.AlreadyExists, "already a member of this club")
		case domain.MembershipStatusPending:
			return nil, status.Error(codes.AlreadyExists, "membership request already pending")
		}
		if existing.Banned {
			return nil, status.Error(codes.PermissionDenied, "banned from this club")
		}
		before := *existing
		existing.Status = domain.MembershipStatusPending
		existing.Role = domain.MembershipRoleMember
		existing.DuesStatus = domain.DuesStatusRequired
		existing.ReviewedBy = nil
		existing.UpdatedOn = now
		if err := s.membershipRepo.Update(ctx, existing); err != nil {
			logger.ErrorContext(ctx, "failed to revive membership", "membership_id", existing.ID, "error", err)
			return nil, status.Error(codes.Internal, "failed to request membership")
		}
		s.auditor.Record(ctx, actor.UserID, "membership.requested", "memberships", existing.ID, map[string]string{"club_id": clubID})
		publishMembershipChange(ctx, s.publisher, &before, existing)
		return existing, nil

	case errors.Is(err, repository.ErrNotFound):
		m := &domain.Membership{
			ID:         uuid.NewString(),
			UserID:     actor.UserID,
			ClubID:     clubID,
			Role:       domain.MembershipRoleMember,
			Status:     domain.MembershipStatusPending,
			DuesStatus: domain.DuesStatusRequired,
			CreatedOn:  now,
			UpdatedOn:  now,
		}
		if err := s.membershipRepo.Create(ctx, m); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, status.Error(codes.AlreadyExists, "membership request already pending")
			}
			logger.ErrorContext(ctx, "failed to create membership", "club_id", clubID, "error", err)
			return nil, status.Error(codes.Internal, "failed to request membership")
		}
		s.auditor.Record(ctx, actor.UserID, "membership.requested", "memberships", m.ID, map[string]string{"club_id": clubID})
		publishMembershipChange(ctx, s.publisher, nil, m)
		return m, nil

	default:
		return nil, status.Error(codes.Internal, "failed to load membership")
	}
}

func (s *membershipService) Review(ctx context.Context, actor Actor, membershipID string, approve bool) (*domain.Membership, error) {
	m, err := s.loadMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, m.ClubID); err != nil {
		return nil, err
	}
	if m.Status != domain.MembershipStatusPending {
		return nil, status.Errorf(codes.FailedPrecondition, "membership is %s, not pending", m.Status)
	}

	before := *m
	next := domain.MembershipStatusRejected
	if approve {
		next = domain.MembershipStatusApproved
	}
	m.Status = next
	m.ReviewedBy = &actor.UserID
	m.UpdatedOn = s.now().UTC()
	if err := s.membershipRepo.Update(ctx, m); err != nil {
		logger.ErrorContext(ctx, "failed to update membership", "membership_id", m.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to update membership")
	}

	s.auditor.Record(ctx, actor.UserID, "membership.reviewed", "memberships", m.ID, map[string]string{"decision": string(next)})
	publishMembershipChange(ctx, s.publisher, &before, m)
	s.notifyDecision(ctx, m)
	return m, nil
}

func (s *membershipService) Leave(ctx context.Context, actor Actor, clubID string) error {
	m, err := s.membershipRepo.GetByUserAndClub(ctx, actor.UserID, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return status.Error(codes.NotFound, "not a member of this club")
		}
		return status.Error(codes.Internal, "failed to load membership")
	}
	if m.Status != domain.MembershipStatusApproved {
		return status.Error(codes.FailedPrecondition, "membership is not active")
	}
	if m.Role == domain.MembershipRoleOwner {
		return status.Error(codes.FailedPrecondition, "club owner cannot leave; transfer ownership first")
	}

	before := *m
	m.Status = domain.MembershipStatusArchived
	m.UpdatedOn = s.now().UTC()
	if err := s.membershipRepo.Update(ctx, m); err != nil {
		logger.ErrorContext(ctx, "failed to archive membership", "membership_id", m.ID, "error", err)
		return status.Error(codes.Internal, "failed to leave club")
	}

	s.auditor.Record(ctx, actor.UserID, "membership.left", "memberships", m.ID, map[string]string{"club_id": clubID})
	publishMembershipChange(ctx, s.publisher, &before, m)
	return nil
}

func (s *membershipService) SetBanned(ctx context.Context, actor Actor, membershipID string, banned bool) (*domain.Membership, error) {
	m, err := s.loadMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, m.ClubID); err != nil {
		return nil, err
	}
	if m.UserID == actor.UserID {
		return nil, status.Error(codes.FailedPrecondition, "cannot ban yourself")
	}
	if m.Banned == banned {
		return m, nil
	}

	before := *m
	m.Banned = banned
	m.UpdatedOn = s.now().UTC()
	if err := s.membershipRepo.Update(ctx, m); err != nil {
		logger.ErrorContext(ctx, "failed to update membership ban", "membership_id", m.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to update membership")
	}

	action := "membership.banned"
	if !banned {
		action = "membership.unbanned"
	}
	s.auditor.Record(ctx, actor.UserID, action, "memberships", m.ID, nil)
	publishMembershipChange(ctx, s.publisher, &before, m)
	return m, nil
}

func (s *membershipService) SetDuesStatus(ctx context.Context, actor Actor, membershipID string, dues domain.DuesStatus) (*domain.Membership, error) {
	switch dues {
	case domain.DuesStatusPaid, domain.DuesStatusRequired, domain.DuesStatusLate:
	default:
		return nil, status.Error(codes.InvalidArgument, "unknown dues status")
	}

	m, err := s.loadMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, m.ClubID); err != nil {
		return nil, err
	}
	if m.DuesStatus == dues {
		return m, nil
	}

	before := *m
	m.DuesStatus = dues
	m.UpdatedOn = s.now().UTC()
	if err := s.membershipRepo.Update(ctx, m); err != nil {
		logger.ErrorContext(ctx, "failed to update dues status", "membership_id", m.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to update membership")
	}

	s.auditor.Record(ctx, actor.UserID, "membership.dues_updated", "memberships", m.ID, map[string]string{"dues_status": string(dues)})
	publishMembershipChange(ctx, s.publisher, &before, m)
	return m, nil
}

func (s *membershipService) ListByClub(ctx context.Context, actor Actor, clubID string, memberStatus domain.MembershipStatus) ([]domain.Membership, error) {
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, clubID); err != nil {
		return nil, err
	}
	memberships, err := s.membershipRepo.ListByClub(ctx, clubID, memberStatus)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list memberships")
	}
	return memberships, nil
}

func (s *membershipService) loadMembership(ctx context.Context, membershipID string) (*domain.Membership, error) {
	m, err := s.membershipRepo.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "membership not found")
		}
		return nil, status.Error(codes.Internal, "failed to load membership")
	}
	return m, nil
}

func (s *membershipService) notifyDecision(ctx context.Context, m *domain.Membership) {
	user, err := s.userRepo.GetByID(ctx, m.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load user for notification", "membership_id", m.ID, "error", err)
		return
	}
	club, err := s.clubRepo.GetByID(ctx, m.ClubID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load club for notification", "membership_id", m.ID, "error", err)
		return
	}
	if err := s.email.SendMembershipDecision(ctx, user.Email, club.Name, m.Status); err != nil {
		logger.ErrorContext(ctx, "failed to send membership decision email", "membership_id", m.ID, "error", err)
	}
}
