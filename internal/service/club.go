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

type clubService struct {
	clubRepo       repository.ClubRepository
	membershipRepo repository.MembershipRepository
	publisher      events.Publisher
	auditor        Auditor
	now            func() time.Time
}

// NewClubService builds the club registry. Clubs start PENDING and
// wait for platform approval; the creator gets an approved OWNER
// membership immediately so club management works while activation is
// pending.
func NewClubService(
	clubRepo repository.ClubRepository,
	membershipRepo repository.MembershipRepository,
	publisher events.Publisher,
	auditor Auditor,
) ClubService {
	return &clubService{
		clubRepo:       clubRepo,
		membershipRepo: membershipRepo,
		publisher:      publisher,
		auditor:        auditor,
		now:            time.Now,
	}
}

func (s *clubService) Create(ctx context.Context, actor Actor, input CreateClubInput) (*domain.Club, error) {
	if input.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "club name is required")
	}

	now := s.now().UTC()
	club := &domain.Club{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Description:  input.Description,
		UniversityID: input.UniversityID,
		OwnerID:      actor.UserID,
		Status:       domain.ClubStatusPending,
		CreatedOn:    now,
		UpdatedOn:    now,
	}
	if err := s.clubRepo.Create(ctx, club); err != nil {
		logger.ErrorContext(ctx, "failed to create club", "name", input.Name, "error", err)
		return nil, status.Error(codes.Internal, "failed to create club")
	}

	owner := &domain.Membership{
		ID:         uuid.NewString(),
		UserID:     actor.UserID,
		ClubID:     club.ID,
		Role:       domain.MembershipRoleOwner,
		Status:     domain.MembershipStatusApproved,
		DuesStatus: domain.DuesStatusPaid,
		CreatedOn:  now,
		UpdatedOn:  now,
	}
	if err := s.membershipRepo.Create(ctx, owner); err != nil {
		logger.ErrorContext(ctx, "failed to create owner membership", "club_id", club.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to create club")
	}

	s.auditor.Record(ctx, actor.UserID, "club.created", "clubs", club.ID, nil)
	publishMembershipChange(ctx, s.publisher, nil, owner)
	return club, nil
}

func (s *clubService) Get(ctx context.Context, clubID string) (*domain.Club, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "club not found")
		}
		return nil, status.Error(codes.Internal, "failed to load club")
	}
	return club, nil
}

func (s *clubService) List(ctx context.Context, clubStatus domain.ClubStatus) ([]domain.Club, error) {
	clubs, err := s.clubRepo.List(ctx, clubStatus)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list clubs")
	}
	return clubs, nil
}

// publishMembershipChange is shared by every membership writer so the
// claims synchronizer sees each transition.
func publishMembershipChange(ctx context.Context, publisher events.Publisher, before, after *domain.Membership) {
	err := publisher.PublishMembershipChanged(ctx, events.MembershipChanged{
		MembershipID: after.ID,
		UserID:       after.UserID,
		ClubID:       after.ClubID,
		Before:       before,
		After:        after,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to publish membership change",
			"membership_id", after.ID,
			"error", err)
	}
}
