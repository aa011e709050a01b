package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
)

type approvalService struct {
	approvalRepo repository.ApprovalRequestRepository
	clubRepo     repository.ClubRepository
	userRepo     repository.UserRepository
	auditor      Auditor
	now          func() time.Time
}

// NewApprovalService builds the club activation workflow: owners
// submit a request for their pending club, platform admins decide, and
// an approval flips the club to ACTIVE.
func NewApprovalService(
	approvalRepo repository.ApprovalRequestRepository,
	clubRepo repository.ClubRepository,
	userRepo repository.UserRepository,
	auditor Auditor,
) ApprovalService {
	return &approvalService{
		approvalRepo: approvalRepo,
		clubRepo:     clubRepo,
		userRepo:     userRepo,
		auditor:      auditor,
		now:          time.Now,
	}
}

func (s *approvalService) Submit(ctx context.Context, actor Actor, clubID, note string) (*domain.ApprovalRequest, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "club not found")
		}
		return nil, status.Error(codes.Internal, "failed to load club")
	}
	if club.OwnerID != actor.UserID {
		return nil, status.Error(codes.PermissionDenied, "only the club owner may request activation")
	}
	if club.Status != domain.ClubStatusPending {
		return nil, status.Errorf(codes.FailedPrecondition, "club is %s, activation not applicable", club.Status)
	}

	now := s.now().UTC()
	req := &domain.ApprovalRequest{
		ID:          uuid.NewString(),
		Type:        domain.ApprovalRequestTypeClub,
		TargetID:    club.ID,
		RequestedBy: actor.UserID,
		Status:      domain.ApprovalRequestStatusPending,
		Note:        note,
		CreatedOn:   now,
		UpdatedOn:   now,
	}
	if err := s.approvalRepo.Create(ctx, req); err != nil {
		logger.ErrorContext(ctx, "failed to create approval request", "club_id", clubID, "error", err)
		return nil, status.Error(codes.Internal, "failed to create approval request")
	}

	s.auditor.Record(ctx, actor.UserID, "approval.submitted", "approval_requests", req.ID, map[string]string{"club_id": clubID})
	return req, nil
}

// Decide resolves a pending request. Approving a club-type request
// also activates the target club; that reaction is the whole point of
// the request type.
func (s *approvalService) Decide(ctx context.Context, actor Actor, requestID string, approve bool, note string) (*domain.ApprovalRequest, error) {
	if err := requireSuperAdmin(ctx, s.userRepo, actor); err != nil {
		return nil, err
	}

	req, err := s.approvalRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "approval request not found")
		}
		return nil, status.Error(codes.Internal, "failed to load approval request")
	}
	if req.Status != domain.ApprovalRequestStatusPending {
		return nil, status.Errorf(codes.FailedPrecondition, "request already %s", req.Status)
	}

	next := domain.ApprovalRequestStatusRejected
	if approve {
		next = domain.ApprovalRequestStatusApproved
	}
	req.Status = next
	req.ReviewedBy = &actor.UserID
	if note != "" {
		req.Note = note
	}
	req.UpdatedOn = s.now().UTC()
	if err := s.approvalRepo.Update(ctx, req); err != nil {
		logger.ErrorContext(ctx, "failed to update approval request", "request_id", requestID, "error", err)
		return nil, status.Error(codes.Internal, "failed to update approval request")
	}
	s.auditor.Record(ctx, actor.UserID, "approval.decided", "approval_requests", req.ID, map[string]string{"decision": string(next)})

	if approve && req.Type == domain.ApprovalRequestTypeClub {
		if err := s.activateClub(ctx, actor, req.TargetID); err != nil {
			// The request is already approved; a failed club flip is
			// caught by re-running Decide or fixed by hand.
			logger.ErrorContext(ctx, "approved request but failed to activate club",
				"request_id", req.ID,
				"club_id", req.TargetID,
				"error", err)
		}
	}
	return req, nil
}

func (s *approvalService) activateClub(ctx context.Context, actor Actor, clubID string) error {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return err
	}
	if club.Status == domain.ClubStatusActive {
		return nil
	}
	club.Status = domain.ClubStatusActive
	club.UpdatedOn = s.now().UTC()
	if err := s.clubRepo.Update(ctx, club); err != nil {
		return err
	}
	s.auditor.Record(ctx, actor.UserID, "club.activated", "clubs", club.ID, nil)
	return nil
}

func (s *approvalService) ListPending(ctx context.Context, actor Actor) ([]domain.ApprovalRequest, error) {
	if err := requireSuperAdmin(ctx, s.userRepo, actor); err != nil {
		return nil, err
	}
	reqs, err := s.approvalRepo.ListPending(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list approval requests")
	}
	return reqs, nil
}
