package service

import (
	"context"
	"errors"
	"time"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
)

type eligibilityService struct {
	eventRepo      repository.EventRepository
	userRepo       repository.UserRepository
	rsvpRepo       repository.RSVPRepository
	orderRepo      repository.OrderRepository
	membershipRepo repository.MembershipRepository
	now            func() time.Time
}

// NewEligibilityService builds the read-only admission guard. The
// guard is advisory: it produces fast, deterministic denials before
// any write, but the transactional issuance step remains the only
// authoritative capacity enforcement.
func NewEligibilityService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	rsvpRepo repository.RSVPRepository,
	orderRepo repository.OrderRepository,
	membershipRepo repository.MembershipRepository,
) EligibilityService {
	return &eligibilityService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		rsvpRepo:       rsvpRepo,
		orderRepo:      orderRepo,
		membershipRepo: membershipRepo,
		now:            time.Now,
	}
}

// Evaluate runs the admission rules in a fixed order, short-circuiting
// on the first failure so the denial code is deterministic. Unexpected
// datastore failures collapse into a generic server_error denial with
// the same response shape, never leaking internals.
func (s *eligibilityService) Evaluate(ctx context.Context, actor Actor, eventID, ticketTypeID string, evalCtx domain.EligibilityContext) domain.EligibilityDecision {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Deny(domain.CodeEventUnavailable, "event not found")
		}
		return s.serverError("failed to load event", err)
	}
	if event.Status != domain.EventStatusActive {
		return domain.Deny(domain.CodeEventUnavailable, "event is not active")
	}

	now := s.now()
	if event.Ended(now) {
		return domain.Deny(domain.CodeOutsideWindow, "event has ended")
	}
	if event.RSVPOpensOn != nil && event.RSVPOpensOn.After(now) {
		return domain.Deny(domain.CodeOutsideWindow, "admission has not opened yet")
	}
	if event.RSVPClosesOn != nil && event.RSVPClosesOn.Before(now) {
		return domain.Deny(domain.CodeOutsideWindow, "admission has closed")
	}

	if event.Visibility == domain.EventVisibilityCampus && len(event.AllowedUniversities) > 0 {
		user, err := s.userRepo.GetByID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Deny(domain.CodeNotEligible, "user profile not found")
			}
			return s.serverError("failed to load user profile", err)
		}
		if !universitiesOverlap(user.UniversityIDs, event.AllowedUniversities) {
			return domain.Deny(domain.CodeNotEligible, "event is restricted to other universities")
		}
	}

	if _, err := s.rsvpRepo.GetConfirmed(ctx, eventID, actor.UserID); err == nil {
		return domain.Deny(domain.CodeAlreadyJoined, "already holding a confirmed rsvp")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return s.serverError("failed to check existing rsvp", err)
	}

	if _, err := s.orderRepo.GetLive(ctx, eventID, actor.UserID); err == nil {
		return domain.Deny(domain.CodeAlreadyJoined, "already holding a live order")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return s.serverError("failed to check existing order", err)
	}

	if decision := s.checkCapacity(ctx, event, ticketTypeID, evalCtx); !decision.Allowed {
		return decision
	}

	if event.Visibility == domain.EventVisibilityMembers {
		if decision := s.checkMembership(ctx, actor, event.ClubID); !decision.Allowed {
			return decision
		}
	}

	return domain.Allow()
}

// checkCapacity is advisory only; the issuance transaction re-checks
// under row locks.
func (s *eligibilityService) checkCapacity(ctx context.Context, event *domain.Event, ticketTypeID string, evalCtx domain.EligibilityContext) domain.EligibilityDecision {
	if ticketTypeID != "" {
		tt := event.TicketTypeByID(ticketTypeID)
		if tt == nil {
			return domain.Deny(domain.CodeInvalidTicketType, "unknown ticket type for this event")
		}
		if tt.Capacity != nil && tt.Sold >= *tt.Capacity {
			return domain.Deny(domain.CodeSoldOut, "ticket type is sold out")
		}
		return domain.Allow()
	}

	if event.Capacity == nil {
		return domain.Allow()
	}
	confirmed, err := s.rsvpRepo.CountConfirmed(ctx, event.ID)
	if err != nil {
		return s.serverError("failed to count confirmed rsvps", err)
	}
	if confirmed+event.TicketsSoldCount >= *event.Capacity {
		if evalCtx == domain.ContextOrder {
			return domain.Deny(domain.CodeSoldOut, "event is sold out")
		}
		return domain.Deny(domain.CodeCapacityReached, "event is at capacity")
	}
	return domain.Allow()
}

// checkMembership consults the cached claims as a fast positive hint
// but always verifies against the membership record: the claims cache
// lags membership writes, and members-only denial is security
// relevant.
func (s *eligibilityService) checkMembership(ctx context.Context, actor Actor, clubID string) domain.EligibilityDecision {
	if actor.Claims.IsMemberOf(clubID) {
		logger.Debug("claims fast path hit for members event", "user_id", actor.UserID, "club_id", clubID)
	}

	m, err := s.membershipRepo.GetByUserAndClub(ctx, actor.UserID, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Deny(domain.CodeNotEligible, "event is restricted to club members")
		}
		return s.serverError("failed to load membership", err)
	}
	if m.Status != domain.MembershipStatusApproved {
		return domain.Deny(domain.CodeNotEligible, "event is restricted to club members")
	}
	if m.DuesStatus == domain.DuesStatusRequired || m.DuesStatus == domain.DuesStatusLate {
		return domain.Deny(domain.CodeDuesRequired, "club dues are outstanding")
	}
	if m.Banned {
		return domain.Deny(domain.CodeBanned, "membership is banned from club activities")
	}
	return domain.Allow()
}

func (s *eligibilityService) serverError(msg string, err error) domain.EligibilityDecision {
	logger.Error(msg, "error", err)
	return domain.Deny(domain.CodeServerError, "something went wrong")
}

func universitiesOverlap(userIDs, allowed []string) bool {
	for _, a := range allowed {
		for _, u := range userIDs {
			if a == u {
				return true
			}
		}
	}
	return false
}
