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

type eventService struct {
	eventRepo      repository.EventRepository
	clubRepo       repository.ClubRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	auditor        Auditor
	now            func() time.Time
}

// NewEventService builds the event registry the admission flows run
// against.
func NewEventService(
	eventRepo repository.EventRepository,
	clubRepo repository.ClubRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	auditor Auditor,
) EventService {
	return &eventService{
		eventRepo:      eventRepo,
		clubRepo:       clubRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		auditor:        auditor,
		now:            time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, actor Actor, input CreateEventInput) (*domain.Event, error) {
	if input.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "event name is required")
	}
	switch input.Visibility {
	case domain.EventVisibilityPublic, domain.EventVisibilityCampus, domain.EventVisibilityMembers:
	default:
		return nil, status.Error(codes.InvalidArgument, "unknown visibility")
	}
	switch input.PaymentMode {
	case domain.PaymentModeFree, domain.PaymentModeManaged:
	default:
		return nil, status.Error(codes.InvalidArgument, "unknown payment mode")
	}

	club, err := s.clubRepo.GetByID(ctx, input.ClubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "club not found")
		}
		return nil, status.Error(codes.Internal, "failed to load club")
	}
	if club.Status != domain.ClubStatusActive {
		return nil, status.Error(codes.FailedPrecondition, "club is not active")
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, club.ID); err != nil {
		return nil, err
	}

	startsOn, err := parseRequiredTime(input.StartsOn)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "starts_on must be RFC 3339")
	}
	endsOn, err := parseOptionalTime(input.EndsOn)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "ends_on must be RFC 3339")
	}
	opensOn, err := parseOptionalTime(input.RSVPOpensOn)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "rsvp_opens_on must be RFC 3339")
	}
	closesOn, err := parseOptionalTime(input.RSVPClosesOn)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "rsvp_closes_on must be RFC 3339")
	}
	if endsOn != nil && endsOn.Before(startsOn) {
		return nil, status.Error(codes.InvalidArgument, "ends_on precedes starts_on")
	}
	if opensOn != nil && closesOn != nil && closesOn.Before(*opensOn) {
		return nil, status.Error(codes.InvalidArgument, "rsvp window closes before it opens")
	}
	if input.Capacity != nil && *input.Capacity < 0 {
		return nil, status.Error(codes.InvalidArgument, "capacity cannot be negative")
	}

	now := s.now().UTC()
	event := &domain.Event{
		ID:                  uuid.NewString(),
		ClubID:              club.ID,
		Name:                input.Name,
		Description:         input.Description,
		Visibility:          input.Visibility,
		AllowedUniversities: input.AllowedUniversities,
		Status:              domain.EventStatusActive,
		StartsOn:            startsOn,
		EndsOn:              endsOn,
		RSVPOpensOn:         opensOn,
		RSVPClosesOn:        closesOn,
		Capacity:            input.Capacity,
		PaymentMode:         input.PaymentMode,
		CreatedOn:           now,
		UpdatedOn:           now,
	}
	for _, tt := range input.TicketTypes {
		if tt.Name == "" {
			return nil, status.Error(codes.InvalidArgument, "ticket type name is required")
		}
		if tt.Capacity != nil && *tt.Capacity < 0 {
			return nil, status.Error(codes.InvalidArgument, "ticket type capacity cannot be negative")
		}
		event.TicketTypes = append(event.TicketTypes, domain.TicketType{
			ID:             uuid.NewString(),
			EventID:        event.ID,
			Name:           tt.Name,
			UnitPriceCents: tt.UnitPriceCents,
			Capacity:       tt.Capacity,
		})
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		logger.ErrorContext(ctx, "failed to create event", "club_id", club.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to create event")
	}

	s.auditor.Record(ctx, actor.UserID, "event.created", "events", event.ID, map[string]string{"club_id": club.ID})
	return event, nil
}

func (s *eventService) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "event not found")
		}
		return nil, status.Error(codes.Internal, "failed to load event")
	}
	return event, nil
}

func (s *eventService) Cancel(ctx context.Context, actor Actor, eventID string) (*domain.Event, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOfficer(ctx, s.membershipRepo, s.userRepo, actor, event.ClubID); err != nil {
		return nil, err
	}
	if event.Status == domain.EventStatusCanceled {
		return event, nil
	}

	event.Status = domain.EventStatusCanceled
	event.UpdatedOn = s.now().UTC()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		logger.ErrorContext(ctx, "failed to cancel event", "event_id", eventID, "error", err)
		return nil, status.Error(codes.Internal, "failed to cancel event")
	}

	s.auditor.Record(ctx, actor.UserID, "event.canceled", "events", event.ID, nil)
	return event, nil
}

func parseRequiredTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
