package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/repository"
)

type guardFixture struct {
	eventRepo      *MockEventRepo
	userRepo       *MockUserRepo
	rsvpRepo       *MockRSVPRepo
	orderRepo      *MockOrderRepo
	membershipRepo *MockMembershipRepo
	guard          EligibilityService
}

func newGuardFixture() *guardFixture {
	f := &guardFixture{
		eventRepo:      new(MockEventRepo),
		userRepo:       new(MockUserRepo),
		rsvpRepo:       new(MockRSVPRepo),
		orderRepo:      new(MockOrderRepo),
		membershipRepo: new(MockMembershipRepo),
	}
	f.guard = NewEligibilityService(f.eventRepo, f.userRepo, f.rsvpRepo, f.orderRepo, f.membershipRepo)
	return f
}

// noExistingAdmission stubs the duplicate checks to report nothing.
func (f *guardFixture) noExistingAdmission(ctx context.Context, eventID, userID string) {
	f.rsvpRepo.On("GetConfirmed", ctx, eventID, userID).Return(nil, repository.ErrNotFound)
	f.orderRepo.On("GetLive", ctx, eventID, userID).Return(nil, repository.ErrNotFound)
}

func activeEvent(id string) *domain.Event {
	ends := time.Now().Add(48 * time.Hour)
	return &domain.Event{
		ID:          id,
		ClubID:      "club-1",
		Name:        "Demo Night",
		Visibility:  domain.EventVisibilityPublic,
		Status:      domain.EventStatusActive,
		StartsOn:    time.Now().Add(24 * time.Hour),
		EndsOn:      &ends,
		PaymentMode: domain.PaymentModeFree,
	}
}

func TestEligibility_EventAvailability(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: "user-1"}

	t.Run("Missing Event", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "nope").Return(nil, repository.ErrNotFound)

		d := f.guard.Evaluate(ctx, actor, "nope", "", domain.ContextRSVP)
		assert.False(t, d.Allowed)
		assert.Equal(t, domain.CodeEventUnavailable, d.Code)
	})

	t.Run("Canceled Event Wins Over Everything Else", func(t *testing.T) {
		// A canceled event that is also full and members-only must
		// still report EVENT_UNAVAILABLE: evaluation order is fixed.
		f := newGuardFixture()
		event := activeEvent("ev-1")
		event.Status = domain.EventStatusCanceled
		event.Visibility = domain.EventVisibilityMembers
		capacity := int32(0)
		event.Capacity = &capacity
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(event, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeEventUnavailable, d.Code)
	})

	t.Run("Datastore Error Is Opaque", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(nil, errors.New("connection refused"))

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.False(t, d.Allowed)
		assert.Equal(t, domain.CodeServerError, d.Code)
		assert.NotContains(t, d.Message, "connection")
	})
}

func TestEligibility_Windows(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: "user-1"}

	t.Run("Event Ended", func(t *testing.T) {
		f := newGuardFixture()
		event := activeEvent("ev-1")
		ended := time.Now().Add(-time.Hour)
		event.EndsOn = &ended
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(event, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeOutsideWindow, d.Code)
	})

	t.Run("RSVP Not Open Yet", func(t *testing.T) {
		f := newGuardFixture()
		event := activeEvent("ev-1")
		opens := time.Now().Add(time.Hour)
		event.RSVPOpensOn = &opens
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(event, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeOutsideWindow, d.Code)
	})

	t.Run("RSVP Closed", func(t *testing.T) {
		f := newGuardFixture()
		event := activeEvent("ev-1")
		closed := time.Now().Add(-time.Minute)
		event.RSVPClosesOn = &closed
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(event, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeOutsideWindow, d.Code)
	})
}

func TestEligibility_CampusRestriction(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: "user-1"}

	campusEvent := func() *domain.Event {
		event := activeEvent("ev-1")
		event.Visibility = domain.EventVisibilityCampus
		event.AllowedUniversities = []string{"uni-a", "uni-b"}
		return event
	}

	t.Run("No Overlap", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(campusEvent(), nil)
		f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", UniversityIDs: []string{"uni-z"}}, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeNotEligible, d.Code)
	})

	t.Run("Missing Profile", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(campusEvent(), nil)
		f.userRepo.On("GetByID", ctx, "user-1").Return(nil, repository.ErrNotFound)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeNotEligible, d.Code)
	})

	t.Run("Overlap Passes", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(campusEvent(), nil)
		f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", UniversityIDs: []string{"uni-b"}}, nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.True(t, d.Allowed)
	})
}

func TestEligibility_DuplicateAdmission(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: "user-1"}

	t.Run("Confirmed RSVP Exists", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(activeEvent("ev-1"), nil)
		f.rsvpRepo.On("GetConfirmed", ctx, "ev-1", "user-1").Return(&domain.RSVP{ID: "r-1"}, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeAlreadyJoined, d.Code)
	})

	t.Run("Live Order Exists", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(activeEvent("ev-1"), nil)
		f.rsvpRepo.On("GetConfirmed", ctx, "ev-1", "user-1").Return(nil, repository.ErrNotFound)
		f.orderRepo.On("GetLive", ctx, "ev-1", "user-1").Return(&domain.Order{ID: "o-1", Status: domain.OrderStatusPending}, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextOrder)
		assert.Equal(t, domain.CodeAlreadyJoined, d.Code)
	})
}

func TestEligibility_Capacity(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: "user-1"}

	t.Run("Unknown Ticket Type", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(activeEvent("ev-1"), nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")

		d := f.guard.Evaluate(ctx, actor, "ev-1", "tt-missing", domain.ContextOrder)
		assert.Equal(t, domain.CodeInvalidTicketType, d.Code)
	})

	t.Run("Ticket Type Sold Out", func(t *testing.T) {
		f := newGuardFixture()
		event := activeEvent("ev-1")
		cap := int32(10)
		event.TicketTypes = []domain.TicketType{{ID: "tt-1", EventID: "ev-1", Name: "GA", Capacity: &cap, Sold: 10}}
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(event, nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")

		d := f.guard.Evaluate(ctx, actor, "ev-1", "tt-1", domain.ContextOrder)
		assert.Equal(t, domain.CodeSoldOut, d.Code)
	})

	t.Run("Flat Capacity Counts RSVPs And Tickets", func(t *testing.T) {
		f := newGuardFixture()
		event := activeEvent("ev-1")
		cap := int32(100)
		event.Capacity = &cap
		event.TicketsSoldCount = 40
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(event, nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")
		f.rsvpRepo.On("CountConfirmed", ctx, "ev-1").Return(int32(60), nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeCapacityReached, d.Code)
	})

	t.Run("Unlimited Capacity Passes", func(t *testing.T) {
		f := newGuardFixture()
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(activeEvent("ev-1"), nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.True(t, d.Allowed)
	})
}

func TestEligibility_MembersOnly(t *testing.T) {
	ctx := context.Background()

	membersEvent := func() *domain.Event {
		event := activeEvent("ev-1")
		event.Visibility = domain.EventVisibilityMembers
		return event
	}

	t.Run("Non-Member Denied Despite Stale Claims", func(t *testing.T) {
		// The token snapshot says member, but the record is gone. The
		// direct read wins: claims are a cache, not an authority.
		f := newGuardFixture()
		actor := Actor{UserID: "user-1", Claims: &domain.AuthorizationClaims{
			UserID:       "user-1",
			MemberOfClub: map[string]bool{"club-1": true},
		}}
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(membersEvent(), nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")
		f.membershipRepo.On("GetByUserAndClub", ctx, "user-1", "club-1").Return(nil, repository.ErrNotFound)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeNotEligible, d.Code)
	})

	t.Run("Dues Outstanding", func(t *testing.T) {
		f := newGuardFixture()
		actor := Actor{UserID: "user-1"}
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(membersEvent(), nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")
		f.membershipRepo.On("GetByUserAndClub", ctx, "user-1", "club-1").Return(&domain.Membership{
			UserID:     "user-1",
			ClubID:     "club-1",
			Status:     domain.MembershipStatusApproved,
			DuesStatus: domain.DuesStatusLate,
		}, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeDuesRequired, d.Code)
	})

	t.Run("Banned", func(t *testing.T) {
		f := newGuardFixture()
		actor := Actor{UserID: "user-1"}
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(membersEvent(), nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")
		f.membershipRepo.On("GetByUserAndClub", ctx, "user-1", "club-1").Return(&domain.Membership{
			UserID:     "user-1",
			ClubID:     "club-1",
			Status:     domain.MembershipStatusApproved,
			DuesStatus: domain.DuesStatusPaid,
			Banned:     true,
		}, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.Equal(t, domain.CodeBanned, d.Code)
	})

	t.Run("Member In Good Standing Allowed", func(t *testing.T) {
		f := newGuardFixture()
		actor := Actor{UserID: "user-1"}
		f.eventRepo.On("GetByID", ctx, "ev-1").Return(membersEvent(), nil)
		f.noExistingAdmission(ctx, "ev-1", "user-1")
		f.membershipRepo.On("GetByUserAndClub", ctx, "user-1", "club-1").Return(&domain.Membership{
			UserID:     "user-1",
			ClubID:     "club-1",
			Status:     domain.MembershipStatusApproved,
			DuesStatus: domain.DuesStatusPaid,
		}, nil)

		d := f.guard.Evaluate(ctx, actor, "ev-1", "", domain.ContextRSVP)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Code)
	})
}
