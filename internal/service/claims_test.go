package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/events"
)

type claimsFixture struct {
	membershipRepo *MockMembershipRepo
	userRepo       *MockUserRepo
	claimsRepo     *MockClaimsRepo
	publisher      *MockClaimsPublisher
	auditor        *recordingAuditor
	svc            ClaimsSyncService
}

func newClaimsFixture() *claimsFixture {
	f := &claimsFixture{
		membershipRepo: new(MockMembershipRepo),
		userRepo:       new(MockUserRepo),
		claimsRepo:     new(MockClaimsRepo),
		publisher:      new(MockClaimsPublisher),
		auditor:        &recordingAuditor{},
	}
	f.svc = NewClaimsSyncService(f.membershipRepo, f.userRepo, f.claimsRepo, f.publisher, f.auditor)
	return f
}

func emptyClaims(userID string) *domain.AuthorizationClaims {
	return &domain.AuthorizationClaims{
		UserID:        userID,
		OfficerOfClub: map[string]bool{},
		MemberOfClub:  map[string]bool{},
	}
}

func TestClaimsSync_SyncUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Approval Grants Membership Flag", func(t *testing.T) {
		f := newClaimsFixture()
		f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1"}, nil)
		f.membershipRepo.On("ListApprovedByUser", ctx, "user-1").Return([]domain.Membership{
			{UserID: "user-1", ClubID: "club-1", Role: domain.MembershipRoleMember, Status: domain.MembershipStatusApproved},
			{UserID: "user-1", ClubID: "club-2", Role: domain.MembershipRoleOfficer, Status: domain.MembershipStatusApproved},
		}, nil)
		f.claimsRepo.On("Get", ctx, "user-1").Return(emptyClaims("user-1"), nil)
		f.claimsRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)
		f.publisher.On("Publish", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)

		claims, changed, err := f.svc.SyncUser(ctx, "user-1")
		assert.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, claims.MemberOfClub["club-1"])
		assert.False(t, claims.OfficerOfClub["club-1"])
		assert.True(t, claims.OfficerOfClub["club-2"])
		assert.Contains(t, f.auditor.actions, "claims.updated")
		f.publisher.AssertCalled(t, "Publish", ctx, mock.AnythingOfType("*domain.AuthorizationClaims"))
	})

	t.Run("Ban Strips Membership Flag", func(t *testing.T) {
		f := newClaimsFixture()
		f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1"}, nil)
		f.membershipRepo.On("ListApprovedByUser", ctx, "user-1").Return([]domain.Membership{
			{UserID: "user-1", ClubID: "club-1", Role: domain.MembershipRoleMember, Status: domain.MembershipStatusApproved, Banned: true},
		}, nil)
		current := emptyClaims("user-1")
		current.MemberOfClub["club-1"] = true
		f.claimsRepo.On("Get", ctx, "user-1").Return(current, nil)
		f.claimsRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)
		f.publisher.On("Publish", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)

		claims, changed, err := f.svc.SyncUser(ctx, "user-1")
		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Empty(t, claims.MemberOfClub)
	})

	t.Run("Unchanged Claims Skip The Write", func(t *testing.T) {
		f := newClaimsFixture()
		f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1"}, nil)
		f.membershipRepo.On("ListApprovedByUser", ctx, "user-1").Return([]domain.Membership{
			{UserID: "user-1", ClubID: "club-1", Role: domain.MembershipRoleMember, Status: domain.MembershipStatusApproved},
		}, nil)
		current := emptyClaims("user-1")
		current.MemberOfClub["club-1"] = true
		current.UpdatedOn = time.Now().Add(-time.Hour)
		f.claimsRepo.On("Get", ctx, "user-1").Return(current, nil)

		_, changed, err := f.svc.SyncUser(ctx, "user-1")
		assert.NoError(t, err)
		assert.False(t, changed)
		f.claimsRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		assert.Empty(t, f.auditor.actions)
	})

	t.Run("Super Admin Comes From The User Record", func(t *testing.T) {
		f := newClaimsFixture()
		f.userRepo.On("GetByID", ctx, "admin-1").Return(&domain.User{ID: "admin-1", SuperAdmin: true}, nil)
		f.membershipRepo.On("ListApprovedByUser", ctx, "admin-1").Return([]domain.Membership{}, nil)
		f.claimsRepo.On("Get", ctx, "admin-1").Return(emptyClaims("admin-1"), nil)
		f.claimsRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)
		f.publisher.On("Publish", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)

		claims, changed, err := f.svc.SyncUser(ctx, "admin-1")
		assert.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, claims.SuperAdmin)
	})

	t.Run("Mirror Failure Does Not Fail The Sync", func(t *testing.T) {
		f := newClaimsFixture()
		f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1"}, nil)
		f.membershipRepo.On("ListApprovedByUser", ctx, "user-1").Return([]domain.Membership{
			{UserID: "user-1", ClubID: "club-1", Role: domain.MembershipRoleMember, Status: domain.MembershipStatusApproved},
		}, nil)
		f.claimsRepo.On("Get", ctx, "user-1").Return(emptyClaims("user-1"), nil)
		f.claimsRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)
		f.publisher.On("Publish", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(assert.AnError)

		_, changed, err := f.svc.SyncUser(ctx, "user-1")
		assert.NoError(t, err)
		assert.True(t, changed)
	})
}

func TestClaimsSync_HandleMembershipChanged(t *testing.T) {
	ctx := context.Background()

	f := newClaimsFixture()
	f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1"}, nil)
	f.membershipRepo.On("ListApprovedByUser", ctx, "user-1").Return([]domain.Membership{
		{UserID: "user-1", ClubID: "club-1", Role: domain.MembershipRoleMember, Status: domain.MembershipStatusApproved},
	}, nil)
	f.claimsRepo.On("Get", ctx, "user-1").Return(emptyClaims("user-1"), nil)
	f.claimsRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)
	f.publisher.On("Publish", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)

	err := f.svc.HandleMembershipChanged(ctx, events.MembershipChanged{
		MembershipID: "m-1",
		UserID:       "user-1",
		ClubID:       "club-1",
	})
	assert.NoError(t, err)
	f.claimsRepo.AssertCalled(t, "Upsert", ctx, mock.AnythingOfType("*domain.AuthorizationClaims"))
}

func TestClaimsSync_ResyncAll(t *testing.T) {
	ctx := context.Background()

	f := newClaimsFixture()
	f.membershipRepo.On("ListUserIDs", ctx).Return([]string{"user-1", "user-2"}, nil)

	// user-1 is stale, user-2 is current.
	f.userRepo.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1"}, nil)
	f.membershipRepo.On("ListApprovedByUser", ctx, "user-1").Return([]domain.Membership{
		{UserID: "user-1", ClubID: "club-1", Role: domain.MembershipRoleMember, Status: domain.MembershipStatusApproved},
	}, nil)
	f.claimsRepo.On("Get", ctx, "user-1").Return(emptyClaims("user-1"), nil)
	f.claimsRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)
	f.publisher.On("Publish", ctx, mock.AnythingOfType("*domain.AuthorizationClaims")).Return(nil)

	f.userRepo.On("GetByID", ctx, "user-2").Return(&domain.User{ID: "user-2"}, nil)
	f.membershipRepo.On("ListApprovedByUser", ctx, "user-2").Return([]domain.Membership{}, nil)
	f.claimsRepo.On("Get", ctx, "user-2").Return(emptyClaims("user-2"), nil)

	stale, err := f.svc.ResyncAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, stale)
}
