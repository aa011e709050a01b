package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/repository"
)

// requireOfficer checks that the actor may act on behalf of the club.
// The cached claims grant fast; a miss falls back to the membership
// record and the super-admin flag so a freshly promoted officer is not
// locked out while claims propagate.
func requireOfficer(ctx context.Context, membershipRepo repository.MembershipRepository, userRepo repository.UserRepository, actor Actor, clubID string) error {
	if actor.Claims.IsOfficerOf(clubID) {
		return nil
	}

	m, err := membershipRepo.GetByUserAndClub(ctx, actor.UserID, clubID)
	if err == nil && m.IsOfficer() {
		return nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return status.Error(codes.Internal, "failed to verify club role")
	}

	return requireSuperAdmin(ctx, userRepo, actor)
}

// requireSuperAdmin checks the user record directly; the super-admin
// flag is set out of band and never derived from memberships.
func requireSuperAdmin(ctx context.Context, userRepo repository.UserRepository, actor Actor) error {
	if actor.Claims != nil && actor.Claims.SuperAdmin {
		return nil
	}
	u, err := userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return status.Error(codes.PermissionDenied, "insufficient permissions")
		}
		return status.Error(codes.Internal, "failed to verify permissions")
	}
	if !u.SuperAdmin {
		return status.Error(codes.PermissionDenied, "insufficient permissions")
	}
	return nil
}
