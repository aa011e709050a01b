package http

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/security"
	"clubhub-backend/internal/service"
)

type contextKey string

const claimsContextKey contextKey = "user-claims"

// withClaims stores the validated token claims for downstream
// handlers. The auth middleware always overwrites; handlers never see
// client-supplied identity.
func withClaims(ctx context.Context, claims *security.UserClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// actorFromContext extracts the authenticated caller. Handlers behind
// the auth middleware can rely on it; elsewhere it returns
// Unauthenticated.
func actorFromContext(ctx context.Context) (service.Actor, error) {
	claims, ok := ctx.Value(claimsContextKey).(*security.UserClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return service.Actor{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	return service.Actor{UserID: claims.UserID, Claims: claims.Authorization()}, nil
}
