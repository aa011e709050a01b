// Package claims publishes the derived authorization claims to
// Firebase Auth so web clients see the same flags in their ID tokens
// that the backend stores in user_claims.
package claims

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"clubhub-backend/internal/domain"
)

// Publisher mirrors a user's derived claims to an external identity
// provider. Implementations are best-effort: the database row is the
// source the backend trusts.
type Publisher interface {
	Publish(ctx context.Context, claims *domain.AuthorizationClaims) error
}

type firebasePublisher struct {
	client *auth.Client
}

// NewFirebasePublisher builds a publisher backed by the Firebase Admin
// SDK.
func NewFirebasePublisher(ctx context.Context, credentialsFile, projectID string) (Publisher, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &firebasePublisher{client: client}, nil
}

func (p *firebasePublisher) Publish(ctx context.Context, claims *domain.AuthorizationClaims) error {
	payload := map[string]interface{}{
		"superAdmin":    claims.SuperAdmin,
		"officerOfClub": claims.OfficerOfClub,
		"memberOfClub":  claims.MemberOfClub,
	}
	return p.client.SetCustomUserClaims(ctx, claims.UserID, payload)
}
