package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository"
	"clubhub-backend/internal/security"
)

type authService struct {
	userRepo   repository.UserRepository
	claimsRepo repository.ClaimsRepository
	tokens     security.TokenManager
	auditor    Auditor
	now        func() time.Time
}

// NewAuthService builds signup/login/refresh. Tokens embed a snapshot
// of the derived claims at issuance time, so the guard's fast path
// works without an extra read per request.
func NewAuthService(
	userRepo repository.UserRepository,
	claimsRepo repository.ClaimsRepository,
	tokens security.TokenManager,
	auditor Auditor,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		claimsRepo: claimsRepo,
		tokens:     tokens,
		auditor:    auditor,
		now:        time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, status.Error(codes.InvalidArgument, "a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, status.Error(codes.InvalidArgument, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to hash password")
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          input.Name,
		PasswordHash:  string(hash),
		UniversityIDs: input.UniversityIDs,
		CreatedOn:     now,
		UpdatedOn:     now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, status.Error(codes.AlreadyExists, "email already registered")
		}
		logger.ErrorContext(ctx, "failed to create user", "error", err)
		return nil, status.Error(codes.Internal, "failed to create account")
	}

	s.auditor.Record(ctx, user.ID, "user.signed_up", "users", user.ID, nil)
	return s.issueTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid email or password")
		}
		return nil, status.Error(codes.Internal, "failed to load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid email or password")
	}
	return s.issueTokens(ctx, user)
}

// Refresh re-reads the stored claims so a new access token picks up
// membership changes that happened since the last issuance.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	tokenClaims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if tokenClaims.Type != security.TokenTypeRefresh {
		return nil, status.Error(codes.Unauthenticated, "refresh token required")
	}

	user, err := s.userRepo.GetByID(ctx, tokenClaims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "account no longer exists")
		}
		return nil, status.Error(codes.Internal, "failed to load account")
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	auth, err := s.claimsRepo.Get(ctx, user.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load claims for token", "user_id", user.ID, "error", err)
		return nil, status.Error(codes.Internal, "failed to issue tokens")
	}
	// SuperAdmin lives on the user record; the claims row only caches
	// it.
	auth.SuperAdmin = user.SuperAdmin

	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, auth)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to issue tokens")
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to issue tokens")
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
