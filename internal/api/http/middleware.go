package http

import (
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/ratelimit"
	"clubhub-backend/internal/security"
)

// authMiddleware validates the bearer token and injects the claims
// into the request context, overwriting anything a client might have
// planted there.
func authMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				writeError(w, err)
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				writeError(w, status.Errorf(codes.Unauthenticated, "invalid token: %v", err))
				return
			}
			if claims.Type != security.TokenTypeAccess {
				writeError(w, status.Error(codes.PermissionDenied, "access token required"))
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", status.Error(codes.Unauthenticated, "authorization header is not provided")
	}
	token := header
	if len(token) > 7 && strings.EqualFold(token[0:7], "Bearer ") {
		token = token[7:]
	}
	return token, nil
}

// rateLimitMiddleware applies the shared fixed-window limiter to
// admission writes, keyed by the authenticated user. A limiter outage
// fails open: admission keeps working, capacity is still enforced
// transactionally.
func rateLimitMiddleware(limiter *ratelimit.Limiter, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := actorFromContext(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}

			allowed, err := limiter.Allow(r.Context(), actor.UserID, action)
			if err != nil {
				logger.Error("rate limiter unavailable, failing open", "action", action, "error", err)
			} else if !allowed {
				writeError(w, status.Error(codes.ResourceExhausted, "too many requests, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware records one line per request in the structured
// log.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
