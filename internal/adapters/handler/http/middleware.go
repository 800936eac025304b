package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

type outcomeContextKey struct{}

// OutcomeFromContext returns the authentication outcome the middleware
// attached to the request.
func OutcomeFromContext(ctx context.Context) (domain.AuthOutcome, bool) {
	outcome, ok := ctx.Value(outcomeContextKey{}).(domain.AuthOutcome)
	return outcome, ok
}

// UserIDFromContext returns the authenticated subject, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	outcome, ok := OutcomeFromContext(ctx)
	if !ok || outcome.State != domain.AuthStateAuthenticated {
		return uuid.Nil, false
	}
	return outcome.UserID, true
}

type AuthMiddleware struct {
	authenticator ports.RequestAuthenticator
}

func NewAuthMiddleware(authenticator ports.RequestAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Authenticate classifies the request's bearer token and stores the outcome
// in the context. It never short-circuits: a rejected token on a route that
// does not require authentication must not fail the request, so the decision
// is left to RequireAuth on the routes that opt in.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, err := m.authenticator.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), outcomeContextKey{}, outcome)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects any request whose outcome is not authenticated,
// answering with the classification so the client knows whether to refresh or
// to re-login.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, ok := OutcomeFromContext(r.Context())
		if !ok || outcome.State == domain.AuthStateAnonymous {
			writeError(w, domain.ErrInvalidAccessToken)
			return
		}
		if outcome.State == domain.AuthStateRejected {
			writeError(w, outcome.Classification)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
