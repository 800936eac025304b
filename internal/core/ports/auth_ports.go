package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
)

// TokenCodec signs and verifies self-contained bearer tokens. Both operations
// are pure and never block.
type TokenCodec interface {
	// Issue signs a token for the subject with the expiry horizon of kind.
	Issue(subject string, kind domain.TokenKind) (string, error)

	// Verify checks signature and expiry and returns the embedded subject and
	// kind. It fails with domain.ErrTokenMalformed, ErrTokenSignatureInvalid
	// or ErrTokenExpired.
	Verify(token string) (subject string, kind domain.TokenKind, err error)

	// ExtractUnverified parses the subject and kind out of a token without
	// checking expiry. It exists solely so the request authenticator can look
	// up whose refresh token to consult once an access token has expired; it
	// must never be used to authorize anything.
	ExtractUnverified(token string) (subject string, kind domain.TokenKind, err error)
}

// RefreshTokenRepository owns the one-live-record-per-user refresh token
// state. All reads and writes of refresh records go through it.
type RefreshTokenRepository interface {
	// FindLive returns the user's record only while it is unexpired,
	// (nil, nil) otherwise.
	FindLive(ctx context.Context, userID uuid.UUID) (*domain.RefreshToken, error)

	// FindAny returns the user's record regardless of expiry, (nil, nil) when
	// none exists. Used to tell "expired refresh token" apart from "never had
	// one" when classifying failures.
	FindAny(ctx context.Context, userID uuid.UUID) (*domain.RefreshToken, error)

	// UpsertReuseOrReplace returns the existing record unchanged when it is
	// still live, discarding the candidate. Otherwise it replaces any expired
	// record with the candidate and returns the stored row. The
	// read-then-write is serialized per user.
	UpsertReuseOrReplace(ctx context.Context, candidate *domain.RefreshToken) (*domain.RefreshToken, error)

	// Delete removes the user's record. Deleting an absent record is not an
	// error.
	Delete(ctx context.Context, userID uuid.UUID) error
}

// FederatedProfile is the identity attested by an external provider.
type FederatedProfile struct {
	Provider     string
	ProviderID   string
	Email        string
	Name         string
	ProfileImage *string
}

// TokenVerifier validates an external provider credential (a Google ID token)
// and returns the attested profile.
type TokenVerifier interface {
	Verify(ctx context.Context, credential string, clientID string) (*FederatedProfile, error)
}

// PasswordHasher is the slow-hash credential primitive.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hashed string) bool
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// IdentityResolver looks up or provisions user accounts for the login paths.
type IdentityResolver interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
	AuthenticateByCredential(ctx context.Context, email, password string) (*domain.User, error)
	ResolveOrCreateFederated(ctx context.Context, profile FederatedProfile) (*domain.User, error)

	// ResolveByID returns the live account for the id, (nil, nil) when none
	// exists.
	ResolveByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// AuthService is the boundary for every flow that mints, exchanges or revokes
// token pairs.
type AuthService interface {
	LoginWithCredential(ctx context.Context, email, password string) (*domain.TokenPair, error)
	LoginWithGoogle(ctx context.Context, credential string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// RequestAuthenticator classifies a request's bearer token. The returned
// error is non-nil only for storage failures; authentication failures are
// reported inside the outcome.
type RequestAuthenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (domain.AuthOutcome, error)
}
