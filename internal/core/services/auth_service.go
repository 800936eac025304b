package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

// authService mints, exchanges and revokes token pairs. Every login path goes
// through issuePair, so the refresh reuse-or-replace policy cannot be
// bypassed by one entry point minting tokens on its own.
//
// Access tokens stay valid until their natural expiry even after logout; only
// the refresh path is revocable. That asymmetry is the price of stateless
// access tokens and is deliberate.
type authService struct {
	resolver    ports.IdentityResolver
	refreshRepo ports.RefreshTokenRepository
	codec       ports.TokenCodec
	verifier    ports.TokenVerifier

	googleClientID string
	refreshTTL     time.Duration
	now            func() time.Time
}

func NewAuthService(
	resolver ports.IdentityResolver,
	refreshRepo ports.RefreshTokenRepository,
	codec ports.TokenCodec,
	verifier ports.TokenVerifier,
	googleClientID string,
	refreshTTL time.Duration,
) ports.AuthService {
	return &authService{
		resolver:       resolver,
		refreshRepo:    refreshRepo,
		codec:          codec,
		verifier:       verifier,
		googleClientID: googleClientID,
		refreshTTL:     refreshTTL,
		now:            time.Now,
	}
}

func (s *authService) LoginWithCredential(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.resolver.AuthenticateByCredential(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user.ID)
}

func (s *authService) LoginWithGoogle(ctx context.Context, credential string) (*domain.TokenPair, error) {
	profile, err := s.verifier.Verify(ctx, credential, s.googleClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFederatedCredential, err)
	}

	user, err := s.resolver.ResolveOrCreateFederated(ctx, *profile)
	if err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user.ID)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	subject, kind, err := s.codec.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrExpiredRefreshToken
		}
		return nil, domain.ErrInvalidRefreshToken
	}
	if kind != domain.TokenKindRefresh {
		return nil, domain.ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	// A signature-valid token whose server-side record is gone (logout, or
	// replaced) must not mint anything. A record that expired between the
	// verify above and this lookup is tolerated: issuePair replaces it and
	// the caller gets a rotated string.
	stored, err := s.refreshRepo.FindAny(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if stored == nil || stored.Token != refreshToken {
		return nil, domain.ErrInvalidRefreshToken
	}

	// The owning account must still exist. A deactivated user's refresh
	// record may survive until it expires; it must not keep minting pairs.
	user, err := s.resolver.ResolveByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidRefreshToken
	}

	return s.issuePair(ctx, userID)
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.refreshRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	slog.Info("user logged out", "user_id", userID)
	return nil
}

// issuePair is the single issuance choke point. The access token is always
// fresh; the refresh token is reused while a live record exists and replaced
// only once the prior record has actually expired.
func (s *authService) issuePair(ctx context.Context, userID uuid.UUID) (*domain.TokenPair, error) {
	accessToken, err := s.codec.Issue(userID.String(), domain.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	candidateToken, err := s.codec.Issue(userID.String(), domain.TokenKindRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	stored, err := s.refreshRepo.UpsertReuseOrReplace(ctx, &domain.RefreshToken{
		UserID:    userID,
		Token:     candidateToken,
		ExpiresAt: s.now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: stored.Token,
	}, nil
}
