package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

// requestAuthenticator turns a bearer token (or its absence) into a
// per-request outcome. On an expired access token it consults the refresh
// store to tell the client whether a refresh call would still succeed or a
// full re-login is needed.
type requestAuthenticator struct {
	codec       ports.TokenCodec
	refreshRepo ports.RefreshTokenRepository
}

func NewRequestAuthenticator(codec ports.TokenCodec, refreshRepo ports.RefreshTokenRepository) ports.RequestAuthenticator {
	return &requestAuthenticator{
		codec:       codec,
		refreshRepo: refreshRepo,
	}
}

func (a *requestAuthenticator) Authenticate(ctx context.Context, bearerToken string) (domain.AuthOutcome, error) {
	if bearerToken == "" {
		return domain.Anonymous(), nil
	}

	subject, kind, err := a.codec.Verify(bearerToken)
	if err == nil {
		if kind != domain.TokenKindAccess {
			return domain.Rejected(domain.ErrInvalidAccessToken), nil
		}
		userID, parseErr := uuid.Parse(subject)
		if parseErr != nil {
			return domain.Rejected(domain.ErrInvalidAccessToken), nil
		}
		return domain.Authenticated(userID), nil
	}

	if !errors.Is(err, domain.ErrTokenExpired) {
		return domain.Rejected(domain.ErrInvalidAccessToken), nil
	}

	return a.classifyExpired(ctx, bearerToken)
}

// classifyExpired decides which of the two expiry signals the client gets. A
// live refresh token on record means the session is still valid and a refresh
// call will succeed; otherwise the client must authenticate from scratch.
func (a *requestAuthenticator) classifyExpired(ctx context.Context, bearerToken string) (domain.AuthOutcome, error) {
	subject, kind, err := a.codec.ExtractUnverified(bearerToken)
	if err != nil {
		// Cannot tell whose session this was; collapse to a single
		// actionable signal rather than surfacing the parse failure.
		return domain.Rejected(domain.ErrInvalidAccessToken), nil
	}
	// An expired refresh token as a bearer is as invalid as an unexpired
	// one; only access tokens get the expiry disambiguation.
	if kind != domain.TokenKindAccess {
		return domain.Rejected(domain.ErrInvalidAccessToken), nil
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return domain.Rejected(domain.ErrInvalidAccessToken), nil
	}

	live, err := a.refreshRepo.FindLive(ctx, userID)
	if err != nil {
		return domain.AuthOutcome{}, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if live != nil {
		return domain.Rejected(domain.ErrExpiredAccessToken), nil
	}
	return domain.Rejected(domain.ErrExpiredRefreshToken), nil
}
