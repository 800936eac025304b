package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

// identityService looks up and provisions user accounts. It is the only place
// that decides whether a login attempt maps to an existing identity, creates
// a new one, or is rejected.
type identityService struct {
	userRepo ports.UserRepository
	hasher   ports.PasswordHasher
}

func NewIdentityService(userRepo ports.UserRepository, hasher ports.PasswordHasher) ports.IdentityResolver {
	return &identityService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

func (s *identityService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)

	taken, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:    email,
		Password: &hashed,
		Name:     input.Name,
		Provider: domain.ProviderEmail,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", email)
	return user, nil
}

func (s *identityService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.userRepo.EmailExists(ctx, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return !taken, nil
}

func (s *identityService) AuthenticateByCredential(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	// A nil password means a federation-only account; a password login
	// against it always fails.
	if user.Password == nil || !s.hasher.Compare(password, *user.Password) {
		return nil, domain.ErrBadCredential
	}
	return user, nil
}

func (s *identityService) ResolveOrCreateFederated(ctx context.Context, profile ports.FederatedProfile) (*domain.User, error) {
	user, err := s.userRepo.GetByProvider(ctx, profile.Provider, profile.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by provider: %w", err)
	}
	if user != nil {
		// Known federated account: sync the mutable profile fields the
		// provider attests on every login.
		if err := s.userRepo.UpdateProfile(ctx, user.ID, profile.Name, profile.ProfileImage); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		user.Name = profile.Name
		if profile.ProfileImage != nil {
			user.ProfileImage = profile.ProfileImage
		}
		return user, nil
	}

	email := normalizeEmail(profile.Email)

	// Refuse to attach a federated login to an email someone else already
	// registered. Silently merging on email match would let an attacker
	// pre-register a victim's address and take over the later federated
	// login.
	taken, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, domain.ErrFederatedEmailConflict
	}

	user = &domain.User{
		Email:        email,
		Password:     nil,
		Name:         profile.Name,
		ProfileImage: profile.ProfileImage,
		Provider:     profile.Provider,
		ProviderID:   &profile.ProviderID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("federated user created", "user_id", user.ID, "provider", profile.Provider)
	return user, nil
}

func (s *identityService) ResolveByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
