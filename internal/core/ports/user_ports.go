package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
)

// UserRepository persists user accounts. Lookups return (nil, nil) when no
// live row matches; soft-deleted users are filtered out by every query.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, profileImage *string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
