package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProviderEmail tags accounts registered with a local password credential.
// Federated accounts carry the external provider name instead (e.g. "GOOGLE").
const ProviderEmail = "EMAIL"

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Password     *string    `json:"-"`
	Name         string     `json:"name"`
	ProfileImage *string    `json:"profile_image,omitempty"`
	Provider     string     `json:"provider"`
	ProviderID   *string    `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// Federated reports whether authentication for this account is delegated to
// an external identity provider. Federated accounts have no password.
func (u *User) Federated() bool {
	return u.Provider != ProviderEmail
}

type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Live reports whether the record is still usable at the given instant.
func (t *RefreshToken) Live(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
