package google

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"

	"github.com/taskhub/api/internal/core/ports"
)

const providerName = "GOOGLE"

type GoogleVerifier struct{}

func NewVerifier() ports.TokenVerifier {
	return &GoogleVerifier{}
}

func (v *GoogleVerifier) Verify(ctx context.Context, credential string, clientID string) (*ports.FederatedProfile, error) {
	payload, err := idtoken.Validate(ctx, credential, clientID)
	if err != nil {
		return nil, err
	}

	email, ok := payload.Claims["email"].(string)
	if !ok {
		return nil, errors.New("email not found in claims")
	}
	name, ok := payload.Claims["name"].(string)
	if !ok {
		return nil, errors.New("name not found in claims")
	}

	profile := &ports.FederatedProfile{
		Provider:   providerName,
		ProviderID: payload.Subject,
		Email:      email,
		Name:       name,
	}
	if picture, ok := payload.Claims["picture"].(string); ok && picture != "" {
		profile.ProfileImage = &picture
	}
	return profile, nil
}
