package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"google.golang.org/api/idtoken"
)

// ProviderGoogle names Google in ExternalIdentity.Provider.
const ProviderGoogle = "google"

// ExternalVerifier turns a provider credential into a vouched identity.
type ExternalVerifier interface {
	Verify(ctx context.Context, credential string) (*models.ExternalIdentity, error)
}

// validateIDToken is a seam for testing idtoken.Validate.
var validateIDToken = idtoken.Validate

// GoogleVerifier checks Google ID tokens against the configured client id.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*models.ExternalIdentity, error) {
	if credential == "" {
		return nil, common.Validation("credential is required")
	}

	payload, err := validateIDToken(ctx, credential, v.clientID)
	if err != nil {
		return nil, common.Unauthorized("Invalid Google credential")
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, common.Unauthorized("Google account has no email")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, common.Unauthorized("Google email is not verified")
	}

	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &models.ExternalIdentity{
		Provider:  ProviderGoogle,
		Subject:   payload.Subject,
		Email:     email,
		Name:      name,
		AvatarURL: picture,
	}, nil
}

// Describe is used in startup logs.
func (v *GoogleVerifier) Describe() string {
	return fmt.Sprintf("%s (audience %s)", ProviderGoogle, v.clientID)
}
