package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
)

// Verifier wraps the OIDC provider and token verifier for the configured issuer.
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the OIDC provider at issuer and prepares a verifier
// bound to clientID. Discovery performs a network round trip; failures here
// mean the identity provider is unreachable or misconfigured.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{provider: provider, verifier: verifier}, nil
}

// Verify validates the raw ID token (signature, expiry, issuer, audience) and
// returns its decoded claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (*auth.Claims, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var extra struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	return &auth.Claims{
		Subject:       idToken.Subject,
		Email:         extra.Email,
		EmailVerified: extra.EmailVerified,
		Name:          extra.Name,
		Expiry:        idToken.Expiry,
		Issuer:        idToken.Issuer,
		Audience:      idToken.Audience,
	}, nil
}
