package oidc

import (
	"context"
	"fmt"

	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier checks Keycloak-issued tokens against the realm's published keys.
type Verifier struct {
	issuer   string
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider for issuer. Access tokens minted for
// other audiences are accepted when clientID is empty.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	cfg := &oidc.Config{ClientID: clientID, SkipClientIDCheck: clientID == ""}
	return &Verifier{issuer: issuer, verifier: provider.Verifier(cfg)}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("oidc %s: %w", v.issuer, err)
	}
	return idToken, nil
}
