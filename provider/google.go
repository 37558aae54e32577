package provider

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// Google implements Provider via OIDC: the email comes from the verified
// id_token rather than a REST call.
type Google struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogle discovers the Google OIDC endpoints. The passed context bounds
// discovery only; per-request contexts bound the exchanges.
func NewGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (*Google, error) {
	oidcProvider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, errors.Wrap(err, "[NewGoogle] oidc.NewProvider")
	}

	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oidcProvider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email"},
		},
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

func (g *Google) IdentityEmail(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrap(err, "[Google.IdentityEmail] Exchange")
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return "", errors.New("[Google.IdentityEmail] no id_token in response")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", errors.Wrap(err, "[Google.IdentityEmail] Verify")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", errors.Wrap(err, "[Google.IdentityEmail] Claims")
	}
	if claims.Email == "" || !claims.EmailVerified {
		return "", errors.New("[Google.IdentityEmail] no verified email claim")
	}
	return claims.Email, nil
}
