package provider

import (
	"context"
	"fmt"

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// Google exchanges authorization codes via the Google OAuth2 endpoint and
// extracts identity from the ID token returned with the exchange. Validating
// the ID token (signature, audience, issuer) replaces a separate userinfo
// round trip.
type Google struct {
	conf *oauth2.Config
}

func NewGoogle(cfg *config.Config) *Google {
	return &Google{conf: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}}
}

func (g *Google) Name() string { return domain.ProviderGoogle }

func (g *Google) AuthCodeURL(state, redirectURI string) string {
	return g.confFor(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (g *Google) Exchange(ctx context.Context, code, redirectURI string) (*Profile, error) {
	tok, err := g.confFor(redirectURI).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange google code: %v: %w", err, domain.ErrUnauthorized)
	}
	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		return nil, fmt.Errorf("google token missing id_token: %w", domain.ErrUnauthorized)
	}
	payload, err := idtoken.Validate(ctx, rawID, g.conf.ClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google id token: %w", domain.ErrUnauthorized)
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	return &Profile{
		Provider:  domain.ProviderGoogle,
		SubjectID: payload.Subject,
		Email:     email,
		Name:      name,
	}, nil
}

func (g *Google) confFor(redirectURI string) *oauth2.Config {
	if redirectURI == "" {
		return g.conf
	}
	conf := *g.conf
	conf.RedirectURL = redirectURI
	return &conf
}
