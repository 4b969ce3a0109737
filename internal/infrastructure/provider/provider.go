package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/domain"
)

// Profile is the normalized identity returned by a provider exchange.
type Profile struct {
	Provider  string
	SubjectID string
	Email     string
	Name      string
}

// Client builds authorization URLs and exchanges authorization codes for
// verified profiles with a single OAuth provider.
type Client interface {
	Name() string
	// AuthCodeURL returns the provider authorization URL carrying state.
	// redirectURI overrides the configured redirect when non-empty.
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*Profile, error)
}

// Registry holds the configured provider clients keyed by provider name.
// Providers with missing client credentials are simply absent.
type Registry map[string]Client

func NewRegistry(cfg *config.Config) Registry {
	reg := Registry{}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		reg[domain.ProviderGoogle] = NewGoogle(cfg)
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		reg[domain.ProviderGitHub] = NewGitHub(cfg)
	}
	return reg
}

// Get returns the client for the (case-insensitive) provider name, or
// domain.ErrUnknownProvider when it is not configured.
func (r Registry) Get(name string) (Client, error) {
	c, ok := r[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, domain.ErrUnknownProvider)
	}
	return c, nil
}
