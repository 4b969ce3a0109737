package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHub exchanges authorization codes via the GitHub OAuth endpoint, then
// fetches the user profile over the REST API. GitHub may hide the account
// email; in that case the primary verified address is looked up separately.
type GitHub struct {
	conf *oauth2.Config
}

func NewGitHub(cfg *config.Config) *GitHub {
	return &GitHub{conf: &oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubRedirectURI,
		Endpoint:     github.Endpoint,
		Scopes:       []string{"read:user", "user:email"},
	}}
}

func (g *GitHub) Name() string { return domain.ProviderGitHub }

func (g *GitHub) AuthCodeURL(state, redirectURI string) string {
	return g.confFor(redirectURI).AuthCodeURL(state,
		oauth2.SetAuthURLParam("allow_signup", "true"),
	)
}

func (g *GitHub) Exchange(ctx context.Context, code, redirectURI string) (*Profile, error) {
	conf := g.confFor(redirectURI)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange github code: %v: %w", err, domain.ErrUnauthorized)
	}
	client := conf.Client(ctx, tok)

	var user struct {
		ID    int64   `json:"id"`
		Login string  `json:"login"`
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := getJSON(ctx, client, "https://api.github.com/user", &user); err != nil {
		return nil, fmt.Errorf("fetch github profile: %v: %w", err, domain.ErrUnauthorized)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github profile missing id: %w", domain.ErrUnauthorized)
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	if email == "" {
		// Public email hidden; use the primary verified address instead.
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
		}
	}

	name := user.Login
	if user.Name != nil && *user.Name != "" {
		name = *user.Name
	}
	return &Profile{
		Provider:  domain.ProviderGitHub,
		SubjectID: fmt.Sprintf("%d", user.ID),
		Email:     email,
		Name:      name,
	}, nil
}

func (g *GitHub) confFor(redirectURI string) *oauth2.Config {
	if redirectURI == "" {
		return g.conf
	}
	conf := *g.conf
	conf.RedirectURL = redirectURI
	return &conf
}

func getJSON(ctx context.Context, client *http.Client, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
