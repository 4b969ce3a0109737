package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/domain"
	pkgtoken "github.com/go-otp-auth/internal/pkg/token"
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims holds the access token payload. The subject is the user email.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// StateClaims holds the OAuth anti-forgery state payload. The token is bound
// to the provider it was minted for and carries a random nonce so two states
// minted in the same second still differ.
type StateClaims struct {
	Provider string `json:"provider"`
	Nonce    string `json:"nonce"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a process-wide shared secret.
// It backs both access tokens and OAuth state tokens; verification is pure
// and stateless.
type Provider struct {
	secret    []byte
	accessTTL time.Duration
	stateTTL  time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return &Provider{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: cfg.AccessTokenExpiry,
		stateTTL:  cfg.OAuthStateTTL,
	}, nil
}

// SignAccess mints an access token for the given subject email.
func (p *Provider) SignAccess(email string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// VerifyAccess checks signature and expiry and returns the subject email.
// A structurally valid but expired token yields domain.ErrTokenExpired; any
// other failure yields domain.ErrTokenInvalid. Callers rely on the
// distinction to trigger re-authentication instead of a generic failure.
func (p *Provider) VerifyAccess(tokenStr string) (string, error) {
	var claims AccessClaims
	if err := p.parse(tokenStr, &claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("access token: %w", domain.ErrTokenExpired)
		}
		return "", fmt.Errorf("access token: %w", domain.ErrTokenInvalid)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("access token missing subject: %w", domain.ErrTokenInvalid)
	}
	return claims.Subject, nil
}

// SignState mints a short-lived anti-forgery state token bound to provider.
func (p *Provider) SignState(provider string) (string, error) {
	nonce, err := pkgtoken.NewNonce()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := StateClaims{
		Provider: provider,
		Nonce:    nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.stateTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// VerifyState checks the state token against the provider the callback claims
// to come from. A state minted for one provider never validates for another.
func (p *Provider) VerifyState(provider, stateStr string) error {
	var claims StateClaims
	if err := p.parse(stateStr, &claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("oauth state: %w", domain.ErrStateExpired)
		}
		return fmt.Errorf("oauth state: %w", domain.ErrStateInvalid)
	}
	if claims.Provider != provider {
		return fmt.Errorf("state minted for %q, presented for %q: %w", claims.Provider, provider, domain.ErrProviderMismatch)
	}
	return nil
}

func (p *Provider) parse(tokenStr string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}
