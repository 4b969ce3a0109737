package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/application/otp"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/infrastructure/provider"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
	"github.com/go-otp-auth/internal/infrastructure/sns"
	"github.com/go-otp-auth/internal/pkg/id"
	"github.com/go-otp-auth/internal/pkg/password"
)

// exchangeTimeout bounds the provider round trip during an OAuth callback.
const exchangeTimeout = 20 * time.Second

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries either a minted access token or the signal that a
// fresh OTP cycle was started and must be completed first.
type LoginResult struct {
	AccessToken string
	OTPRequired bool
}

type OAuthStartResult struct {
	Provider         string
	AuthorizationURL string
	State            string
}

type OAuthCallbackRequest struct {
	Code        string  `json:"code" validate:"required"`
	State       string  `json:"state" validate:"required"`
	RedirectURI *string `json:"redirect_uri"`
}

type OAuthCallbackResult struct {
	AccessToken string
	Provider    string
}

// UserStore is the durable identity store keyed by email.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// TokenCodec signs access tokens and OAuth state tokens.
type TokenCodec interface {
	SignAccess(email string) (string, error)
	SignState(provider string) (string, error)
	VerifyState(provider, state string) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	OAuthStart(ctx context.Context, providerName, redirectURI string) (*OAuthStartResult, error)
	OAuthCallback(ctx context.Context, providerName string, req OAuthCallbackRequest) (*OAuthCallbackResult, error)
	CurrentUser(ctx context.Context, email string) (*domain.User, error)
}

type service struct {
	users     UserStore
	otp       otp.Service
	providers provider.Registry
	codec     TokenCodec
	mailer    smtp.Mailer
	sms       sns.SMSSender
	accessTTL time.Duration
	otpTTL    time.Duration
}

func NewService(
	users UserStore,
	otpSvc otp.Service,
	providers provider.Registry,
	codec TokenCodec,
	mailer smtp.Mailer,
	sms sns.SMSSender,
	accessTTL time.Duration,
	otpTTL time.Duration,
) Service {
	return &service{
		users:     users,
		otp:       otpSvc,
		providers: providers,
		codec:     codec,
		mailer:    mailer,
		sms:       sms,
		accessTTL: accessTTL,
		otpTTL:    otpTTL,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) error {
	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return fmt.Errorf("register %s: %w", req.Email, domain.ErrDuplicateEmail)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		AuthProvider: domain.ProviderLocal,
		Role:         domain.RoleUser,
		Active:       false,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return err
	}
	return s.issueAndDeliver(ctx, u)
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if err := s.otp.Validate(ctx, req.Email, req.Code); err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{
		"is_active":            true,
		"is_verified":          true,
		"last_otp_verified_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *service) ResendOTP(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.Local() {
		return fmt.Errorf("account uses %s sign-in: %w", u.AuthProvider, domain.ErrBadRequest)
	}
	if u.Verified && !s.reverificationDue(u) {
		return fmt.Errorf("account already verified: %w", domain.ErrBadRequest)
	}
	return s.issueAndDeliver(ctx, u)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("login %s: %w", req.Email, domain.ErrInvalidCredentials)
		}
		return nil, err
	}
	if !u.Local() {
		// Provider accounts carry no password hash and never pass the
		// password path.
		return nil, fmt.Errorf("account uses %s sign-in: %w", u.AuthProvider, domain.ErrInvalidCredentials)
	}
	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, fmt.Errorf("login %s: %w", req.Email, domain.ErrInvalidCredentials)
	}
	if !u.Verified || !u.Active {
		return nil, fmt.Errorf("login %s: %w", req.Email, domain.ErrNotVerified)
	}

	// Periodic re-proof of mailbox ownership: once the last OTP validation
	// is older than the access-token lifetime, a fresh cycle is required
	// before a new token is minted.
	if s.reverificationDue(u) {
		if err := s.issueAndDeliver(ctx, u); err != nil {
			return nil, err
		}
		return &LoginResult{OTPRequired: true}, nil
	}

	tok, err := s.codec.SignAccess(u.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: tok}, nil
}

func (s *service) OAuthStart(_ context.Context, providerName, redirectURI string) (*OAuthStartResult, error) {
	client, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	state, err := s.codec.SignState(client.Name())
	if err != nil {
		return nil, err
	}
	return &OAuthStartResult{
		Provider:         client.Name(),
		AuthorizationURL: client.AuthCodeURL(state, redirectURI),
		State:            state,
	}, nil
}

func (s *service) OAuthCallback(ctx context.Context, providerName string, req OAuthCallbackRequest) (*OAuthCallbackResult, error) {
	client, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	// Any state failure is terminal: the callback cannot be retried.
	if err := s.codec.VerifyState(client.Name(), req.State); err != nil {
		return nil, err
	}

	redirectURI := ""
	if req.RedirectURI != nil {
		redirectURI = *req.RedirectURI
	}
	exCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	profile, err := client.Exchange(exCtx, req.Code, redirectURI)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("provider %s did not supply an email address: %w", client.Name(), domain.ErrBadRequest)
	}

	u, err := s.users.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if u.AuthProvider != profile.Provider {
			return nil, fmt.Errorf("account %s is bound to %q sign-in: %w", profile.Email, u.AuthProvider, domain.ErrProviderMismatch)
		}
		if u.ProviderSubjectID != "" && u.ProviderSubjectID != profile.SubjectID {
			return nil, fmt.Errorf("provider subject id mismatch for %s: %w", profile.Email, domain.ErrProviderMismatch)
		}
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
			"is_active":           true,
			"is_verified":         true,
			"provider_subject_id": profile.SubjectID,
		}); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now().UTC()
		u = &domain.User{
			UserID:            id.New(),
			Email:             profile.Email,
			AuthProvider:      profile.Provider,
			ProviderSubjectID: profile.SubjectID,
			Role:              domain.RoleUser,
			Active:            true,
			Verified:          true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.users.Put(ctx, u); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	tok, err := s.codec.SignAccess(u.Email)
	if err != nil {
		return nil, err
	}
	return &OAuthCallbackResult{AccessToken: tok, Provider: client.Name()}, nil
}

func (s *service) CurrentUser(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

// reverificationDue reports whether the last successful OTP validation is
// older than the access-token lifetime. Compared against the recorded
// timestamp, never inferred from token verification.
func (s *service) reverificationDue(u *domain.User) bool {
	if u.LastOTPVerifiedAt == nil {
		return true
	}
	return time.Since(*u.LastOTPVerifiedAt) > s.accessTTL
}

// issueAndDeliver mints a code and dispatches it. A code that could not be
// delivered is invalidated before the error surfaces: no live code may exist
// for a mailbox that never received it.
func (s *service) issueAndDeliver(ctx context.Context, u *domain.User) error {
	c, err := s.otp.Issue(ctx, u.Email)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Your one-time verification code is %s. It expires in %s.", c, s.otpTTL)
	if err := s.mailer.SendEmail(u.Email, "Your verification code", body); err != nil {
		if invErr := s.otp.Invalidate(ctx, u.Email); invErr != nil {
			slog.Warn("failed to invalidate undelivered otp", "email", u.Email, "err", invErr)
		}
		return fmt.Errorf("send verification email: %v: %w", err, domain.ErrDeliveryFailed)
	}
	if u.Phone != nil && s.sms != nil {
		// Secondary channel, best effort; the email already carried the code.
		if err := s.sms.SendSMS(ctx, *u.Phone, "Your verification code: "+c); err != nil {
			slog.Warn("sms delivery failed", "user_id", u.UserID, "err", err)
		}
	}
	return nil
}
