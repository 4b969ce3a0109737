package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req auth.RegisterRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthService) VerifyOTP(ctx context.Context, req auth.VerifyOTPRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthService) ResendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*auth.LoginResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) OAuthStart(ctx context.Context, providerName, redirectURI string) (*auth.OAuthStartResult, error) {
	args := m.Called(ctx, providerName, redirectURI)
	if res, _ := args.Get(0).(*auth.OAuthStartResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) OAuthCallback(ctx context.Context, providerName string, req auth.OAuthCallbackRequest) (*auth.OAuthCallbackResult, error) {
	args := m.Called(ctx, providerName, req)
	if res, _ := args.Get(0).(*auth.OAuthCallbackResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) CurrentUser(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegister_Accepted(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil)

	h := NewAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"email":"a@b.com","password":"password1"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "verification code sent")
}

func TestRegister_DuplicateEmailDoesNotDiscloseAccount(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Register", mock.Anything, mock.Anything).Return(domain.ErrDuplicateEmail)

	h := NewAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"email":"a@b.com","password":"password1"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "already registered")
}

func TestRegister_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_ValidationRejectsShortPassword(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"email":"a@b.com","password":"short"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_ReturnsToken(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Login", mock.Anything, mock.Anything).Return(&auth.LoginResult{AccessToken: "tok"}, nil)

	h := NewAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"a@b.com","password":"password1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"tok"`)
	assert.Contains(t, rec.Body.String(), `"token_type":"bearer"`)
}

func TestLogin_OTPRequiredOmitsToken(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Login", mock.Anything, mock.Anything).Return(&auth.LoginResult{OTPRequired: true}, nil)

	h := NewAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"a@b.com","password":"password1"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"otp_required":true`)
	assert.NotContains(t, rec.Body.String(), "access_token")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidCredentials)

	h := NewAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"a@b.com","password":"wrongpass"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("VerifyOTP", mock.Anything, mock.Anything).Return(domain.ErrCodeExpired)

	h := NewAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify-otp",
		strings.NewReader(`{"email":"a@b.com","code":"123456"}`))
	rec := httptest.NewRecorder()
	h.VerifyOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}
