package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func withProviderParam(req *http.Request, name string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("provider", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestOAuthStart_UnknownProvider(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("OAuthStart", mock.Anything, "gitlab", "").Return(nil, domain.ErrUnknownProvider)

	h := NewOAuthHandler(svc)
	req := withProviderParam(httptest.NewRequest(http.MethodGet, "/v1/auth/oauth/gitlab/start", nil), "gitlab")
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOAuthStart_ReturnsAuthorizationURL(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("OAuthStart", mock.Anything, "google", "").Return(&auth.OAuthStartResult{
		Provider:         "google",
		AuthorizationURL: "https://accounts.google.com/auth?state=s1",
		State:            "s1",
	}, nil)

	h := NewOAuthHandler(svc)
	req := withProviderParam(httptest.NewRequest(http.MethodGet, "/v1/auth/oauth/google/start", nil), "google")
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "authorization_url")
	assert.Contains(t, rec.Body.String(), "s1")
}

func TestOAuthCallback_MissingParams(t *testing.T) {
	h := NewOAuthHandler(&mockAuthService{})
	req := withProviderParam(httptest.NewRequest(http.MethodGet, "/v1/auth/oauth/google/callback?code=c1", nil), "google")
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOAuthCallback_StateExpired(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("OAuthCallback", mock.Anything, "google", mock.Anything).Return(nil, domain.ErrStateExpired)

	h := NewOAuthHandler(svc)
	req := withProviderParam(httptest.NewRequest(http.MethodGet, "/v1/auth/oauth/google/callback?code=c1&state=s1", nil), "google")
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "state expired")
}

func TestOAuthCallback_ReturnsToken(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("OAuthCallback", mock.Anything, "google", auth.OAuthCallbackRequest{Code: "c1", State: "s1"}).
		Return(&auth.OAuthCallbackResult{AccessToken: "tok", Provider: "google"}, nil)

	h := NewOAuthHandler(svc)
	req := withProviderParam(httptest.NewRequest(http.MethodGet, "/v1/auth/oauth/google/callback?code=c1&state=s1", nil), "google")
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"tok"`)
	assert.Contains(t, rec.Body.String(), `"provider":"google"`)
}
