package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-otp-auth/internal/application/auth"
)

// OAuthHandler handles the federated login kickoff and callback endpoints.
type OAuthHandler struct {
	svc auth.Service
}

func NewOAuthHandler(svc auth.Service) *OAuthHandler { return &OAuthHandler{svc: svc} }

func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	redirectURI := r.URL.Query().Get("redirect_uri")
	res, err := h.svc.OAuthStart(r.Context(), providerName, redirectURI)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OAuthStartEnvelope{
		Provider:         res.Provider,
		AuthorizationURL: res.AuthorizationURL,
		State:            res.State,
	})
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	req := auth.OAuthCallbackRequest{
		Code:  r.URL.Query().Get("code"),
		State: r.URL.Query().Get("state"),
	}
	if req.Code == "" || req.State == "" {
		writeError(w, http.StatusBadRequest, "code and state are required")
		return
	}
	if ru := r.URL.Query().Get("redirect_uri"); ru != "" {
		req.RedirectURI = &ru
	}
	res, err := h.svc.OAuthCallback(r.Context(), providerName, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		Provider:    res.Provider,
	})
}
