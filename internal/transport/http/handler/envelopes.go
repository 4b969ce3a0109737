package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-otp-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TokenEnvelope wraps responses that may carry an access token. When the
// account is due for mailbox re-verification, OTPRequired is set instead of
// the token.
type TokenEnvelope struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	OTPRequired bool   `json:"otp_required,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Message     string `json:"message,omitempty"`
}

// VerifiedEnvelope wraps a successful OTP validation response.
type VerifiedEnvelope struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

// OAuthStartEnvelope wraps the federated login kickoff response.
type OAuthStartEnvelope struct {
	Provider         string `json:"provider"`
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// PaginatedUsersEnvelope wraps cursor-paginated user list responses.
type PaginatedUsersEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeDomainError maps sentinel errors onto HTTP statuses with fixed
// response messages. Internal error strings never reach the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.Is(err, domain.ErrDeliveryFailed):
		writeError(w, http.StatusBadGateway, "could not deliver verification code")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrNotVerified):
		writeError(w, http.StatusForbidden, "account is not verified")
	case errors.Is(err, domain.ErrNoCodeIssued):
		writeError(w, http.StatusBadRequest, "no verification code has been issued")
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, "verification code expired")
	case errors.Is(err, domain.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, "verification code does not match")
	case errors.Is(err, domain.ErrStateExpired):
		writeError(w, http.StatusBadRequest, "oauth state expired")
	case errors.Is(err, domain.ErrStateInvalid):
		writeError(w, http.StatusBadRequest, "oauth state invalid")
	case errors.Is(err, domain.ErrProviderMismatch):
		writeError(w, http.StatusConflict, "provider mismatch")
	case errors.Is(err, domain.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, "unknown provider")
	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, domain.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad request")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
