package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-identity-api/internal/domain"
)

// MessageEnvelope is the generic success wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// APIError is the structured body returned by every failing endpoint.
type APIError struct {
	Status    int       `json:"status"`
	Kind      string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SafeUser is the sanitized account summary. The password hash never appears
// in any response.
type SafeUser struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSafeUser(u *domain.User) *SafeUser {
	return &SafeUser{
		ID:          u.UserID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		Enabled:     u.Enabled,
		CreatedAt:   u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, APIError{
		Status:    status,
		Kind:      kind,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
}

// httpError translates a domain error into the structured HTTP response.
// This is the single place where business failures become status codes.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "EmailAlreadyExists", err.Error())
	case errors.Is(err, domain.ErrInvalidOTP):
		writeError(w, http.StatusBadRequest, "InvalidOrExpiredOtp", err.Error())
	case errors.Is(err, domain.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, "AlreadyVerified", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "InternalServerError",
			"Something went wrong. Please try again.")
	}
}
