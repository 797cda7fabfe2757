package httpapi

import (
	"errors"
	"net/http"

	"github.com/storyforge/authkit"
)

// writeError maps engine sentinel errors onto HTTP statuses. Anything
// unrecognized is a backend failure and reports 500 without leaking detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authkit.ErrInvalidCredentials),
		errors.Is(err, authkit.ErrTwoFactorInvalidCode):
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "invalid credentials"})
	case errors.Is(err, authkit.ErrCaptchaRequired):
		h.writeJSON(w, http.StatusForbidden, envelope{Message: "captcha required"})
	case errors.Is(err, authkit.ErrCaptchaInvalid):
		h.writeJSON(w, http.StatusForbidden, envelope{Message: "captcha verification failed"})
	case errors.Is(err, authkit.ErrLockedOut):
		h.writeJSON(w, http.StatusTooManyRequests, envelope{Message: "too many failed attempts, try again later"})
	case errors.Is(err, authkit.ErrUserExists):
		h.writeJSON(w, http.StatusConflict, envelope{Message: "an account with this email already exists"})
	case errors.Is(err, authkit.ErrUsernameTaken):
		h.writeJSON(w, http.StatusConflict, envelope{Message: "username is taken"})
	case errors.Is(err, authkit.ErrPasswordMismatch):
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "passwords do not match"})
	case errors.Is(err, authkit.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: err.Error()})
	case errors.Is(err, authkit.ErrResetInvalid):
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "reset token is invalid or expired"})
	case errors.Is(err, authkit.ErrTokenExpired),
		errors.Is(err, authkit.ErrTokenInvalid):
		h.writeJSON(w, http.StatusUnauthorized, envelope{Message: "unauthorized"})
	default:
		h.logger.Error("request failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, envelope{Message: "internal error"})
	}
}
