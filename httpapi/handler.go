// Package httpapi exposes the engine's flows as JSON HTTP endpoints. Every
// response uses the same envelope:
//
//	{"success": bool, "data": ..., "message": "..."}
//
// Token delivery is cookie based: login and signup set the access and
// refresh cookies, logout clears them.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storyforge/authkit"
	"github.com/storyforge/authkit/middleware"
)

// Handler bundles the HTTP endpoints for one engine.
type Handler struct {
	engine *authkit.Engine
	logger *slog.Logger
}

// New creates a Handler. logger may be nil, in which case slog.Default() is
// used.
func New(engine *authkit.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// Routes returns a chi router with all endpoints mounted:
//
//	POST /login
//	POST /signup
//	POST /logout
//	POST /password-reset
//	POST /password-reset/confirm
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)
	r.Post("/password-reset", h.RequestPasswordReset)
	r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type userPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

func toUserPayload(u *authkit.User) userPayload {
	return userPayload{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		PhotoURL: u.PhotoURL,
	}
}

// Login authenticates a credentials or provider identity. When the account
// requires a second factor the response is 200 with success=false and no
// cookies; the client re-submits with a TOTP code or backup codes.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input authkit.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "malformed request body"})
		return
	}

	ctx := authkit.WithClientIP(r.Context(), clientIP(r))
	result, err := h.engine.Login(ctx, input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if result.SecondFactorRequired {
		h.writeJSON(w, http.StatusOK, envelope{Message: "second factor required"})
		return
	}

	h.setTokenCookies(w, result.AccessToken, result.RefreshToken)
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: toUserPayload(result.User)})
}

// Signup registers a credentials account and logs it in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var input authkit.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "malformed request body"})
		return
	}

	result, err := h.engine.Signup(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setTokenCookies(w, result.AccessToken, result.RefreshToken)
	h.writeJSON(w, http.StatusCreated, envelope{Success: true, Data: toUserPayload(result.User)})
}

// Logout invalidates the current session and clears both token cookies. It
// succeeds even when the session is already gone, so a stale client can
// always reach a logged-out state.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	access, refresh := cookieValue(r, middleware.AccessCookie), cookieValue(r, middleware.RefreshCookie)

	if err := h.engine.Logout(r.Context(), access, refresh); err != nil && !errors.Is(err, authkit.ErrTokenInvalid) {
		h.writeError(w, err)
		return
	}

	h.clearTokenCookies(w)
	h.writeJSON(w, http.StatusOK, envelope{Success: true})
}

// RequestPasswordReset triggers a reset email. The response does not reveal
// whether the address has an account.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "malformed request body"})
		return
	}

	if err := h.engine.RequestPasswordReset(r.Context(), input.Email); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "if the address is registered, an email is on its way"})
}

// ConfirmPasswordReset redeems a reset token for a new password.
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeJSON(w, http.StatusBadRequest, envelope{Message: "malformed request body"})
		return
	}

	if err := h.engine.ConfirmPasswordReset(r.Context(), input.Token, input.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
