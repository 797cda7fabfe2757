package authkit

import (
	"context"
	"log/slog"
	"time"

	"github.com/storyforge/authkit/captcha"
	"github.com/storyforge/authkit/internal/rate"
	"github.com/storyforge/authkit/internal/stores"
	"github.com/storyforge/authkit/jwt"
	"github.com/storyforge/authkit/password"
	"github.com/storyforge/authkit/session"
)

// Engine orchestrates the login, token, and second-factor flows. Construct
// one via [Builder.Build]; a zero Engine is not usable. All methods are safe
// for concurrent use.
type Engine struct {
	config   Config
	sessions *session.Store
	tokens   *jwt.Manager
	limiter  *rate.Limiter
	captcha  *captcha.Verifier
	hasher   *password.Hasher
	resets   *stores.PasswordResetStore
	metrics  *Metrics
	logger   *slog.Logger

	users    UserDirectory
	profiles SecurityProfileStore
	links    ProviderLinkRegistry
	mailer   Mailer
}

// Metrics exposes the engine's counter set, for wiring into an exporter.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// CookiePolicy returns the cookie attributes the HTTP surface should apply
// to token cookies.
func (e *Engine) CookiePolicy() CookieConfig {
	return e.config.Cookies
}

// AccessTTL returns the access-token lifetime, for cookie expiry.
func (e *Engine) AccessTTL() time.Duration {
	return e.config.JWT.AccessTTL
}

// RefreshTTL returns the refresh-token lifetime, for cookie expiry.
func (e *Engine) RefreshTTL() time.Duration {
	return e.config.JWT.RefreshTTL
}

func (e *Engine) record(id MetricID) {
	e.metrics.Record(id)
}

// snapshot maps a directory user to the compact view embedded in tokens and
// session records.
func snapshot(u *User) jwt.Snapshot {
	return jwt.Snapshot{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}

// userFromSnapshot rebuilds the exported User view from token claims.
func userFromSnapshot(s jwt.Snapshot) *User {
	return &User{
		ID:       s.ID,
		Email:    s.Email,
		Username: s.Username,
		Role:     s.Role,
	}
}

// ensureProfile loads the user's security profile, creating an empty one on
// first touch.
func (e *Engine) ensureProfile(ctx context.Context, userID string) (*SecurityProfile, error) {
	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &SecurityProfile{UserID: userID}
	}
	return profile, nil
}
