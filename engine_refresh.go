package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/storyforge/authkit/jwt"
	"github.com/storyforge/authkit/session"
)

// Refresh exchanges a live refresh token for a new access token. The session
// behind the token must still exist in Redis and the user must still exist
// in the directory; either one missing rejects the token as invalid, since a
// refresh token for a dead session is worthless regardless of its signature.
// The refresh token itself is returned unchanged and keeps its original
// expiry.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*session.Bundle, error) {
	bundle, _, err := e.refreshSession(ctx, refreshToken)
	return bundle, err
}

// refreshSession does the work behind [Engine.Refresh] and also hands back
// the directory user so callers building an [AuthResult] do not have to parse
// the access token they just minted.
func (e *Engine) refreshSession(ctx context.Context, refreshToken string) (*session.Bundle, *User, error) {
	claims, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		e.record(MetricRefreshFailure)
		if errors.Is(err, jwt.ErrExpired) {
			return nil, nil, ErrTokenExpired
		}
		return nil, nil, ErrTokenInvalid
	}

	rec, err := e.sessions.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.record(MetricRefreshFailure)
			return nil, nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrSessionNotFound)
		}
		return nil, nil, err
	}

	user, err := e.users.FindUserByID(ctx, rec.User.ID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		e.record(MetricRefreshFailure)
		return nil, nil, ErrTokenInvalid
	}

	access, err := e.tokens.IssueAccess(rec.SessionID, snapshot(user))
	if err != nil {
		return nil, nil, err
	}
	e.record(MetricRefreshSuccess)

	bundle := &session.Bundle{
		SessionID:    rec.SessionID,
		AccessToken:  access,
		RefreshToken: refreshToken,
	}
	return bundle, user, nil
}

// Logout invalidates the session named by the given access token. Only that
// session dies; the user's other sessions are untouched. An expired token is
// still accepted for logout as long as its signature checks out via the
// refresh token.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	sid := ""
	if claims, err := e.tokens.ParseAccess(accessToken); err == nil {
		sid = claims.SID
	} else if claims, err := e.tokens.ParseRefresh(refreshToken); err == nil {
		sid = claims.SID
	}
	if sid == "" {
		return ErrTokenInvalid
	}

	if err := e.sessions.Invalidate(ctx, sid); err != nil {
		return err
	}
	e.record(MetricSessionInvalidated)
	e.logger.Info("logout", "session_id", sid)
	return nil
}
