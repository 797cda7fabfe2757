package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/storyforge/authkit/jwt"
	"github.com/storyforge/authkit/session"
)

// AuthStatus classifies the outcome of [Engine.Authenticate].
type AuthStatus int

const (
	// StatusAnonymous means no tokens were presented.
	StatusAnonymous AuthStatus = iota
	// StatusAuthenticated means the access token checked out against a live
	// session.
	StatusAuthenticated
	// StatusRefreshed means the access token had expired and a new one was
	// minted from the refresh token. The caller should hand AccessToken back
	// to the client.
	StatusRefreshed
)

// AuthResult is the outcome of one request-time authentication decision.
type AuthResult struct {
	Status    AuthStatus
	User      *User
	SessionID string
	// AccessToken is set only for StatusRefreshed.
	AccessToken string
}

// Authenticate decides whether a request is authenticated. A valid access
// token alone is not enough: the session it names must still exist in Redis,
// so logout takes effect immediately no matter how much lifetime the token
// has left.
//
// An expired or absent access token triggers a transparent refresh when a
// refresh token accompanies it; a browser whose access cookie has lapsed
// presents exactly that shape on every request. A token that is invalid for
// any other reason, or whose session is gone, returns [ErrTokenInvalid]; an
// expired access token with no usable refresh token returns
// [ErrTokenExpired]. With no tokens at all the result is anonymous with a
// nil error.
func (e *Engine) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if accessToken == "" && refreshToken == "" {
		return &AuthResult{Status: StatusAnonymous}, nil
	}
	if accessToken == "" {
		return e.refreshedResult(ctx, refreshToken)
	}

	claims, err := e.tokens.ParseAccess(accessToken)
	switch {
	case err == nil:
		rec, err := e.sessions.Get(ctx, claims.SID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrSessionNotFound)
			}
			return nil, err
		}
		return &AuthResult{
			Status:    StatusAuthenticated,
			User:      userFromSnapshot(rec.User),
			SessionID: rec.SessionID,
		}, nil

	case errors.Is(err, jwt.ErrExpired):
		if refreshToken == "" {
			return nil, ErrTokenExpired
		}
		return e.refreshedResult(ctx, refreshToken)

	default:
		return nil, ErrTokenInvalid
	}
}

func (e *Engine) refreshedResult(ctx context.Context, refreshToken string) (*AuthResult, error) {
	bundle, user, err := e.refreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Status:      StatusRefreshed,
		User:        user,
		SessionID:   bundle.SessionID,
		AccessToken: bundle.AccessToken,
	}, nil
}
