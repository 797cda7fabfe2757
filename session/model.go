package session

import (
	"time"

	"github.com/storyforge/authkit/jwt"
)

// Record is the server-side session state stored under session:<id>. It is
// the authority on whether a token lineage is still live: tokens referencing
// a missing record are unauthenticated regardless of signature or expiry.
type Record struct {
	SessionID string       `json:"session_id"`
	User      jwt.Snapshot `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// Bundle is returned by [Store.Create]: the new session identifier plus both
// tokens with that identifier embedded.
type Bundle struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
}
