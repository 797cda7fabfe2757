// Package middleware provides net/http middleware that authenticates
// requests through an authkit Engine. The guards read tokens from cookies or
// a Bearer header, transparently refresh an expired access token, and expose
// the outcome through the request context.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/storyforge/authkit"
)

// AccessCookie and RefreshCookie are the cookie names the guards read and
// the HTTP handlers set.
const (
	AccessCookie  = "token"
	RefreshCookie = "refresh_token"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the authentication outcome a guard stored on
// the request context.
func AuthResultFromContext(ctx context.Context) (*authkit.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authkit.AuthResult)
	return res, ok
}

// Require rejects any request that does not carry a valid access token for a
// live session with 401. An expired or absent access token is refreshed in
// place when a refresh cookie is present, and the new token is set on the
// response.
func Require(engine *authkit.Engine) func(http.Handler) http.Handler {
	return guard(engine, true)
}

// Optional authenticates when it can and passes the request through as
// anonymous when it cannot. Handlers inspect the context to tell the two
// apart.
func Optional(engine *authkit.Engine) func(http.Handler) http.Handler {
	return guard(engine, false)
}

func guard(engine *authkit.Engine, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, refresh := tokensFromRequest(r)
			ctx := authkit.WithClientIP(r.Context(), clientIP(r))

			res, err := engine.Authenticate(ctx, access, refresh)
			if err != nil || res.Status == authkit.StatusAnonymous {
				if required {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				res = &authkit.AuthResult{Status: authkit.StatusAnonymous}
			}

			if res.Status == authkit.StatusRefreshed {
				policy := engine.CookiePolicy()
				http.SetCookie(w, &http.Cookie{
					Name:     AccessCookie,
					Value:    res.AccessToken,
					Path:     "/",
					Domain:   policy.Domain,
					MaxAge:   int(engine.AccessTTL().Seconds()),
					HttpOnly: true,
					Secure:   policy.Secure,
					SameSite: policy.SameSite,
				})
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokensFromRequest(r *http.Request) (access, refresh string) {
	if c, err := r.Cookie(AccessCookie); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		refresh = c.Value
	}
	if access == "" {
		access = bearerToken(r.Header.Get("Authorization"))
	}
	return access, refresh
}

func bearerToken(value string) string {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return ""
	}
	return value[len(bearer):]
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
