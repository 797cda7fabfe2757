package httpapi

import (
	"net"
	"net/http"
	"strings"

	"github.com/storyforge/authkit/middleware"
)

func (h *Handler) setTokenCookies(w http.ResponseWriter, access, refresh string) {
	policy := h.engine.CookiePolicy()

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    access,
		Path:     "/",
		Domain:   policy.Domain,
		MaxAge:   int(h.engine.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    refresh,
		Path:     "/",
		Domain:   policy.Domain,
		MaxAge:   int(h.engine.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	policy := h.engine.CookiePolicy()
	for _, name := range []string{middleware.AccessCookie, middleware.RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   policy.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   policy.Secure,
			SameSite: policy.SameSite,
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
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
