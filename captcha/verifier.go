// Package captcha validates client-submitted challenge tokens against a
// remote verification endpoint. The verifier fails closed: network failures,
// timeouts, non-2xx responses, and unparseable bodies all count as a failed
// verification, never a pass.
package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Verifier calls a reCAPTCHA-style verification endpoint keyed by a shared
// secret.
type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// New creates a [Verifier]. timeout bounds the remote call; a timeout is a
// verification failure.
func New(secret, verifyURL string, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	Success bool `json:"success"`
}

// Verify submits token to the remote endpoint and reports whether the
// challenge passed. The returned error is informational for logging; callers
// must treat any false result as a failed gate regardless of the error.
func (v *Verifier) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" || v.secret == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}

	return body.Success, nil
}
