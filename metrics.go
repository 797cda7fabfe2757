package authkit

import "sync/atomic"

// MetricID identifies one of the Engine's internal counters.
type MetricID uint8

const (
	// MetricLoginSuccess counts completed logins, whatever the provider.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected identity proofs.
	MetricLoginFailure
	// MetricLoginLockedOut counts logins refused by the hard threshold.
	MetricLoginLockedOut
	// MetricCaptchaRequired counts logins bounced for a missing captcha.
	MetricCaptchaRequired
	// MetricCaptchaFailed counts captcha tokens that did not verify.
	MetricCaptchaFailed
	// MetricSecondFactorRequired counts logins paused awaiting a second factor.
	MetricSecondFactorRequired
	// MetricSecondFactorFailure counts rejected TOTP codes and backup codes.
	MetricSecondFactorFailure
	// MetricSignupSuccess counts newly registered users.
	MetricSignupSuccess
	// MetricRefreshSuccess counts access tokens minted from a refresh token.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh attempts with a bad token or dead session.
	MetricRefreshFailure
	// MetricSessionCreated counts sessions written to Redis.
	MetricSessionCreated
	// MetricSessionInvalidated counts sessions removed by logout.
	MetricSessionInvalidated
	// MetricPasswordResetRequest counts reset emails dispatched.
	MetricPasswordResetRequest
	// MetricPasswordResetConfirm counts passwords replaced via a reset token.
	MetricPasswordResetConfirm
	// MetricBackupCodesRegenerated counts backup-code set replacements.
	MetricBackupCodesRegenerated

	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:           "login_success",
	MetricLoginFailure:           "login_failure",
	MetricLoginLockedOut:         "login_locked_out",
	MetricCaptchaRequired:        "captcha_required",
	MetricCaptchaFailed:          "captcha_failed",
	MetricSecondFactorRequired:   "second_factor_required",
	MetricSecondFactorFailure:    "second_factor_failure",
	MetricSignupSuccess:          "signup_success",
	MetricRefreshSuccess:         "refresh_success",
	MetricRefreshFailure:         "refresh_failure",
	MetricSessionCreated:         "session_created",
	MetricSessionInvalidated:     "session_invalidated",
	MetricPasswordResetRequest:   "password_reset_request",
	MetricPasswordResetConfirm:   "password_reset_confirm",
	MetricBackupCodesRegenerated: "backup_codes_regenerated",
}

// Name returns the snake_case identifier used when exporting the counter.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics holds the Engine's counters. All methods are safe for concurrent
// use. A nil or disabled Metrics records nothing.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a counter set. When enabled is false every Record call
// is a no-op, which keeps the hot path free of atomic writes.
func NewMetrics(enabled bool) *Metrics {
	return &Metrics{enabled: enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Record increments the counter for id.
func (m *Metrics) Record(id MetricID) {
	if !m.Enabled() || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter into a map keyed by metric name.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id.Name()] = m.Value(id)
	}
	return out
}
