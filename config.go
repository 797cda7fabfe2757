package authkit

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Config defines the engine's tunable behavior. Instances are intended to be
// configured during initialization and then treated as immutable.
type Config struct {
	JWT       JWTConfig
	Session   SessionConfig
	Throttle  ThrottleConfig
	Captcha   CaptchaConfig
	TwoFactor TwoFactorConfig
	Password  PasswordConfig
	Reset     ResetConfig
	Cookies   CookieConfig
	Metrics   MetricsConfig
}

// JWTConfig holds token lifetimes and the two signing key pairs. Access and
// refresh tokens are signed with distinct keys so a refresh token can never
// be presented as an access token or vice versa.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	AccessKey     []byte
	RefreshKey    []byte
	// Public halves, only consulted for ed25519.
	AccessPublicKey  []byte
	RefreshPublicKey []byte
	Issuer           string
}

// SessionConfig controls the Redis session namespace. The session TTL is
// always the refresh-token lifetime and is not configured separately.
type SessionConfig struct {
	RedisPrefix string
}

// ThrottleConfig tunes the IP-keyed failed-attempt counter. SoftThreshold
// triggers the captcha requirement, HardThreshold the outright lockout;
// Validate enforces Hard > Soft.
type ThrottleConfig struct {
	SoftThreshold int
	HardThreshold int
	CounterTTL    time.Duration
}

// CaptchaConfig points the verifier at the remote verification endpoint.
type CaptchaConfig struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

// TwoFactorConfig tunes TOTP issuance and backup codes.
type TwoFactorConfig struct {
	Issuer           string
	BackupCodeCount  int
	BackupCodeLength int
}

// PasswordConfig holds the argon2id parameters. Memory is in KiB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// ResetConfig tunes the password-reset challenge store.
type ResetConfig struct {
	Enabled     bool
	TTL         time.Duration
	RedisPrefix string
}

// CookieConfig controls the token cookie attributes the HTTP surface sets.
// Secure should be false only in local development.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "authkit",
		},
		Session: SessionConfig{
			RedisPrefix: "session",
		},
		Throttle: ThrottleConfig{
			SoftThreshold: 3,
			HardThreshold: 4,
			CounterTTL:    300 * time.Second,
		},
		Captcha: CaptchaConfig{
			VerifyURL: "https://www.google.com/recaptcha/api/siteverify",
			Timeout:   5 * time.Second,
		},
		TwoFactor: TwoFactorConfig{
			Issuer:           "authkit",
			BackupCodeCount:  5,
			BackupCodeLength: 10,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Reset: ResetConfig{
			Enabled:     true,
			TTL:         30 * time.Minute,
			RedisPrefix: "pwreset",
		},
		Cookies: CookieConfig{
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks the configuration for internally inconsistent or unsafe
// values. It is called by [Builder.Build].
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	switch c.JWT.SigningMethod {
	case "hs256", "ed25519":
	default:
		return errors.New("unsupported signing method")
	}
	if len(c.JWT.AccessKey) == 0 || len(c.JWT.RefreshKey) == 0 {
		return errors.New("both signing keys are required")
	}
	if string(c.JWT.AccessKey) == string(c.JWT.RefreshKey) {
		return errors.New("access and refresh keys must differ")
	}
	if c.Throttle.SoftThreshold <= 0 {
		return errors.New("soft threshold must be positive")
	}
	if c.Throttle.HardThreshold <= c.Throttle.SoftThreshold {
		return errors.New("hard threshold must exceed soft threshold")
	}
	if c.Throttle.CounterTTL <= 0 {
		return errors.New("attempt counter TTL must be positive")
	}
	if c.TwoFactor.BackupCodeCount <= 0 || c.TwoFactor.BackupCodeLength < 8 {
		return errors.New("invalid backup code parameters")
	}
	if c.Password.Memory == 0 || c.Password.Time == 0 || c.Password.Parallelism == 0 {
		return errors.New("invalid argon2 parameters")
	}
	if c.Reset.Enabled && c.Reset.TTL <= 0 {
		return errors.New("reset TTL must be positive")
	}
	return nil
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// defaults for anything unset. Recognized keys:
//
//	AUTH_ACCESS_KEY, AUTH_REFRESH_KEY, AUTH_ACCESS_TTL, AUTH_REFRESH_TTL,
//	AUTH_SOFT_THRESHOLD, AUTH_HARD_THRESHOLD, AUTH_ATTEMPT_TTL,
//	AUTH_CAPTCHA_SECRET, AUTH_CAPTCHA_URL, AUTH_TOTP_ISSUER, AUTH_DEV_MODE
//
// AUTH_DEV_MODE=1 relaxes the cookie policy to SameSite=Lax without Secure,
// for local development only.
func ConfigFromEnv() Config {
	cfg := defaultConfig()

	if v := os.Getenv("AUTH_ACCESS_KEY"); v != "" {
		cfg.JWT.AccessKey = []byte(v)
	}
	if v := os.Getenv("AUTH_REFRESH_KEY"); v != "" {
		cfg.JWT.RefreshKey = []byte(v)
	}
	if d, ok := envDuration("AUTH_ACCESS_TTL"); ok {
		cfg.JWT.AccessTTL = d
	}
	if d, ok := envDuration("AUTH_REFRESH_TTL"); ok {
		cfg.JWT.RefreshTTL = d
	}
	if n, ok := envInt("AUTH_SOFT_THRESHOLD"); ok {
		cfg.Throttle.SoftThreshold = n
	}
	if n, ok := envInt("AUTH_HARD_THRESHOLD"); ok {
		cfg.Throttle.HardThreshold = n
	}
	if d, ok := envDuration("AUTH_ATTEMPT_TTL"); ok {
		cfg.Throttle.CounterTTL = d
	}
	if v := os.Getenv("AUTH_CAPTCHA_SECRET"); v != "" {
		cfg.Captcha.Secret = v
	}
	if v := os.Getenv("AUTH_CAPTCHA_URL"); v != "" {
		cfg.Captcha.VerifyURL = v
	}
	if v := os.Getenv("AUTH_TOTP_ISSUER"); v != "" {
		cfg.TwoFactor.Issuer = v
	}
	if os.Getenv("AUTH_DEV_MODE") == "1" {
		cfg.Cookies.Secure = false
		cfg.Cookies.SameSite = http.SameSiteLaxMode
	}

	return cfg
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
