package authkit

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/storyforge/authkit/captcha"
	"github.com/storyforge/authkit/internal/rate"
	"github.com/storyforge/authkit/internal/stores"
	"github.com/storyforge/authkit/jwt"
	"github.com/storyforge/authkit/password"
	"github.com/storyforge/authkit/session"
)

// Builder assembles an [Engine]. A Builder is single-use: Build returns an
// error on the second call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users    UserDirectory
	profiles SecurityProfileStore
	links    ProviderLinkRegistry
	mailer   Mailer
	logger   *slog.Logger

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client used for sessions, attempt counters, and
// password-reset challenges.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory sets the credential-store collaborator. Required.
func (b *Builder) WithUserDirectory(d UserDirectory) *Builder {
	b.users = d
	return b
}

// WithProfileStore sets the security-profile store. Required.
func (b *Builder) WithProfileStore(s SecurityProfileStore) *Builder {
	b.profiles = s
	return b
}

// WithProviderLinks sets the provider-account link registry. Optional; when
// absent, logins skip the linking step.
func (b *Builder) WithProviderLinks(r ProviderLinkRegistry) *Builder {
	b.links = r
	return b
}

// WithMailer sets the transactional mailer used by password reset.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the internal components, and
// returns a ready [Engine].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user directory required")
	}
	if b.profiles == nil {
		return nil, errors.New("security profile store required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Method:           jwt.SigningMethod(b.config.JWT.SigningMethod),
		Issuer:           b.config.JWT.Issuer,
		AccessTTL:        b.config.JWT.AccessTTL,
		RefreshTTL:       b.config.JWT.RefreshTTL,
		AccessKey:        b.config.JWT.AccessKey,
		RefreshKey:       b.config.JWT.RefreshKey,
		AccessPublicKey:  b.config.JWT.AccessPublicKey,
		RefreshPublicKey: b.config.JWT.RefreshPublicKey,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	var verifier *captcha.Verifier
	if b.config.Captcha.Secret != "" {
		verifier = captcha.New(b.config.Captcha.Secret, b.config.Captcha.VerifyURL, b.config.Captcha.Timeout)
	}

	var resets *stores.PasswordResetStore
	if b.config.Reset.Enabled {
		resets = stores.NewPasswordResetStore(b.redis, b.config.Reset.RedisPrefix)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	b.built = true
	return &Engine{
		config:   b.config,
		sessions: session.NewStore(b.redis, tokens, b.config.Session.RedisPrefix, b.config.JWT.RefreshTTL),
		tokens:   tokens,
		limiter:  rate.New(b.redis, b.config.Throttle.CounterTTL),
		captcha:  verifier,
		hasher:   hasher,
		resets:   resets,
		metrics:  NewMetrics(b.config.Metrics.Enabled),
		logger:   logger,
		users:    b.users,
		profiles: b.profiles,
		links:    b.links,
		mailer:   b.mailer,
	}, nil
}
