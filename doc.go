// Package authkit is an embeddable authentication and session-lifecycle
// engine. It issues JWT access/refresh token pairs backed by Redis session
// records, throttles failed logins per client IP with a captcha step before
// outright lockout, and manages TOTP second factors with backup codes.
//
// The engine owns orchestration only. User records, security profiles, and
// provider-account links live behind the [UserDirectory],
// [SecurityProfileStore], and [ProviderLinkRegistry] interfaces, so any
// storage backend can be plugged in; the pgstore package ships a PostgreSQL
// implementation.
//
// Construct an [Engine] through the [Builder]:
//
//	engine, err := authkit.New().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithUserDirectory(users).
//		WithProfileStore(profiles).
//		Build()
package authkit
