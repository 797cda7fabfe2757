package authkit

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so that the login path never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCaptchaRequired is returned when the soft attempt threshold has been
	// reached and the request carried no captcha token.
	ErrCaptchaRequired = errors.New("captcha required")
	// ErrCaptchaInvalid is returned when a supplied captcha token fails
	// remote verification.
	ErrCaptchaInvalid = errors.New("captcha verification failed")
	// ErrLockedOut is returned when the hard attempt threshold has been
	// reached; a valid captcha does not lift it.
	ErrLockedOut = errors.New("too many failed attempts")
	// ErrTokenInvalid covers malformed tokens, bad signatures, and tokens
	// whose session no longer exists.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is distinct from ErrTokenInvalid: a correctly signed
	// token past its expiry. It is the only parse outcome that triggers a
	// transparent refresh.
	ErrTokenExpired = errors.New("token expired")
	// ErrSessionNotFound means the session referenced by an otherwise valid
	// token has been invalidated or has lapsed. It travels wrapped together
	// with ErrTokenInvalid, so errors.Is matches either.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTwoFactorInvalidCode is returned when a TOTP code or backup-code
	// submission fails verification.
	ErrTwoFactorInvalidCode = errors.New("invalid two-factor code")
	// ErrTwoFactorAlreadyEnabled is returned by the enable flow when the
	// security profile already has two-factor turned on.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor already enabled")
	// ErrTwoFactorNotEnabled is returned by flows that require an active
	// two-factor configuration.
	ErrTwoFactorNotEnabled = errors.New("two-factor not enabled")
	// ErrProfileNotFound is returned when no security profile row exists for
	// a user and the operation cannot create one lazily.
	ErrProfileNotFound = errors.New("security profile not found")
	// ErrUserExists is returned by sign-up when the email is already taken.
	ErrUserExists = errors.New("email already registered")
	// ErrUsernameTaken is returned by sign-up when the username is already taken.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrPasswordMismatch is returned by sign-up when the password and its
	// confirmation differ.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrValidation is returned by sign-up for malformed name, username, or
	// email fields.
	ErrValidation = errors.New("invalid field format")
	// ErrUserNotFound is returned by lookups that require an existing account.
	ErrUserNotFound = errors.New("user not found")
	// ErrResetInvalid is returned when a password-reset token is unknown,
	// expired, or already consumed.
	ErrResetInvalid = errors.New("password reset challenge invalid")
	// ErrMailerFailure is returned when the email collaborator reports a
	// delivery failure.
	ErrMailerFailure = errors.New("email delivery failed")
	// ErrEngineNotReady is returned when the engine is used before Build
	// wired its required collaborators.
	ErrEngineNotReady = errors.New("engine not initialized")
)
