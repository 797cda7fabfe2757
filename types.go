package authkit

import "context"

// ProviderCredentials is the provider name for plain email+password logins.
// Any other provider value is treated as an external OAuth identity.
const ProviderCredentials = "credentials"

// TwoFactorTOTP is the only second-factor method currently issued by the
// engine. The method field is stored per profile so new methods can be added
// without a schema change.
const TwoFactorTOTP = "totp"

// User is the immutable identity snapshot the engine works with. The password
// hash is deliberately absent; it is fetched separately through
// [UserDirectory.GetPasswordHash] and never embedded in tokens or sessions.
type User struct {
	ID       string
	Email    string
	Username string
	Name     string
	Role     string
	PhotoURL string
}

// SecurityProfile carries the per-user two-factor state and login tracking.
// One row per user, created lazily on first successful login. BackupCodes is
// a single opaque joined string; see [Engine.VerifyBackupCodes] for the
// comparison contract.
type SecurityProfile struct {
	UserID           string
	TwoFactorEnabled bool
	Secret           string
	Method           string
	BackupCodes      string
	LastLoginIP      string
}

// CreateUserInput is passed to [UserDirectory.CreateUser] by sign-up and by
// first-time provider logins.
type CreateUserInput struct {
	Email        string
	Username     string
	Name         string
	PasswordHash string
	PhotoURL     string
	Role         string
}

// ProfilePatch is a one-way enrichment applied to accounts that log in
// through a provider while missing profile fields. Empty fields are ignored;
// existing non-empty fields are never overwritten.
type ProfilePatch struct {
	Name     string
	PhotoURL string
}

// UserDirectory is the credential-store collaborator. Lookup methods return
// (nil, nil) when no matching user exists; errors are reserved for backend
// failures so the orchestrator can distinguish "absent" from "outage" and
// keep the attempt counter clean on the latter.
type UserDirectory interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	GetPasswordHash(ctx context.Context, id string) (string, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) error
}

// SecurityProfileStore persists [SecurityProfile] rows. Get returns
// (nil, nil) when no profile exists. Save is an upsert writing the whole row
// in one statement so enable/disable mutations are all-or-nothing.
type SecurityProfileStore interface {
	Get(ctx context.Context, userID string) (*SecurityProfile, error)
	Save(ctx context.Context, profile *SecurityProfile) error
}

// ProviderLinkRegistry deduplicates external provider identities against
// local accounts. EnsureLinked is idempotent: a second call with identical
// arguments is a silent no-op, and concurrent duplicate calls must not
// produce duplicate rows.
type ProviderLinkRegistry interface {
	EnsureLinked(ctx context.Context, userID, provider, providerID string) error
}

// Mailer sends transactional email. Only the password-reset flow uses it.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LoginInput carries everything a single login attempt may need. Provider
// defaults to [ProviderCredentials] when empty. TOTPCode and BackupCodes are
// consulted only when the account has two-factor enabled.
type LoginInput struct {
	Provider     string `json:"provider,omitempty"`
	ProviderID   string `json:"provider_id,omitempty"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	Name         string `json:"name,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	CaptchaToken string `json:"captcha_token,omitempty"`
	TOTPCode     string `json:"totp_code,omitempty"`
	BackupCodes  string `json:"backup_codes,omitempty"`
}

// LoginResult is returned by [Engine.Login]. When SecondFactorRequired is
// true the credentials were accepted but no session was created; the caller
// must re-submit with a TOTP code or backup codes. This is a successful
// "more input needed" outcome, not an error.
type LoginResult struct {
	User                 *User
	AccessToken          string
	RefreshToken         string
	SecondFactorRequired bool
}

// SignupInput is the reduced registration path input.
type SignupInput struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// TwoFactorProvision holds the candidate secret and otpauth:// URI returned
// by [Engine.ProvisionTwoFactor]. The secret is not persisted until the user
// proves possession via [Engine.EnableTwoFactor].
type TwoFactorProvision struct {
	Secret string
	URI    string
}
