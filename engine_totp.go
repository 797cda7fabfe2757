package authkit

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/pquerna/otp/totp"

	"github.com/storyforge/authkit/internal"
)

// ProvisionTwoFactor generates a candidate TOTP secret and the otpauth://
// URI to render as a QR code. Nothing is persisted; the secret only takes
// effect once the user proves possession through [Engine.EnableTwoFactor].
func (e *Engine) ProvisionTwoFactor(ctx context.Context, userID string) (*TwoFactorProvision, error) {
	user, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile != nil && profile.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.config.TwoFactor.Issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, err
	}

	return &TwoFactorProvision{Secret: key.Secret(), URI: key.URL()}, nil
}

// EnableTwoFactor turns the second factor on after the user proves they hold
// the provisioned secret. The secret, method, and a fresh backup-code set
// are persisted in a single profile write, so the feature is never half
// enabled. The plaintext codes are returned exactly once.
func (e *Engine) EnableTwoFactor(ctx context.Context, userID, secret, code string) ([]string, error) {
	profile, err := e.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	if !verifyTOTP(code, secret) {
		e.record(MetricSecondFactorFailure)
		return nil, ErrTwoFactorInvalidCode
	}

	codes, err := internal.NewBackupCodes(e.config.TwoFactor.BackupCodeCount, e.config.TwoFactor.BackupCodeLength)
	if err != nil {
		return nil, err
	}

	profile.TwoFactorEnabled = true
	profile.Secret = secret
	profile.Method = TwoFactorTOTP
	profile.BackupCodes = strings.Join(codes, ",")
	if err := e.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}

	e.logger.Info("two-factor enabled", "user_id", userID)
	return codes, nil
}

// DisableTwoFactor turns the second factor off after a current TOTP code or
// the backup-code set is presented. Secret, method, and backup codes are
// cleared together.
func (e *Engine) DisableTwoFactor(ctx context.Context, userID, code string) error {
	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}
	if !profile.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}

	if !verifyTOTP(code, profile.Secret) && !backupCodesMatch(code, profile.BackupCodes) {
		e.record(MetricSecondFactorFailure)
		return ErrTwoFactorInvalidCode
	}

	profile.TwoFactorEnabled = false
	profile.Secret = ""
	profile.Method = ""
	profile.BackupCodes = ""
	if err := e.profiles.Save(ctx, profile); err != nil {
		return err
	}

	e.logger.Info("two-factor disabled", "user_id", userID)
	return nil
}

// VerifyBackupCodes checks a presented backup-code set against the stored
// one. Returns [ErrProfileNotFound] when the account has no security profile
// at all and [ErrTwoFactorNotEnabled] when it has one without a second
// factor.
func (e *Engine) VerifyBackupCodes(ctx context.Context, userID, codes string) (bool, error) {
	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if profile == nil {
		return false, ErrProfileNotFound
	}
	if !profile.TwoFactorEnabled {
		return false, ErrTwoFactorNotEnabled
	}
	return backupCodesMatch(codes, profile.BackupCodes), nil
}

// RegenerateBackupCodes replaces the backup-code set after a current TOTP
// code is presented. The old set stops working immediately.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, userID, code string) ([]string, error) {
	profile, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if !profile.TwoFactorEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	if !verifyTOTP(code, profile.Secret) {
		e.record(MetricSecondFactorFailure)
		return nil, ErrTwoFactorInvalidCode
	}

	codes, err := internal.NewBackupCodes(e.config.TwoFactor.BackupCodeCount, e.config.TwoFactor.BackupCodeLength)
	if err != nil {
		return nil, err
	}

	profile.BackupCodes = strings.Join(codes, ",")
	if err := e.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}
	e.record(MetricBackupCodesRegenerated)

	e.logger.Info("backup codes regenerated", "user_id", userID)
	return codes, nil
}

// verifyTOTP checks a code against a stored secret. An empty secret matches
// nothing: totp.Validate happily derives codes from the empty key, which
// would let an unconfigured account pass the gate.
func verifyTOTP(code, secret string) bool {
	if secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}

// backupCodesMatch compares the presented backup-code blob against the
// stored one in constant time. The whole set is compared as a single opaque
// string; individual codes are not consumed one at a time, so possession of
// the complete set is what is being proven.
func backupCodesMatch(provided, stored string) bool {
	if provided == "" || stored == "" {
		return false
	}
	if len(provided) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) == 1
}
