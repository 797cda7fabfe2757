package authkit

import "context"

// Login runs one login attempt end to end: lockout check, captcha gate,
// identity proof, provider linking, second-factor gate, then session
// creation. On any outcome that reflects bad caller input the IP's
// failed-attempt counter is incremented; backend outages return early
// without touching the counter.
//
// When the account has two-factor enabled and input carries no factor, the
// returned result has SecondFactorRequired set and a nil error; no session
// exists yet and the caller must re-submit with a TOTP code or backup codes.
func (e *Engine) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ip := clientIPFromContext(ctx)

	locked, err := e.limiter.Exceeds(ctx, ip, e.config.Throttle.HardThreshold)
	if err != nil {
		return nil, err
	}
	if locked {
		// A blocked attempt still counts, so hammering extends the window.
		e.noteFailure(ctx, ip)
		e.record(MetricLoginLockedOut)
		return nil, ErrLockedOut
	}

	if err := e.captchaGate(ctx, ip, input.CaptchaToken); err != nil {
		return nil, err
	}

	provider := input.Provider
	if provider == "" {
		provider = ProviderCredentials
	}

	var user *User
	if provider == ProviderCredentials {
		user, err = e.verifyCredentials(ctx, ip, input)
	} else {
		user, err = e.resolveProviderUser(ctx, provider, input)
	}
	if err != nil {
		return nil, err
	}

	// Credentials logins link too, so every authenticated provider shows up
	// in the registry. Provider logins record theirs in resolveProviderUser.
	if provider == ProviderCredentials && e.links != nil {
		if err := e.links.EnsureLinked(ctx, user.ID, ProviderCredentials, user.ID); err != nil {
			return nil, err
		}
	}

	profile, err := e.profiles.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil && profile.TwoFactorEnabled {
		switch {
		case input.TOTPCode == "" && input.BackupCodes == "":
			e.record(MetricSecondFactorRequired)
			return &LoginResult{User: user, SecondFactorRequired: true}, nil
		case input.TOTPCode != "":
			if !verifyTOTP(input.TOTPCode, profile.Secret) {
				e.noteFailure(ctx, ip)
				e.record(MetricSecondFactorFailure)
				return nil, ErrTwoFactorInvalidCode
			}
		default:
			if !backupCodesMatch(input.BackupCodes, profile.BackupCodes) {
				e.noteFailure(ctx, ip)
				e.record(MetricSecondFactorFailure)
				return nil, ErrTwoFactorInvalidCode
			}
		}
	}

	bundle, err := e.sessions.Create(ctx, snapshot(user))
	if err != nil {
		return nil, err
	}
	e.record(MetricSessionCreated)

	if err := e.limiter.Clear(ctx, ip); err != nil {
		e.logger.Warn("failed to clear attempt counter", "ip", ip, "error", err)
	}

	if profile == nil {
		profile = &SecurityProfile{UserID: user.ID}
	}
	if ip != "" {
		profile.LastLoginIP = ip
	}
	if err := e.profiles.Save(ctx, profile); err != nil {
		// The session is already live; profile bookkeeping must not undo it.
		e.logger.Warn("failed to save security profile", "user_id", user.ID, "error", err)
	}

	e.record(MetricLoginSuccess)
	e.logger.Info("login", "user_id", user.ID, "provider", provider)

	return &LoginResult{
		User:         user,
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
	}, nil
}

// captchaGate enforces the soft threshold: once an IP crosses it, every
// further attempt must carry a captcha token that verifies. Verification
// failures of any kind, including verifier outages, reject the attempt.
func (e *Engine) captchaGate(ctx context.Context, ip, token string) error {
	if e.captcha == nil {
		return nil
	}

	soft, err := e.limiter.Exceeds(ctx, ip, e.config.Throttle.SoftThreshold)
	if err != nil {
		return err
	}
	if !soft {
		return nil
	}

	if token == "" {
		e.noteFailure(ctx, ip)
		e.record(MetricCaptchaRequired)
		return ErrCaptchaRequired
	}

	ok, _ := e.captcha.Verify(ctx, token)
	if !ok {
		e.noteFailure(ctx, ip)
		e.record(MetricCaptchaFailed)
		return ErrCaptchaInvalid
	}
	return nil
}

// verifyCredentials proves an email+password identity. Every rejection is
// the same ErrInvalidCredentials so callers cannot probe which part failed.
func (e *Engine) verifyCredentials(ctx context.Context, ip string, input LoginInput) (*User, error) {
	user, err := e.users.FindUserByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		e.noteFailure(ctx, ip)
		e.record(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	hash, err := e.users.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if hash == "" {
		// Provider-only account; it has no password to check.
		e.noteFailure(ctx, ip)
		e.record(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(input.Password, hash)
	if err != nil || !ok {
		e.noteFailure(ctx, ip)
		e.record(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// resolveProviderUser finds or registers the account behind an external
// provider identity, enriches missing profile fields, and records the
// provider link.
func (e *Engine) resolveProviderUser(ctx context.Context, provider string, input LoginInput) (*User, error) {
	user, err := e.users.FindUserByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user, err = e.users.CreateUser(ctx, CreateUserInput{
			Email:    input.Email,
			Name:     input.Name,
			PhotoURL: input.PhotoURL,
		})
		if err != nil {
			return nil, err
		}
	} else {
		// One-way enrichment: fill blanks, never overwrite.
		patch := ProfilePatch{}
		if user.Name == "" && input.Name != "" {
			patch.Name = input.Name
			user.Name = input.Name
		}
		if user.PhotoURL == "" && input.PhotoURL != "" {
			patch.PhotoURL = input.PhotoURL
			user.PhotoURL = input.PhotoURL
		}
		if patch != (ProfilePatch{}) {
			if err := e.users.UpdateProfile(ctx, user.ID, patch); err != nil {
				return nil, err
			}
		}
	}

	if e.links != nil && input.ProviderID != "" {
		if err := e.links.EnsureLinked(ctx, user.ID, provider, input.ProviderID); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (e *Engine) noteFailure(ctx context.Context, ip string) {
	if err := e.limiter.RecordFailure(ctx, ip); err != nil {
		e.logger.Warn("failed to record login attempt", "ip", ip, "error", err)
	}
}
