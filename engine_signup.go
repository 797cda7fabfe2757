package authkit

import (
	"context"
	"fmt"
	"regexp"
)

var (
	nameRe     = regexp.MustCompile(`^[\p{L} .'-]{2,64}$`)
	usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Signup registers a credentials account and logs it straight in. Validation
// failures wrap [ErrValidation]; duplicate email and username report
// [ErrUserExists] and [ErrUsernameTaken] respectively.
func (e *Engine) Signup(ctx context.Context, input SignupInput) (*LoginResult, error) {
	if !nameRe.MatchString(input.Name) {
		return nil, fmt.Errorf("%w: invalid name", ErrValidation)
	}
	if !usernameRe.MatchString(input.Username) {
		return nil, fmt.Errorf("%w: invalid username", ErrValidation)
	}
	if !emailRe.MatchString(input.Email) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if existing, err := e.users.FindUserByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUserExists
	}
	if existing, err := e.users.FindUserByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := e.users.CreateUser(ctx, CreateUserInput{
		Email:        input.Email,
		Username:     input.Username,
		Name:         input.Name,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	if e.links != nil {
		if err := e.links.EnsureLinked(ctx, user.ID, ProviderCredentials, user.ID); err != nil {
			return nil, err
		}
	}

	bundle, err := e.sessions.Create(ctx, snapshot(user))
	if err != nil {
		return nil, err
	}
	e.record(MetricSessionCreated)
	e.record(MetricSignupSuccess)
	e.logger.Info("signup", "user_id", user.ID, "username", user.Username)

	return &LoginResult{
		User:         user,
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
	}, nil
}
