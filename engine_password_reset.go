package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/storyforge/authkit/internal/stores"
)

const resetEmailSubject = "Reset your password"

// RequestPasswordReset issues a single-use reset token and mails it to the
// address. An unknown address returns nil just like a known one, so the
// endpoint cannot be used to probe which emails have accounts. Mailer
// failures do surface, wrapped in [ErrMailerFailure], since the user would
// otherwise wait for an email that never comes.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e.resets == nil || e.mailer == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := e.resets.Issue(ctx, user.ID, e.config.Reset.TTL)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"<p>A password reset was requested for your account.</p>"+
			"<p>Your reset code: <b>%s</b></p>"+
			"<p>It expires in %s. If you did not request this, ignore this email.</p>",
		token, e.config.Reset.TTL,
	)
	if err := e.mailer.Send(ctx, user.Email, resetEmailSubject, body); err != nil {
		return fmt.Errorf("%w: %v", ErrMailerFailure, err)
	}

	e.record(MetricPasswordResetRequest)
	e.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ConfirmPasswordReset consumes a reset token and replaces the user's
// password. The token dies on first use whatever the outcome of the
// password update.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if e.resets == nil {
		return ErrEngineNotReady
	}

	userID, err := e.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, stores.ErrResetNotFound) {
			return ErrResetInvalid
		}
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := e.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	e.record(MetricPasswordResetConfirm)
	e.logger.Info("password reset confirmed", "user_id", userID)
	return nil
}
