package authkit

import (
	"context"
	"errors"
	"regexp"
	"testing"
)

var resetCodeRe = regexp.MustCompile(`<b>([A-Za-z0-9_-]+)</b>`)

func requestReset(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	if err := env.engine.RequestPasswordReset(context.Background(), email); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	m := resetCodeRe.FindStringSubmatch(env.mailer.body)
	if m == nil {
		t.Fatalf("no reset code in email body: %q", env.mailer.body)
	}
	return m[1]
}

func TestPasswordResetRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "old-password-1")
	ctx := context.Background()

	token := requestReset(t, env, "alice@example.com")
	if len(env.mailer.sent) != 1 || env.mailer.sent[0] != "alice@example.com" {
		t.Fatalf("mail sent to %v", env.mailer.sent)
	}

	if err := env.engine.ConfirmPasswordReset(ctx, token, "new-password-9"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "old-password-1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still works")
	}
	if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "new-password-9"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "old-password-1")
	ctx := context.Background()

	token := requestReset(t, env, "alice@example.com")
	if err := env.engine.ConfirmPasswordReset(ctx, token, "new-password-9"); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if err := env.engine.ConfirmPasswordReset(ctx, token, "another-pass-3"); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("second confirm: got %v, want ErrResetInvalid", err)
	}
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.engine.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(env.mailer.sent) != 0 {
		t.Fatal("no email should be sent for an unknown address")
	}
}

func TestPasswordResetMailerFailureSurfaces(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "old-password-1")
	env.mailer.fail = true

	err := env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrMailerFailure) {
		t.Fatalf("got %v, want ErrMailerFailure", err)
	}
}

func TestPasswordResetBogusToken(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.engine.ConfirmPasswordReset(context.Background(), "bogus", "new-password-9"); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("got %v, want ErrResetInvalid", err)
	}
}
