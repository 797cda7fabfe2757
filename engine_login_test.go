package authkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestLoginWithPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addPasswordUser(t, "alice@example.com", "correct-horse")

	res, err := env.engine.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.SecondFactorRequired {
		t.Fatal("unexpected second-factor requirement")
	}
	if res.User.ID != user.ID {
		t.Fatalf("got user %q, want %q", res.User.ID, user.ID)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
}

func TestLoginRejectionsAreGeneric(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")

	ctx := context.Background()
	for name, input := range map[string]LoginInput{
		"unknown email":  {Email: "nobody@example.com", Password: "whatever"},
		"wrong password": {Email: "alice@example.com", Password: "wrong"},
	} {
		if _, err := env.engine.Login(ctx, input); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: got %v, want ErrInvalidCredentials", name, err)
		}
	}
}

func TestLoginCaptchaAfterSoftThreshold(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "10.1.1.1")

	// Burn through the soft threshold with bad passwords.
	for i := 0; i < 3; i++ {
		if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v", i, err)
		}
	}

	// Correct password without a captcha is now refused.
	_, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-horse"})
	if !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("got %v, want ErrCaptchaRequired", err)
	}

	// And that refusal counted as an attempt, crossing the hard threshold.
	_, err = env.engine.Login(ctx, LoginInput{
		Email:        "alice@example.com",
		Password:     "correct-horse",
		CaptchaToken: "good-captcha",
	})
	if !errors.Is(err, ErrLockedOut) {
		t.Fatalf("got %v, want ErrLockedOut", err)
	}
}

func TestLoginCaptchaAccepted(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "10.1.1.2")

	for i := 0; i < 3; i++ {
		_, _ = env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	}

	res, err := env.engine.Login(ctx, LoginInput{
		Email:        "alice@example.com",
		Password:     "correct-horse",
		CaptchaToken: "good-captcha",
	})
	if err != nil {
		t.Fatalf("login with captcha: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("expected a session")
	}
}

func TestLoginCaptchaRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "10.1.1.3")

	for i := 0; i < 3; i++ {
		_, _ = env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	}

	_, err := env.engine.Login(ctx, LoginInput{
		Email:        "alice@example.com",
		Password:     "correct-horse",
		CaptchaToken: "bad-captcha",
	})
	if !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("got %v, want ErrCaptchaInvalid", err)
	}
}

func TestLoginHardLockoutDespiteCaptcha(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "10.1.1.4")

	for i := 0; i < 3; i++ {
		_, _ = env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	}
	// One more failure, captcha and all, crosses the hard threshold.
	_, _ = env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong", CaptchaToken: "good-captcha"})

	_, err := env.engine.Login(ctx, LoginInput{
		Email:        "alice@example.com",
		Password:     "correct-horse",
		CaptchaToken: "good-captcha",
	})
	if !errors.Is(err, ErrLockedOut) {
		t.Fatalf("got %v, want ErrLockedOut", err)
	}
}

func TestLoginLockoutExpiresWithCounter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "10.1.1.5")

	for i := 0; i < 4; i++ {
		_, _ = env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong", CaptchaToken: "good-captcha"})
	}
	if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-horse", CaptchaToken: "good-captcha"}); !errors.Is(err, ErrLockedOut) {
		t.Fatalf("got %v, want ErrLockedOut", err)
	}

	env.redis.FastForward(301 * time.Second)

	res, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login after counter expiry: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("expected a session")
	}
}

func TestLoginSuccessClearsCounter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "10.1.1.6")

	for i := 0; i < 2; i++ {
		_, _ = env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	}
	if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	// The slate is clean: two more failures stay under the soft threshold.
	for i := 0; i < 2; i++ {
		if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d after reset: got %v", i, err)
		}
	}
}

func TestLoginRecordsLastLoginIP(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "192.0.2.7")

	if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	profile, err := env.profiles.Get(context.Background(), user.ID)
	if err != nil || profile == nil {
		t.Fatalf("profile lookup: %v, %v", profile, err)
	}
	if profile.LastLoginIP != "192.0.2.7" {
		t.Fatalf("got last login IP %q", profile.LastLoginIP)
	}
}

func TestProviderLoginRegistersAndLinks(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	input := LoginInput{
		Provider:   "google",
		ProviderID: "goog-123",
		Email:      "bob@example.com",
		Name:       "Bob",
		PhotoURL:   "https://example.com/bob.png",
	}

	res, err := env.engine.Login(ctx, input)
	if err != nil {
		t.Fatalf("first provider login: %v", err)
	}
	if res.User.Name != "Bob" {
		t.Fatalf("got name %q", res.User.Name)
	}
	if got := env.links.links[res.User.ID+"/google"]; got != "goog-123" {
		t.Fatalf("link recorded %q, want %q", got, "goog-123")
	}

	// Second login finds the same account and re-links idempotently.
	res2, err := env.engine.Login(ctx, input)
	if err != nil {
		t.Fatalf("second provider login: %v", err)
	}
	if res2.User.ID != res.User.ID {
		t.Fatal("second login created a different user")
	}
	if len(env.dir.users) != 1 {
		t.Fatalf("directory has %d users, want 1", len(env.dir.users))
	}
	if len(env.links.links) != 1 {
		t.Fatalf("registry holds %d links, want 1", len(env.links.links))
	}
}

func TestProviderLinkUniquePerUserAndProvider(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	input := LoginInput{Provider: "google", ProviderID: "goog-123", Email: "bob@example.com"}
	res, err := env.engine.Login(ctx, input)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	// The same user arriving with a different provider account ID must not
	// grow the registry; the existing link stands.
	input.ProviderID = "goog-456"
	if _, err := env.engine.Login(ctx, input); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if len(env.links.links) != 1 {
		t.Fatalf("registry holds %d links, want 1", len(env.links.links))
	}
	if got := env.links.links[res.User.ID+"/google"]; got != "goog-123" {
		t.Fatalf("link rewritten to %q", got)
	}
}

func TestPasswordLoginRecordsProviderLink(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addPasswordUser(t, "alice@example.com", "correct-horse")

	if _, err := env.engine.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct-horse",
	}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := env.links.links[user.ID+"/"+ProviderCredentials]; got != user.ID {
		t.Fatalf("credentials link %q, want %q", got, user.ID)
	}
}

func TestProviderLoginEnrichesBlankFieldsOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.dir.add(User{Email: "carol@example.com", Name: "Carol Prior"}, "")

	res, err := env.engine.Login(context.Background(), LoginInput{
		Provider:   "github",
		ProviderID: "gh-9",
		Email:      "carol@example.com",
		Name:       "Should Not Overwrite",
		PhotoURL:   "https://example.com/carol.png",
	})
	if err != nil {
		t.Fatalf("provider login: %v", err)
	}
	if res.User.ID != user.ID {
		t.Fatal("matched wrong user")
	}
	if res.User.Name != "Carol Prior" {
		t.Fatalf("existing name overwritten: %q", res.User.Name)
	}
	if res.User.PhotoURL != "https://example.com/carol.png" {
		t.Fatalf("blank photo not filled: %q", res.User.PhotoURL)
	}
}

func TestLoginSecondFactorRequired(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addPasswordUser(t, "dave@example.com", "correct-horse")

	enableTwoFactor(t, env, user.ID)

	res, err := env.engine.Login(context.Background(), LoginInput{
		Email:    "dave@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.SecondFactorRequired {
		t.Fatal("expected second-factor requirement")
	}
	if res.AccessToken != "" || res.RefreshToken != "" {
		t.Fatal("no tokens may be issued before the second factor")
	}
}

func TestLoginWithTOTPCode(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addPasswordUser(t, "dave@example.com", "correct-horse")
	secret := enableTwoFactor(t, env, user.ID)

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	res, err := env.engine.Login(context.Background(), LoginInput{
		Email:    "dave@example.com",
		Password: "correct-horse",
		TOTPCode: code,
	})
	if err != nil {
		t.Fatalf("login with totp: %v", err)
	}
	if res.SecondFactorRequired || res.AccessToken == "" {
		t.Fatal("expected a full session")
	}
}

func TestLoginWithBadTOTPCode(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addPasswordUser(t, "dave@example.com", "correct-horse")
	enableTwoFactor(t, env, user.ID)

	_, err := env.engine.Login(context.Background(), LoginInput{
		Email:    "dave@example.com",
		Password: "correct-horse",
		TOTPCode: "000000",
	})
	if !errors.Is(err, ErrTwoFactorInvalidCode) {
		t.Fatalf("got %v, want ErrTwoFactorInvalidCode", err)
	}
}

func TestLoginWithBackupCodes(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.addPasswordUser(t, "dave@example.com", "correct-horse")
	enableTwoFactor(t, env, user.ID)

	profile, _ := env.profiles.Get(context.Background(), user.ID)

	res, err := env.engine.Login(context.Background(), LoginInput{
		Email:       "dave@example.com",
		Password:    "correct-horse",
		BackupCodes: profile.BackupCodes,
	})
	if err != nil {
		t.Fatalf("login with backup codes: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("expected a session")
	}

	// A partial or wrong set is rejected.
	_, err = env.engine.Login(context.Background(), LoginInput{
		Email:       "dave@example.com",
		Password:    "correct-horse",
		BackupCodes: "WRONGSET",
	})
	if !errors.Is(err, ErrTwoFactorInvalidCode) {
		t.Fatalf("got %v, want ErrTwoFactorInvalidCode", err)
	}
}

func TestLoginBackendOutageDoesNotCountAttempts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addPasswordUser(t, "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "10.1.1.9")

	env.dir.failAll = true
	for i := 0; i < 5; i++ {
		if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-horse"}); err == nil {
			t.Fatal("expected outage error")
		}
	}
	env.dir.failAll = false

	// No attempts were recorded, so a plain login still works captcha-free.
	if _, err := env.engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("login after outage: %v", err)
	}
}

// enableTwoFactor provisions and enables TOTP for the user, returning the
// active secret.
func enableTwoFactor(t *testing.T, env *testEnv, userID string) string {
	t.Helper()

	prov, err := env.engine.ProvisionTwoFactor(context.Background(), userID)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	code, err := totp.GenerateCode(prov.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if _, err := env.engine.EnableTwoFactor(context.Background(), userID, prov.Secret, code); err != nil {
		t.Fatalf("enable: %v", err)
	}
	return prov.Secret
}
