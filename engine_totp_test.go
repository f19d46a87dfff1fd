package authkit

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func TestEnableTwoFactorLifecycle(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "a@x.com", "alice", "correct-horse-battery")

	setup, err := engine.EnableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("EnableTwoFactor failed: %v", err)
	}
	if setup.Secret == "" {
		t.Fatal("expected a non-empty secret")
	}
	if !strings.HasPrefix(setup.URI, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning URI: %q", setup.URI)
	}
	if !strings.Contains(setup.URI, "secret="+setup.Secret) {
		t.Fatalf("URI must embed the secret: %q", setup.URI)
	}
	if _, err := png.Decode(bytes.NewReader(setup.QRCode)); err != nil {
		t.Fatalf("QR payload is not a valid PNG: %v", err)
	}

	record := store.get("u1")
	if !record.TwoFactorEnabled || record.TwoFactorSecret != setup.Secret {
		t.Fatalf("secret must be persisted and the flag set together, got %+v", record)
	}

	// enrolled account: plain login withholds the token
	result, err := engine.Login(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.TwoFactorRequired || result.AccessToken != "" {
		t.Fatal("login after enrollment must demand the second factor")
	}

	code := codeForSecret(t, setup.Secret, engine.config.TOTP, 0)
	token, err := engine.VerifyTwoFactor(context.Background(), "a@x.com", code)
	if err != nil {
		t.Fatalf("VerifyTwoFactor failed: %v", err)
	}
	identity, err := engine.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate rejected verified token: %v", err)
	}
	if !identity.TwoFactorVerified {
		t.Fatal("token minted after code verification must carry the verified claim")
	}
}

func TestEnableTwoFactorWrongPassword(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "a@x.com", "alice", "correct-horse-battery")

	_, err := engine.EnableTwoFactor(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.get("u1").TwoFactorEnabled {
		t.Fatal("failed enrollment must not enable the account")
	}
}

func TestVerifyTwoFactorWrongCode(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "a@x.com", "alice", "correct-horse-battery")

	setup, err := engine.EnableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("EnableTwoFactor failed: %v", err)
	}

	good := codeForSecret(t, setup.Secret, engine.config.TOTP, 0)
	wrong := "000000"
	if wrong == good {
		wrong = "000001"
	}
	_, vErr := engine.VerifyTwoFactor(context.Background(), "a@x.com", wrong)
	if !errors.Is(vErr, ErrTwoFactorInvalid) {
		t.Fatalf("expected ErrTwoFactorInvalid, got %v", vErr)
	}
}

func TestVerifyTwoFactorNotEnabled(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "a@x.com", "alice", "correct-horse-battery")

	_, err := engine.VerifyTwoFactor(context.Background(), "a@x.com", "123456")
	if !errors.Is(err, ErrTwoFactorNotEnabled) {
		t.Fatalf("expected ErrTwoFactorNotEnabled, got %v", err)
	}
}

func TestDisableTwoFactorClearsEnrollment(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "a@x.com", "alice", "correct-horse-battery")

	setup, err := engine.EnableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("EnableTwoFactor failed: %v", err)
	}

	code := codeForSecret(t, setup.Secret, engine.config.TOTP, 0)
	msg, err := engine.DisableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery", code)
	if err != nil {
		t.Fatalf("DisableTwoFactor failed: %v", err)
	}
	if msg != MsgTwoFactorDisabled {
		t.Fatalf("unexpected message: %q", msg)
	}

	record := store.get("u1")
	if record.TwoFactorEnabled || record.TwoFactorSecret != "" {
		t.Fatalf("disable must clear both the flag and the secret, got %+v", record)
	}

	// back to single-factor login
	result, err := engine.Login(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.TwoFactorRequired || result.AccessToken == "" {
		t.Fatal("login after disable must issue a token directly")
	}

	// stale codes stop working
	_, vErr := engine.VerifyTwoFactor(context.Background(), "a@x.com", code)
	if !errors.Is(vErr, ErrTwoFactorNotEnabled) {
		t.Fatalf("verification after disable must report not-enabled, got %v", vErr)
	}
}

func TestDisableTwoFactorWrongCode(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "a@x.com", "alice", "correct-horse-battery")

	setup, err := engine.EnableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("EnableTwoFactor failed: %v", err)
	}

	good := codeForSecret(t, setup.Secret, engine.config.TOTP, 0)
	wrong := "000000"
	if wrong == good {
		wrong = "000001"
	}
	_, dErr := engine.DisableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery", wrong)
	if !errors.Is(dErr, ErrTwoFactorInvalid) {
		t.Fatalf("expected ErrTwoFactorInvalid, got %v", dErr)
	}
	if !store.get("u1").TwoFactorEnabled {
		t.Fatal("failed disable must leave the enrollment intact")
	}
}

func TestReEnrollmentReplacesSecret(t *testing.T) {
	engine, store := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "a@x.com", "alice", "correct-horse-battery")

	first, err := engine.EnableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("first enrollment failed: %v", err)
	}
	second, err := engine.EnableTwoFactor(context.Background(), "a@x.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("second enrollment failed: %v", err)
	}
	if first.Secret == second.Secret {
		t.Fatal("re-enrollment must mint a fresh secret")
	}
	if store.get("u1").TwoFactorSecret != second.Secret {
		t.Fatal("store must hold the latest secret")
	}

	// codes derived from the superseded secret are rejected
	stale := codeForSecret(t, first.Secret, engine.config.TOTP, 0)
	fresh := codeForSecret(t, second.Secret, engine.config.TOTP, 0)
	if stale != fresh {
		if _, err := engine.VerifyTwoFactor(context.Background(), "a@x.com", stale); !errors.Is(err, ErrTwoFactorInvalid) {
			t.Fatalf("stale-secret code must be rejected, got %v", err)
		}
	}
	if _, err := engine.VerifyTwoFactor(context.Background(), "a@x.com", fresh); err != nil {
		t.Fatalf("fresh-secret code must verify: %v", err)
	}
}
