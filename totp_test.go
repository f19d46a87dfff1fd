package authkit

import (
	"strings"
	"testing"
	"time"
)

func newTestTOTP(t *testing.T) (*totpManager, string) {
	t.Helper()

	m := newTOTPManager(DefaultConfig().TOTP)
	secret, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	return m, secret
}

func TestTOTPCurrentWindowVerifies(t *testing.T) {
	m, secret := newTestTOTP(t)
	now := time.Unix(1_700_000_000, 0)

	key, err := b32.DecodeString(secret)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	current, err := hotpCode(key, now.Unix()/int64(m.config.Period), m.config.Digits, m.config.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}

	ok, err := m.VerifyCode(secret, current, now)
	if err != nil || !ok {
		t.Fatalf("current-window code must verify, got ok=%v err=%v", ok, err)
	}
}

func TestTOTPAdjacentWindowsWithinSkew(t *testing.T) {
	m, secret := newTestTOTP(t)
	now := time.Unix(1_700_000_000, 0)

	key, err := b32.DecodeString(secret)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	base := now.Unix() / int64(m.config.Period)

	for _, step := range []int64{-1, +1} {
		code, err := hotpCode(key, base+step, m.config.Digits, m.config.Algorithm)
		if err != nil {
			t.Fatalf("hotpCode failed: %v", err)
		}
		ok, err := m.VerifyCode(secret, code, now)
		if err != nil || !ok {
			t.Fatalf("step %+d within skew must verify, got ok=%v err=%v", step, ok, err)
		}
	}
}

func TestTOTPOutsideSkewRejected(t *testing.T) {
	m, secret := newTestTOTP(t)
	now := time.Unix(1_700_000_000, 0)

	key, err := b32.DecodeString(secret)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	base := now.Unix() / int64(m.config.Period)

	far := int64(m.config.Skew) + 1
	for _, step := range []int64{-far, far} {
		code, err := hotpCode(key, base+step, m.config.Digits, m.config.Algorithm)
		if err != nil {
			t.Fatalf("hotpCode failed: %v", err)
		}
		ok, err := m.VerifyCode(secret, code, now)
		if err != nil {
			t.Fatalf("VerifyCode failed: %v", err)
		}
		if ok {
			t.Fatalf("step %+d outside skew must be rejected", step)
		}
	}
}

func TestTOTPMalformedInputIsFalseNotError(t *testing.T) {
	m, secret := newTestTOTP(t)
	now := time.Now()

	for _, code := range []string{"", "12345", "1234567", "12345a", "abcdef", "  12  "} {
		ok, err := m.VerifyCode(secret, code, now)
		if err != nil {
			t.Fatalf("malformed code %q must not error: %v", code, err)
		}
		if ok {
			t.Fatalf("malformed code %q must not verify", code)
		}
	}
}

func TestTOTPWhitespaceTrimmed(t *testing.T) {
	m, secret := newTestTOTP(t)
	now := time.Unix(1_700_000_000, 0)

	key, err := b32.DecodeString(secret)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	code, err := hotpCode(key, now.Unix()/int64(m.config.Period), m.config.Digits, m.config.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}

	ok, err := m.VerifyCode(secret, "  "+code+"\n", now)
	if err != nil || !ok {
		t.Fatalf("padded code must verify after trimming, got ok=%v err=%v", ok, err)
	}
}

func TestTOTPSecretCaseAndPaddingTolerated(t *testing.T) {
	m, secret := newTestTOTP(t)
	now := time.Unix(1_700_000_000, 0)

	key, err := b32.DecodeString(secret)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	code, err := hotpCode(key, now.Unix()/int64(m.config.Period), m.config.Digits, m.config.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}

	ok, err := m.VerifyCode(strings.ToLower(secret)+"==", code, now)
	if err != nil || !ok {
		t.Fatalf("lowercase padded secret must still verify, got ok=%v err=%v", ok, err)
	}
}

func TestTOTPMalformedSecretErrors(t *testing.T) {
	m, _ := newTestTOTP(t)

	if _, err := m.VerifyCode("not!base32", "123456", time.Now()); err == nil {
		t.Fatal("undecodable secret must surface an error")
	}
}

func TestTOTPSecretsAreUnique(t *testing.T) {
	m := newTOTPManager(DefaultConfig().TOTP)

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		secret, err := m.GenerateSecret()
		if err != nil {
			t.Fatalf("GenerateSecret failed: %v", err)
		}
		if seen[secret] {
			t.Fatal("duplicate secret generated")
		}
		seen[secret] = true
	}
}

func TestProvisionURIShape(t *testing.T) {
	cfg := DefaultConfig().TOTP
	cfg.Issuer = "Example App"
	m := newTOTPManager(cfg)

	uri := m.ProvisionURI("JBSWY3DPEHPK3PXP", "alice@example.com")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected scheme: %q", uri)
	}
	for _, want := range []string{"secret=JBSWY3DPEHPK3PXP", "issuer=Example+App", "digits=6", "period=30", "algorithm=SHA1"} {
		if !strings.Contains(uri, want) {
			t.Fatalf("URI missing %q: %q", want, uri)
		}
	}
}
