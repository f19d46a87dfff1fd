package authkit

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"
)

// Config carries every tunable the Engine needs. Instances are validated at
// [Builder.Build] and treated as immutable afterwards.
type Config struct {
	JWT      JWTConfig
	TOTP     TOTPConfig
	Password PasswordConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the two signing secrets and token policy. Secret and
// ResetSecret are both mandatory and must differ: a reset token must never
// verify against the bearer secret or vice versa.
type JWTConfig struct {
	Secret      []byte
	ResetSecret []byte
	AccessTTL   time.Duration
	ResetTTL    time.Duration
	Issuer      string

	// TokenPrefix is an optional literal expected between the Authorization
	// scheme and the signed token. When set, credentials without it are
	// rejected as forbidden rather than unauthorized.
	TokenPrefix string
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig tunes second-factor code generation and verification.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Skew      int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
	QRSize    int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig tunes argon2id hashing. Values are forwarded to the
// password package, which enforces its own minimums.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig tunes the optional Redis-backed attempt budgets. Both
// throttles are off by default; enabling either requires a Redis client on
// the Builder.
type ThrottleConfig struct {
	EnableLoginThrottle bool
	MaxLoginAttempts    int
	LoginCooldown       time.Duration

	EnableResetThrottle bool
	MaxResetRequests    int
	ResetCooldown       time.Duration

	RedisPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int

	// DropIfFull drops events instead of blocking the flow when the buffer
	// is saturated. Dropped counts are visible via [Engine.AuditDropped].
	DropIfFull bool
}

// DefaultConfig returns a Config with production-reasonable defaults.
// Signing secrets are intentionally absent and must be provided by the host.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL: 24 * time.Hour,
			ResetTTL:  time.Hour,
			Issuer:    "authkit",
		},
		TOTP: TOTPConfig{
			Issuer:    "authkit",
			Digits:    6,
			Period:    30,
			Skew:      1,
			Algorithm: "SHA1",
			QRSize:    256,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Throttle: ThrottleConfig{
			MaxLoginAttempts: 10,
			LoginCooldown:    5 * time.Minute,
			MaxResetRequests: 3,
			ResetCooldown:    15 * time.Minute,
			RedisPrefix:      "ak",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate reports the first configuration error, if any.
func (c Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("jwt secret required")
	}
	if len(c.JWT.ResetSecret) == 0 {
		return errors.New("jwt reset secret required")
	}
	if len(c.JWT.Secret) == len(c.JWT.ResetSecret) &&
		subtle.ConstantTimeCompare(c.JWT.Secret, c.JWT.ResetSecret) == 1 {
		return errors.New("jwt secret and reset secret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("access TTL must be positive")
	}
	if c.JWT.ResetTTL <= 0 {
		return errors.New("reset TTL must be positive")
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 8 {
		return errors.New("totp digits must be between 6 and 8")
	}
	if c.TOTP.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 2 {
		return errors.New("totp skew must be between 0 and 2")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("unsupported totp algorithm")
	}
	if c.Throttle.EnableLoginThrottle {
		if c.Throttle.MaxLoginAttempts <= 0 || c.Throttle.LoginCooldown <= 0 {
			return errors.New("login throttle requires positive budget and cooldown")
		}
	}
	if c.Throttle.EnableResetThrottle {
		if c.Throttle.MaxResetRequests <= 0 || c.Throttle.ResetCooldown <= 0 {
			return errors.New("reset throttle requires positive budget and cooldown")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	out.JWT.ResetSecret = append([]byte(nil), cfg.JWT.ResetSecret...)
	return out
}
