// Package jwt signs and verifies the two token families the engine issues:
// bearer access tokens and single-purpose password-reset tokens. The two are
// signed with independent secrets so one can never stand in for the other.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid is the only verification failure this package reports.
// Expired, forged, and malformed tokens are indistinguishable to callers;
// the distinction must not leak through API responses.
var ErrTokenInvalid = errors.New("invalid token")

// Config carries the signing material and token policy. Treated as
// immutable after NewManager.
type Config struct {
	Secret      []byte
	ResetSecret []byte
	AccessTTL   time.Duration
	ResetTTL    time.Duration
	Issuer      string
}

// Manager issues and parses HS256 tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the bearer token payload. Subject carries the user ID.
type AccessClaims struct {
	Username          string `json:"username"`
	TwoFactorVerified bool   `json:"tfv,omitempty"`
	jwt.RegisteredClaims
}

// ResetClaims is the reset token payload.
type ResetClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	if len(cfg.ResetSecret) == 0 {
		return nil, errors.New("reset signing secret required")
	}
	if cfg.AccessTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	return &Manager{config: cfg}, nil
}

// IssueAccess signs a bearer token for the given subject.
func (m *Manager) IssueAccess(userID, username string, twoFactorVerified bool) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Username:          username,
		TwoFactorVerified: twoFactorVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// IssueReset signs a single-purpose reset token for the given subject.
func (m *Manager) IssueReset(userID string) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.ResetTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.ResetSecret)
}

// ParseAccess verifies a bearer token against the primary secret.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.config.Secret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseReset verifies a reset token against the reset secret.
func (m *Manager) ParseReset(tokenStr string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := m.parse(tokenStr, claims, m.config.ResetSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
