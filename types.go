package authkit

import "context"

// User is the credential record exchanged with the [UserStore]. The Engine
// never persists it directly; every mutation goes through a store method.
//
// Invariant: TwoFactorEnabled implies a non-empty TwoFactorSecret, and
// vice versa. The store methods that touch the pair update both fields in
// one call so the Engine can never observe them disagreeing.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string

	// ResetToken holds the currently valid reset token, or "" when none is
	// outstanding. A submitted token must equal this value exactly, in
	// addition to verifying cryptographically.
	ResetToken string

	TwoFactorEnabled bool
	TwoFactorSecret  string // base32, no padding
}

// UserStore is the credential store adapter callers must implement.
// Lookups return [ErrUserNotFound]-compatible errors for missing records;
// any other failure is surfaced to flows as a store failure and reported
// fail-closed. Implementations must serialize concurrent writes to the same
// record at least to last-write-wins.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, token string) error
	ClearResetToken(ctx context.Context, id string) error

	// SetTwoFactorSecret stores the secret and sets the enabled flag in a
	// single update. ClearTwoFactor removes both.
	SetTwoFactorSecret(ctx context.Context, id, secret string) error
	ClearTwoFactor(ctx context.Context, id string) error
}

// Identity is the authenticated principal resolved from a bearer token.
// The middleware guard attaches it to the request context; protected flows
// receive it explicitly.
type Identity struct {
	UserID            string
	Username          string
	TwoFactorVerified bool
}

// LoginResult is returned by [Engine.Login]. When the account has a second
// factor enrolled, TwoFactorRequired is true, UserID identifies the pending
// principal, and AccessToken is empty: no bearer token is issued until the
// code is verified.
type LoginResult struct {
	AccessToken       string
	TwoFactorRequired bool
	UserID            string
}

// TwoFactorSetup is returned by [Engine.EnableTwoFactor]. QRCode is a PNG
// rendering of the otpauth provisioning URI.
type TwoFactorSetup struct {
	Secret string
	URI    string
	QRCode []byte
}

// ResetNotifier delivers a freshly issued reset token to the account owner.
// Delivery transport (email, SMS) is outside this subsystem; the default
// notifier does nothing. Notifier failures do not fail the flow.
type ResetNotifier func(ctx context.Context, email, token string)
