package flows

import (
	"context"
	"time"
)

// TwoFactorSetup is the flow-local enrollment result.
type TwoFactorSetup struct {
	Secret string
	URI    string
	QRCode []byte
}

// TwoFactorMetrics carries metric IDs used by the 2FA flows.
type TwoFactorMetrics struct {
	Enabled  int
	Disabled int
	Success  int
	Failure  int
}

// TwoFactorEvents carries audit event names used by the 2FA flows.
type TwoFactorEvents struct {
	Enabled  string
	Disabled string
	Verified string
	Failure  string
}

// TwoFactorErrors carries host-level sentinel errors used by the 2FA flows.
type TwoFactorErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	CodeInvalid        error
	NotEnabled         error
	Unavailable        error
}

// TwoFactorDeps captures enable/verify/disable dependencies.
type TwoFactorDeps struct {
	Now func() time.Time

	GetUserByEmail func(context.Context, string) (*UserRecord, error)
	VerifyPassword func(password, hash string) (bool, error)

	GenerateSecret func() (string, error)
	ProvisionURI   func(secret, account string) string
	RenderQR       func(uri string) ([]byte, error)
	VerifyCode     func(secret, code string, now time.Time) (bool, error)

	// SaveSecret persists the secret and flips the enabled flag in one
	// store call; ClearSecret reverses both. This keeps the
	// enabled-implies-secret pairing intact across every transition.
	SaveSecret  func(ctx context.Context, userID, secret string) error
	ClearSecret func(ctx context.Context, userID string) error

	IssueAccess func(userID, username string, twoFactorVerified bool) (string, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics TwoFactorMetrics
	Events  TwoFactorEvents
	Errors  TwoFactorErrors
}

// RunEnableTwoFactor re-validates credentials, generates a fresh secret, and
// enrolls it. Enrollment replaces any previous secret; the account is
// enabled in the same transition.
func RunEnableTwoFactor(ctx context.Context, email, password string, deps TwoFactorDeps) (*TwoFactorSetup, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.GetUserByEmail == nil || deps.VerifyPassword == nil || deps.GenerateSecret == nil ||
		deps.ProvisionURI == nil || deps.RenderQR == nil || deps.SaveSecret == nil {
		return nil, deps.Errors.EngineNotReady
	}

	user, err := validateCredentials(ctx, email, password, deps)
	if err != nil {
		return nil, err
	}

	secret, err := deps.GenerateSecret()
	if err != nil {
		return nil, deps.Errors.Unavailable
	}

	uri := deps.ProvisionURI(secret, user.Email)
	qrCode, err := deps.RenderQR(uri)
	if err != nil {
		return nil, deps.Errors.Unavailable
	}

	if err := deps.SaveSecret(ctx, user.ID, secret); err != nil {
		return nil, deps.Errors.Unavailable
	}

	deps.MetricInc(deps.Metrics.Enabled)
	deps.EmitAudit(ctx, deps.Events.Enabled, true, user.ID, email, nil, nil)
	return &TwoFactorSetup{Secret: secret, URI: uri, QRCode: qrCode}, nil
}

// RunVerifyTwoFactor checks a submitted code against the stored secret and,
// on success, issues a bearer token carrying the verified-second-factor
// claim. This is the only path that issues a token for a 2FA account.
func RunVerifyTwoFactor(ctx context.Context, email, code string, deps TwoFactorDeps) (string, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.GetUserByEmail == nil || deps.VerifyCode == nil || deps.IssueAccess == nil {
		return "", deps.Errors.EngineNotReady
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, deps.Errors.InvalidCredentials, nil)
		return "", deps.Errors.InvalidCredentials
	}

	if err := checkCode(ctx, user, code, deps); err != nil {
		return "", err
	}

	token, err := deps.IssueAccess(user.ID, user.Username, true)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, email, err, nil)
		return "", err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Verified, true, user.ID, email, nil, nil)
	return token, nil
}

// RunDisableTwoFactor re-validates credentials, requires one final valid
// code, then clears the secret and the enabled flag together.
func RunDisableTwoFactor(ctx context.Context, email, password, code string, deps TwoFactorDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.GetUserByEmail == nil || deps.VerifyPassword == nil ||
		deps.VerifyCode == nil || deps.ClearSecret == nil {
		return deps.Errors.EngineNotReady
	}

	user, err := validateCredentials(ctx, email, password, deps)
	if err != nil {
		return err
	}

	if err := checkCode(ctx, user, code, deps); err != nil {
		return err
	}

	if err := deps.ClearSecret(ctx, user.ID); err != nil {
		return deps.Errors.Unavailable
	}

	deps.MetricInc(deps.Metrics.Disabled)
	deps.EmitAudit(ctx, deps.Events.Disabled, true, user.ID, email, nil, nil)
	return nil
}

func validateCredentials(ctx context.Context, email, password string, deps TwoFactorDeps) (*UserRecord, error) {
	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, deps.Errors.InvalidCredentials, nil)
		return nil, deps.Errors.InvalidCredentials
	}
	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, email, deps.Errors.InvalidCredentials, nil)
		return nil, deps.Errors.InvalidCredentials
	}
	return user, nil
}

func checkCode(ctx context.Context, user *UserRecord, code string, deps TwoFactorDeps) error {
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, user.Email, deps.Errors.NotEnabled, nil)
		return deps.Errors.NotEnabled
	}

	ok, err := deps.VerifyCode(user.TwoFactorSecret, code, deps.Now())
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, user.Email, deps.Errors.Unavailable, nil)
		return deps.Errors.Unavailable
	}
	if !ok {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, user.Email, deps.Errors.CodeInvalid, nil)
		return deps.Errors.CodeInvalid
	}
	return nil
}
