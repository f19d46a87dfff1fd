package authkit

import (
	"context"

	"github.com/halcyon-labs/authkit/internal/flows"
)

// MsgTwoFactorDisabled is returned by [Engine.DisableTwoFactor] on success.
const MsgTwoFactorDisabled = "2FA disabled successfully"

// EnableTwoFactor re-validates the account credentials, enrolls a fresh TOTP
// secret, and returns the secret with its provisioning URI and QR code PNG.
// The account is marked enabled in the same store transition that persists
// the secret.
func (e *Engine) EnableTwoFactor(ctx context.Context, email, password string) (*TwoFactorSetup, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	setup, err := flows.RunEnableTwoFactor(ctx, email, password, e.twoFactorFlowDeps())
	if err != nil {
		return nil, err
	}
	return &TwoFactorSetup{Secret: setup.Secret, URI: setup.URI, QRCode: setup.QRCode}, nil
}

// VerifyTwoFactor checks a submitted code and, on success, issues the bearer
// token that [Engine.Login] withheld. The token carries the
// verified-second-factor claim.
func (e *Engine) VerifyTwoFactor(ctx context.Context, email, code string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	return flows.RunVerifyTwoFactor(ctx, email, code, e.twoFactorFlowDeps())
}

// DisableTwoFactor removes the second factor after re-validating the
// credentials and one final code.
func (e *Engine) DisableTwoFactor(ctx context.Context, email, password, code string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := flows.RunDisableTwoFactor(ctx, email, password, code, e.twoFactorFlowDeps()); err != nil {
		return "", err
	}
	return MsgTwoFactorDisabled, nil
}

func (e *Engine) twoFactorFlowDeps() flows.TwoFactorDeps {
	return flows.TwoFactorDeps{
		GetUserByEmail: e.lookupByEmail,
		VerifyPassword: e.passwordHash.Verify,
		GenerateSecret: e.totp.GenerateSecret,
		ProvisionURI:   e.totp.ProvisionURI,
		RenderQR: func(uri string) ([]byte, error) {
			return renderQR(uri, e.config.TOTP.QRSize)
		},
		VerifyCode:  e.totp.VerifyCode,
		SaveSecret:  e.store.SetTwoFactorSecret,
		ClearSecret: e.store.ClearTwoFactor,
		IssueAccess: e.jwtManager.IssueAccess,
		MetricInc:   func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:   e.auditFunc(),
		Metrics: flows.TwoFactorMetrics{
			Enabled:  int(MetricTwoFactorEnabled),
			Disabled: int(MetricTwoFactorDisabled),
			Success:  int(MetricTwoFactorSuccess),
			Failure:  int(MetricTwoFactorFailure),
		},
		Events: flows.TwoFactorEvents{
			Enabled:  auditEvent2FAEnabled,
			Disabled: auditEvent2FADisabled,
			Verified: auditEvent2FAVerified,
			Failure:  auditEvent2FAFailure,
		},
		Errors: flows.TwoFactorErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			CodeInvalid:        ErrTwoFactorInvalid,
			NotEnabled:         ErrTwoFactorNotEnabled,
			Unavailable:        ErrTwoFactorUnavailable,
		},
	}
}
