package authkit

import (
	"context"
	"errors"

	"github.com/halcyon-labs/authkit/internal/flows"
)

// Confirmation messages returned by the password-reset flows. Deliberately
// generic: the forgot-password response reads the same whether or not the
// email is registered.
const (
	MsgResetRequested = "Password reset instructions sent to your email"
	MsgResetSuccess   = "Password reset successful"
)

// ForgotPassword issues a reset token for the account behind email, stores
// it on the record (invalidating any earlier token), and hands it to the
// configured notifier. The returned message does not reveal whether the
// email is registered.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := flows.RunForgotPassword(ctx, email, e.passwordResetFlowDeps()); err != nil {
		return "", err
	}
	return MsgResetRequested, nil
}

// ResetPassword completes a reset using a previously issued token. The
// password/confirmation comparison happens before any token verification.
func (e *Engine) ResetPassword(ctx context.Context, token, password, confirm string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := flows.RunResetPassword(ctx, token, password, confirm, e.passwordResetFlowDeps()); err != nil {
		return "", err
	}
	return MsgResetSuccess, nil
}

func (e *Engine) passwordResetFlowDeps() flows.PasswordResetDeps {
	deps := flows.PasswordResetDeps{
		GetUserByEmail: e.lookupByEmail,
		GetUserByID:    e.lookupByID,
		IsNotFound: func(err error) bool {
			return errors.Is(err, ErrUserNotFound)
		},
		IssueResetToken: e.jwtManager.IssueReset,
		ParseResetToken: func(token string) (string, error) {
			claims, err := e.jwtManager.ParseReset(token)
			if err != nil {
				return "", err
			}
			return claims.UserID, nil
		},
		SaveResetToken:  e.store.SetResetToken,
		ClearResetToken: e.store.ClearResetToken,
		HashPassword:    e.passwordHash.Hash,
		UpdatePassword:  e.store.UpdatePassword,
		MetricInc:       func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:       e.auditFunc(),
		Metrics: flows.PasswordResetMetrics{
			Requested:   int(MetricResetRequested),
			RateLimited: int(MetricResetRateLimited),
			Success:     int(MetricResetSuccess),
			Failure:     int(MetricResetFailure),
		},
		Events: flows.PasswordResetEvents{
			Requested:    auditEventResetRequested,
			UnknownEmail: auditEventResetUnknownEmail,
			RateLimited:  auditEventResetRateLimited,
			Success:      auditEventResetSuccess,
			Failure:      auditEventResetFailure,
		},
		Errors: flows.PasswordResetErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			TokenInvalid:       ErrResetTokenInvalid,
			PasswordMismatch:   ErrPasswordMismatch,
			RateLimited:        ErrResetRateLimited,
			StoreUnavailable:   ErrStoreUnavailable,
		},
	}

	if e.notifier != nil {
		deps.Notify = func(ctx context.Context, email, token string) {
			e.notifier(ctx, email, token)
		}
	}
	if e.config.Throttle.EnableResetThrottle && e.rateLimiter != nil {
		deps.CheckResetRate = func(ctx context.Context, email string) error {
			return e.rateLimiter.CheckReset(ctx, normalizeEmail(email))
		}
		deps.RecordResetRequest = func(ctx context.Context, email string) error {
			return e.rateLimiter.RecordResetRequest(ctx, normalizeEmail(email))
		}
	}

	return deps
}
