package flows

import (
	"context"
	"crypto/subtle"
)

// PasswordResetMetrics carries metric IDs used by the reset flows.
type PasswordResetMetrics struct {
	Requested   int
	RateLimited int
	Success     int
	Failure     int
}

// PasswordResetEvents carries audit event names used by the reset flows.
type PasswordResetEvents struct {
	Requested    string
	UnknownEmail string
	RateLimited  string
	Success      string
	Failure      string
}

// PasswordResetErrors carries host-level sentinel errors used by the reset
// flows.
type PasswordResetErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	TokenInvalid       error
	PasswordMismatch   error
	RateLimited        error
	StoreUnavailable   error
}

// PasswordResetDeps captures forgot/reset-password dependencies.
type PasswordResetDeps struct {
	// RevealAccountExistence makes forgot-password fail loudly for unknown
	// emails instead of returning the generic confirmation. Off by default.
	RevealAccountExistence bool

	GetUserByEmail func(context.Context, string) (*UserRecord, error)
	GetUserByID    func(context.Context, string) (*UserRecord, error)

	// IsNotFound classifies a GetUserByEmail failure as a missing record.
	// Only missing records get the uniform forgot-password response; any
	// other lookup failure is surfaced as StoreUnavailable.
	IsNotFound func(error) bool

	IssueResetToken func(userID string) (string, error)
	ParseResetToken func(token string) (userID string, err error)
	SaveResetToken  func(ctx context.Context, userID, token string) error
	ClearResetToken func(ctx context.Context, userID string) error
	HashPassword    func(password string) (string, error)
	UpdatePassword  func(ctx context.Context, userID, hash string) error

	// Notify hands the issued token to the delivery collaborator. Nil or
	// failing notifiers never fail the flow.
	Notify func(ctx context.Context, email, token string)

	CheckResetRate     func(ctx context.Context, email string) error
	RecordResetRequest func(ctx context.Context, email string) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  PasswordResetErrors
}

// RunForgotPassword issues a reset token, persists it on the user record
// (superseding any earlier token), and hands it to the notifier. Unknown
// emails return success with no side effects unless RevealAccountExistence
// is set; the miss is still audit-logged. Lookup failures that are not a
// missing record never get the uniform response, they fail the flow as
// StoreUnavailable.
func RunForgotPassword(ctx context.Context, email string, deps PasswordResetDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.GetUserByEmail == nil || deps.IssueResetToken == nil || deps.SaveResetToken == nil {
		return deps.Errors.EngineNotReady
	}

	if deps.CheckResetRate != nil {
		if err := deps.CheckResetRate(ctx, email); err != nil {
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, "", email, deps.Errors.RateLimited, nil)
			return deps.Errors.RateLimited
		}
	}
	if deps.RecordResetRequest != nil {
		if err := deps.RecordResetRequest(ctx, email); err != nil {
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, "", email, deps.Errors.RateLimited, nil)
			return deps.Errors.RateLimited
		}
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil && (deps.IsNotFound == nil || !deps.IsNotFound(err)) {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", email, err, map[string]string{
			"reason": "store_lookup_failed",
		})
		return deps.Errors.StoreUnavailable
	}
	if err != nil || user == nil {
		deps.EmitAudit(ctx, deps.Events.UnknownEmail, false, "", email, nil, nil)
		if deps.RevealAccountExistence {
			return deps.Errors.InvalidCredentials
		}
		return nil
	}

	token, err := deps.IssueResetToken(user.ID)
	if err != nil {
		return err
	}
	if err := deps.SaveResetToken(ctx, user.ID, token); err != nil {
		return err
	}

	if deps.Notify != nil {
		deps.Notify(ctx, user.Email, token)
	}

	deps.MetricInc(deps.Metrics.Requested)
	deps.EmitAudit(ctx, deps.Events.Requested, true, user.ID, email, nil, nil)
	return nil
}

// RunResetPassword completes a reset. The confirmation check runs before any
// token verification. A token is accepted only when it verifies against the
// reset secret AND equals the value currently stored on the record, so a
// superseded or already-used token always fails. Store and crypto failures
// past the verification step are reported as an invalid token: the flow
// fails closed rather than disclosing internals.
func RunResetPassword(ctx context.Context, token, password, confirm string, deps PasswordResetDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.GetUserByID == nil || deps.ParseResetToken == nil ||
		deps.HashPassword == nil || deps.UpdatePassword == nil || deps.ClearResetToken == nil {
		return deps.Errors.EngineNotReady
	}

	if password != confirm {
		return deps.Errors.PasswordMismatch
	}

	userID, err := deps.ParseResetToken(token)
	if err != nil {
		return failReset(ctx, "", "token_verify", deps)
	}

	user, err := deps.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return failReset(ctx, userID, "user_not_found", deps)
	}
	if user.ResetToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.ResetToken), []byte(token)) != 1 {
		return failReset(ctx, user.ID, "token_superseded", deps)
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return failReset(ctx, user.ID, "hash_failed", deps)
	}
	if err := deps.UpdatePassword(ctx, user.ID, hash); err != nil {
		return failReset(ctx, user.ID, "store_update_failed", deps)
	}
	if err := deps.ClearResetToken(ctx, user.ID); err != nil {
		return failReset(ctx, user.ID, "store_clear_failed", deps)
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, user.Email, nil, nil)
	return nil
}

func failReset(ctx context.Context, userID, reason string, deps PasswordResetDeps) error {
	deps.MetricInc(deps.Metrics.Failure)
	deps.EmitAudit(ctx, deps.Events.Failure, false, userID, "", deps.Errors.TokenInvalid, map[string]string{
		"reason": reason,
	})
	return deps.Errors.TokenInvalid
}
