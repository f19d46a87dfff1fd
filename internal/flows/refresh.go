package flows

import "context"

// RefreshMetrics carries metric IDs used by the refresh flow.
type RefreshMetrics struct {
	Success int
	Failure int
}

// RefreshEvents carries audit event names used by the refresh flow.
type RefreshEvents struct {
	Success string
	Failure string
}

// RefreshErrors carries host-level sentinel errors used by the refresh flow.
type RefreshErrors struct {
	EngineNotReady error
	UserNotFound   error
}

// RefreshDeps captures token-refresh dependencies.
type RefreshDeps struct {
	GetUserByID func(context.Context, string) (*UserRecord, error)
	IssueAccess func(userID, username string) (string, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RefreshMetrics
	Events  RefreshEvents
	Errors  RefreshErrors
}

// RunRefresh issues a fresh bearer token for an already-authenticated
// subject. The identity arrives as an explicit parameter, resolved by the
// request guard; the flow re-checks that the subject still exists.
func RunRefresh(ctx context.Context, userID string, deps RefreshDeps) (string, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.GetUserByID == nil || deps.IssueAccess == nil {
		return "", deps.Errors.EngineNotReady
	}

	user, err := deps.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, userID, "", deps.Errors.UserNotFound, nil)
		return "", deps.Errors.UserNotFound
	}

	token, err := deps.IssueAccess(user.ID, user.Username)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, user.Email, err, nil)
		return "", err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, user.Email, nil, nil)
	return token, nil
}
