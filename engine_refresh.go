package authkit

import (
	"context"

	"github.com/halcyon-labs/authkit/internal/flows"
)

// Refresh issues a new bearer token for an already-authenticated identity.
// The identity is an explicit parameter: callers resolve it through the
// request guard (or [Engine.Authenticate]) and pass it in, never through
// ambient state.
func (e *Engine) Refresh(ctx context.Context, identity Identity) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if identity.UserID == "" {
		return "", ErrUserNotFound
	}
	return flows.RunRefresh(ctx, identity.UserID, e.refreshFlowDeps())
}

func (e *Engine) refreshFlowDeps() flows.RefreshDeps {
	return flows.RefreshDeps{
		GetUserByID: e.lookupByID,
		IssueAccess: func(userID, username string) (string, error) {
			return e.jwtManager.IssueAccess(userID, username, false)
		},
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.auditFunc(),
		Metrics: flows.RefreshMetrics{
			Success: int(MetricRefreshSuccess),
			Failure: int(MetricRefreshFailure),
		},
		Events: flows.RefreshEvents{
			Success: auditEventRefreshSuccess,
			Failure: auditEventRefreshFailure,
		},
		Errors: flows.RefreshErrors{
			EngineNotReady: ErrEngineNotReady,
			UserNotFound:   ErrUserNotFound,
		},
	}
}
