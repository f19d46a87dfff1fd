package flows

import "context"

// UserRecord is the flow-local view of a credential record. The engine maps
// the host's user model into this shape before invoking a flow.
type UserRecord struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	ResetToken   string

	TwoFactorEnabled bool
	TwoFactorSecret  string
}

// AuditFunc records one flow outcome. Implementations must not block the
// flow; the engine backs this with an async dispatcher.
type AuditFunc func(ctx context.Context, event string, success bool, userID, email string, cause error, meta map[string]string)

func noopAudit(context.Context, string, bool, string, string, error, map[string]string) {}

func noopMetric(int) {}

func noClientIP(context.Context) string { return "" }
