package authkit

import (
	"context"
	"strings"

	"github.com/halcyon-labs/authkit/internal/flows"
	"github.com/halcyon-labs/authkit/internal/rate"
	"github.com/halcyon-labs/authkit/jwt"
	"github.com/halcyon-labs/authkit/password"
)

// Engine orchestrates the authentication flows. Construct one through
// [Builder.Build]; all methods are safe for concurrent use afterwards.
type Engine struct {
	config       Config
	store        UserStore
	jwtManager   *jwt.Manager
	passwordHash *password.Hasher
	totp         *totpManager
	rateLimiter  *rate.Limiter
	audit        *auditDispatcher
	metrics      *Metrics
	notifier     ResetNotifier
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// MetricsSnapshot returns a point-in-time copy of the flow counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Authenticate validates a raw Authorization credential (scheme already
// stripped) and resolves the identity it carries. When a token prefix is
// configured, a credential without it is rejected as [ErrForbiddenToken];
// everything else that fails collapses to [ErrTokenInvalid].
func (e *Engine) Authenticate(raw string) (*Identity, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	material := raw
	if prefix := e.config.JWT.TokenPrefix; prefix != "" {
		if !strings.HasPrefix(material, prefix) {
			e.metricInc(MetricTokenRejected)
			return nil, ErrForbiddenToken
		}
		material = strings.TrimSpace(strings.TrimPrefix(material, prefix))
	}
	if material == "" {
		e.metricInc(MetricTokenRejected)
		return nil, ErrTokenInvalid
	}

	claims, err := e.jwtManager.ParseAccess(material)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		return nil, ErrTokenInvalid
	}

	e.metricInc(MetricTokenValidated)
	return &Identity{
		UserID:            claims.Subject,
		Username:          claims.Username,
		TwoFactorVerified: claims.TwoFactorVerified,
	}, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) auditFunc() flows.AuditFunc {
	return func(ctx context.Context, event string, success bool, userID, email string, cause error, meta map[string]string) {
		if e == nil || e.audit == nil || event == "" {
			return
		}
		ip := clientIPFromContext(ctx)
		e.audit.Emit(ctx, newAuditEvent(event, success, userID, email, ip, cause, meta))
	}
}

// normalizeEmail lowercases and trims the lookup key. Store implementations
// receive the normalized form only.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (e *Engine) lookupByEmail(ctx context.Context, email string) (*flows.UserRecord, error) {
	user, err := e.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return toFlowRecord(user), nil
}

func (e *Engine) lookupByID(ctx context.Context, id string) (*flows.UserRecord, error) {
	user, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFlowRecord(user), nil
}

func toFlowRecord(u *User) *flows.UserRecord {
	if u == nil {
		return nil
	}
	return &flows.UserRecord{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		PasswordHash:     u.PasswordHash,
		ResetToken:       u.ResetToken,
		TwoFactorEnabled: u.TwoFactorEnabled,
		TwoFactorSecret:  u.TwoFactorSecret,
	}
}
