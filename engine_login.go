package authkit

import (
	"context"

	"github.com/halcyon-labs/authkit/internal/flows"
)

// Login authenticates an email/password pair. Accounts with a second factor
// enrolled receive a TwoFactorRequired result instead of a token; the bearer
// token for those accounts is only issued by [Engine.VerifyTwoFactor].
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	result, err := flows.RunLogin(ctx, email, password, e.loginFlowDeps())
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:       result.AccessToken,
		TwoFactorRequired: result.TwoFactorRequired,
		UserID:            result.UserID,
	}, nil
}

func (e *Engine) loginFlowDeps() flows.LoginDeps {
	deps := flows.LoginDeps{
		ClientIPFromContext: clientIPFromContext,
		GetUserByEmail:      e.lookupByEmail,
		VerifyPassword:      e.passwordHash.Verify,
		IssueAccess: func(userID, username string) (string, error) {
			return e.jwtManager.IssueAccess(userID, username, false)
		},
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.auditFunc(),
		Metrics: flows.LoginMetrics{
			Success:           int(MetricLoginSuccess),
			Failure:           int(MetricLoginFailure),
			RateLimited:       int(MetricLoginRateLimited),
			TwoFactorRequired: int(MetricLogin2FARequired),
		},
		Events: flows.LoginEvents{
			Success:           auditEventLoginSuccess,
			Failure:           auditEventLoginFailure,
			RateLimited:       auditEventLoginRateLimited,
			TwoFactorRequired: auditEventLogin2FARequired,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			RateLimited:        ErrLoginRateLimited,
		},
	}

	if e.config.Throttle.EnableLoginThrottle && e.rateLimiter != nil {
		deps.CheckLoginRate = func(ctx context.Context, email, ip string) error {
			return e.rateLimiter.CheckLogin(ctx, normalizeEmail(email), ip)
		}
		deps.RecordLoginFailure = func(ctx context.Context, email, ip string) error {
			return e.rateLimiter.RecordLoginFailure(ctx, normalizeEmail(email), ip)
		}
		deps.ResetLoginRate = func(ctx context.Context, email, ip string) error {
			return e.rateLimiter.ResetLogin(ctx, normalizeEmail(email), ip)
		}
	}

	return deps
}
