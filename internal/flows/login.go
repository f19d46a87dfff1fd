package flows

import "context"

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	AccessToken       string
	TwoFactorRequired bool
	UserID            string
}

// LoginMetrics carries metric IDs used by the login flow.
type LoginMetrics struct {
	Success           int
	Failure           int
	RateLimited       int
	TwoFactorRequired int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	Success           string
	Failure           string
	RateLimited       string
	TwoFactorRequired string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	RateLimited        error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	GetUserByEmail func(context.Context, string) (*UserRecord, error)
	VerifyPassword func(password, hash string) (bool, error)
	IssueAccess    func(userID, username string) (string, error)

	// Throttle hooks are nil when throttling is disabled.
	CheckLoginRate     func(ctx context.Context, email, ip string) error
	RecordLoginFailure func(ctx context.Context, email, ip string) error
	ResetLoginRate     func(ctx context.Context, email, ip string) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin executes the login flow. A user with a second factor enrolled
// gets a TwoFactorRequired result and no bearer token; everyone else gets a
// signed access token. Unknown email and wrong password are reported
// identically.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = noClientIP
	}
	if deps.GetUserByEmail == nil || deps.VerifyPassword == nil || deps.IssueAccess == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, "", email, deps.Errors.RateLimited, nil)
			return nil, deps.Errors.RateLimited
		}
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, failLogin(ctx, "", email, ip, "user_not_found", deps)
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, failLogin(ctx, user.ID, email, ip, "password_mismatch", deps)
	}

	if deps.ResetLoginRate != nil {
		_ = deps.ResetLoginRate(ctx, email, ip)
	}

	if user.TwoFactorEnabled {
		deps.MetricInc(deps.Metrics.TwoFactorRequired)
		deps.EmitAudit(ctx, deps.Events.TwoFactorRequired, true, user.ID, email, nil, nil)
		return &LoginResult{TwoFactorRequired: true, UserID: user.ID}, nil
	}

	token, err := deps.IssueAccess(user.ID, user.Username)
	if err != nil {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, user.ID, email, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, user.ID, email, nil, nil)
	return &LoginResult{AccessToken: token}, nil
}

func failLogin(ctx context.Context, userID, email, ip, reason string, deps LoginDeps) error {
	if deps.RecordLoginFailure != nil {
		if err := deps.RecordLoginFailure(ctx, email, ip); err != nil {
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, userID, email, deps.Errors.RateLimited, nil)
			return deps.Errors.RateLimited
		}
	}
	deps.MetricInc(deps.Metrics.Failure)
	deps.EmitAudit(ctx, deps.Events.Failure, false, userID, email, deps.Errors.InvalidCredentials, map[string]string{
		"reason": reason,
	})
	return deps.Errors.InvalidCredentials
}
