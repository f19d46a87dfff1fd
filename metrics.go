package authkit

import "sync/atomic"

// MetricID identifies one flow counter.
type MetricID uint8

const (
	// MetricLoginSuccess counts logins that issued a bearer token.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricLoginRateLimited counts throttled login attempts.
	MetricLoginRateLimited
	// MetricLogin2FARequired counts logins deferred to a second factor.
	MetricLogin2FARequired
	// MetricResetRequested counts forgot-password requests that issued a token.
	MetricResetRequested
	// MetricResetSuccess counts completed password resets.
	MetricResetSuccess
	// MetricResetFailure counts rejected password resets.
	MetricResetFailure
	// MetricResetRateLimited counts throttled reset requests.
	MetricResetRateLimited
	// MetricTwoFactorEnabled counts 2FA enrollments.
	MetricTwoFactorEnabled
	// MetricTwoFactorDisabled counts 2FA removals.
	MetricTwoFactorDisabled
	// MetricTwoFactorSuccess counts verified 2FA codes.
	MetricTwoFactorSuccess
	// MetricTwoFactorFailure counts rejected 2FA codes.
	MetricTwoFactorFailure
	// MetricRefreshSuccess counts reissued bearer tokens.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh calls.
	MetricRefreshFailure
	// MetricTokenValidated counts accepted bearer credentials.
	MetricTokenValidated
	// MetricTokenRejected counts rejected bearer credentials.
	MetricTokenRejected

	metricCount
)

// Metrics is a fixed set of atomic counters, one per MetricID.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments the counter for id. Unknown IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
