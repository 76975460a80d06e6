package authkit

import "github.com/flowzz/authkit/internal/metrics"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = metrics.MetricID

const (
	// MetricLoginSuccess counts accepted credential exchanges.
	MetricLoginSuccess = metrics.MetricLoginSuccess
	// MetricLoginFailure counts rejected or failed credential exchanges,
	// including locally rejected malformed input.
	MetricLoginFailure = metrics.MetricLoginFailure
	// MetricHydrationRestored counts sessions restored from storage.
	MetricHydrationRestored = metrics.MetricHydrationRestored
	// MetricHydrationCorrupt counts persisted blobs discarded as corrupt.
	MetricHydrationCorrupt = metrics.MetricHydrationCorrupt
	// MetricValidateSuccess counts validations that confirmed the session.
	MetricValidateSuccess = metrics.MetricValidateSuccess
	// MetricValidateUnauthenticated counts validations skipped for lack of
	// a session.
	MetricValidateUnauthenticated = metrics.MetricValidateUnauthenticated
	// MetricValidateTransient counts validations that failed transiently
	// without evicting the session.
	MetricValidateTransient = metrics.MetricValidateTransient
	// MetricRefreshSuccess counts token rotations performed.
	MetricRefreshSuccess = metrics.MetricRefreshSuccess
	// MetricRefreshFailure counts refresh calls that failed.
	MetricRefreshFailure = metrics.MetricRefreshFailure
	// MetricRefreshCoalesced counts callers that shared another caller's
	// in-flight refresh instead of issuing their own.
	MetricRefreshCoalesced = metrics.MetricRefreshCoalesced
	// MetricSessionExpired counts sessions cleared after refresh rejection.
	MetricSessionExpired = metrics.MetricSessionExpired
	// MetricSessionCleared counts Clear transitions from any source.
	MetricSessionCleared = metrics.MetricSessionCleared
	// MetricLogout counts completed logouts.
	MetricLogout = metrics.MetricLogout
	// MetricRevokeFailed counts best-effort revoke calls that failed.
	MetricRevokeFailed = metrics.MetricRevokeFailed
)

// MetricsSnapshot is a point-in-time copy of all counters; read individual
// values with Value(id).
type MetricsSnapshot = metrics.Snapshot
