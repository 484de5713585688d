package errcode

import "net/http"

// Module codes
const (
	ModuleQuota     = 20
	ModuleAdmission = 21
	ModuleUsage     = 22
	ModuleCost      = 23
)

var (
	// ErrRateLimitExceeded the tenant ran out of quota for an endpoint class
	ErrRateLimitExceeded = New(ModuleAdmission, 1, "admission", "rate limit exceeded", http.StatusTooManyRequests)

	// ErrUnknownEndpointClass no quota rule configured for the class
	ErrUnknownEndpointClass = New(ModuleQuota, 1, "quota", "unknown endpoint class", http.StatusBadRequest)

	// ErrSnapshotFailed usage snapshot could not be read from the counter store
	ErrSnapshotFailed = New(ModuleAdmission, 2, "admission", "usage snapshot failed", http.StatusServiceUnavailable)

	// ErrResetFailed counter reset failed against the store
	ErrResetFailed = New(ModuleAdmission, 3, "admission", "limit reset failed", http.StatusServiceUnavailable)

	// ErrBreakdownFailed cost breakdown query failed
	ErrBreakdownFailed = New(ModuleCost, 1, "cost", "cost breakdown failed", http.StatusInternalServerError)

	// ErrHistoryFailed usage history query failed
	ErrHistoryFailed = New(ModuleCost, 2, "cost", "usage history failed", http.StatusInternalServerError)

	// ErrBadRequest malformed admin request parameters
	ErrBadRequest = New(ModuleAdmission, 4, "admission", "invalid request", http.StatusBadRequest)
)
