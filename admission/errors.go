package admission

import "errors"

var (
	// ErrStoreUnavailable the shared counter store is unreachable or timed out.
	// The engine treats this as a fail-open condition, never a hard failure.
	ErrStoreUnavailable = errors.New("counter store unavailable")

	// ErrStoreClosed operation on a closed store
	ErrStoreClosed = errors.New("counter store is closed")
)
