// Package admission implements per-tenant, per-endpoint-class admission
// control: a fixed-window counter shared across service instances plus the
// engine that turns quota rules into admit/deny decisions.
//
// The counter uses fixed, non-overlapping windows. A burst of up to
// 2 x max_count requests can straddle a window boundary; that leniency is a
// documented property of the algorithm, not a bug. The Store contract
// (count + remaining TTL) also fits a sliding-window implementation, so the
// algorithm can be swapped without touching Engine callers.
package admission

import (
	"context"
	"strings"
	"time"
)

// Store abstraction over the shared admission counter.
//
// Implementations must make CheckAndIncr atomic end-to-end: the first
// increment creates the key and sets its expiry in the same indivisible
// operation. A separate create-then-expire sequence is a race window in
// which concurrent callers can leak a counter with no expiry.
type Store interface {
	// CheckAndIncr atomically increments the counter for key, starting a
	// new window of the given length if the key did not exist.
	// Returns the post-increment count and the remaining window TTL.
	CheckAndIncr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)

	// Peek reads the current count and TTL without creating or mutating
	// the counter. A missing key reads as (0, 0, nil).
	Peek(ctx context.Context, key string) (count int64, ttl time.Duration, err error)

	// Reset deletes the given counters
	Reset(ctx context.Context, keys ...string) error

	// ResetPrefix deletes every counter whose key starts with prefix
	ResetPrefix(ctx context.Context, prefix string) error

	// Close releases store resources
	Close() error
}

// BuildKey composes the counter key for (tenant, class, optional user)
func BuildKey(tenantID, class, userID string) string {
	parts := []string{tenantID, class}
	if userID != "" {
		parts = append(parts, userID)
	}
	return strings.Join(parts, ":")
}

// TenantPrefix returns the key prefix covering all counters of a tenant
func TenantPrefix(tenantID string) string {
	return tenantID + ":"
}

// ClassPrefix returns the key prefix covering one tenant class, including
// any per-user sub-keys
func ClassPrefix(tenantID, class string) string {
	return tenantID + ":" + class
}
