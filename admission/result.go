package admission

import (
	"math"
	"time"

	"github.com/aquafarm-pro/tenantcore/quota"
)

// Deny / degrade reasons attached to a Result
const (
	// ReasonLimitExceeded the window count passed the quota
	ReasonLimitExceeded = "limit_exceeded"

	// ReasonNoRule no quota rule configured for the class; treated as
	// unlimited and logged as a configuration gap
	ReasonNoRule = "no_rule"

	// ReasonStoreUnavailable the counter store was unreachable and the
	// request was admitted without enforcement
	ReasonStoreUnavailable = "store_unavailable"

	// ReasonTierUnresolved the tier resolver failed; admitted without
	// enforcement
	ReasonTierUnresolved = "tier_unresolved"
)

// Result admission decision plus the metadata callers surface as
// X-RateLimit-* response headers
type Result struct {
	// Allowed whether the request is admitted
	Allowed bool

	// Limit window quota (0 when no rule applies)
	Limit int64

	// Remaining admissions left in the current window
	Remaining int64

	// ResetAfter time until the window resets
	ResetAfter time.Duration

	// Reason empty on a normal admit; set on denial and on every
	// degraded admit so operators can tell "over quota" apart from
	// "quota system was unavailable"
	Reason string
}

// ResetSeconds reset countdown in whole seconds, rounded up
func (r Result) ResetSeconds() int64 {
	if r.ResetAfter <= 0 {
		return 0
	}
	return int64(math.Ceil(r.ResetAfter.Seconds()))
}

// Degraded reports whether the decision was made without enforcement
func (r Result) Degraded() bool {
	return r.Reason == ReasonStoreUnavailable || r.Reason == ReasonTierUnresolved
}

// Usage one endpoint class entry of a tenant usage snapshot
type Usage struct {
	Class   quota.EndpointClass `json:"class"`
	Count   int64               `json:"count"`
	Limit   int64               `json:"limit"`
	Window  time.Duration       `json:"window"`
	Percent float64             `json:"percent"`
}
