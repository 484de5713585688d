// Package quota resolves per-tenant admission quotas.
//
// A quota is tier-scoped: the catalog holds base rules per endpoint class
// plus per-tier overrides, and resolves the effective rule from the tenant's
// tier. Tier resolution itself is pluggable (TierResolver); the catalog
// never mutates at request time.
package quota

import "time"

// Tier tenant plan tier
type Tier string

const (
	TierStandard   Tier = "standard"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// EndpointClass endpoint category used for admission control.
// Distinct from usage.ResourceType (infrastructure dimensions); the two
// enumerations must not be conflated.
type EndpointClass string

const (
	ClassAPI       EndpointClass = "api"
	ClassAuth      EndpointClass = "auth"
	ClassUpload    EndpointClass = "upload"
	ClassInference EndpointClass = "inference"
	ClassTelemetry EndpointClass = "telemetry"
)

// Classes all known endpoint classes in canonical order
func Classes() []EndpointClass {
	return []EndpointClass{ClassAPI, ClassAuth, ClassUpload, ClassInference, ClassTelemetry}
}

// Rule effective quota for one (tier, endpoint class) pair
// Invariant: MaxCount > 0 and Window > 0 for every configured rule
type Rule struct {
	Class    EndpointClass
	MaxCount int64
	Window   time.Duration
}
