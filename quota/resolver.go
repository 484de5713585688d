package quota

import (
	"context"
	"strings"
)

// TierResolver resolves a tenant identifier to its plan tier.
// Production deployments back this with the billing/plan service; the
// catalog only consumes the resolved tier.
type TierResolver interface {
	Resolve(ctx context.Context, tenantID string) (Tier, error)
}

// PrefixResolver derives the tier from identifier prefixes
// ("premium_" / "enterprise_"), matching the historical convention.
// Everything else is standard.
type PrefixResolver struct{}

// NewPrefixResolver creates the default prefix-based resolver
func NewPrefixResolver() *PrefixResolver {
	return &PrefixResolver{}
}

// Resolve returns the tier for a tenant identifier
func (r *PrefixResolver) Resolve(ctx context.Context, tenantID string) (Tier, error) {
	switch {
	case strings.HasPrefix(tenantID, "premium_"):
		return TierPremium, nil
	case strings.HasPrefix(tenantID, "enterprise_"):
		return TierEnterprise, nil
	default:
		return TierStandard, nil
	}
}

// StaticResolver always returns a fixed tier (useful in tests)
type StaticResolver struct {
	Tier Tier
}

// Resolve returns the fixed tier
func (r *StaticResolver) Resolve(ctx context.Context, tenantID string) (Tier, error) {
	return r.Tier, nil
}
