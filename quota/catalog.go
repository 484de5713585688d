package quota

import (
	"context"
	"fmt"
)

// Catalog tier-scoped quota policy table.
// Built once from configuration and immutable afterwards, so lookups on the
// admission hot path are lock-free.
type Catalog struct {
	defaults map[EndpointClass]Rule
	tiers    map[Tier]map[EndpointClass]Rule
	resolver TierResolver
}

// NewCatalog builds a catalog from configuration
// resolver may be nil, in which case the prefix resolver is used
func NewCatalog(cfg Config, resolver TierResolver) (*Catalog, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quota config: %w", err)
	}
	if resolver == nil {
		resolver = NewPrefixResolver()
	}

	c := &Catalog{
		defaults: make(map[EndpointClass]Rule, len(cfg.Defaults)),
		tiers:    make(map[Tier]map[EndpointClass]Rule, len(cfg.Tiers)),
		resolver: resolver,
	}

	for class, rc := range cfg.Defaults {
		c.defaults[EndpointClass(class)] = Rule{
			Class:    EndpointClass(class),
			MaxCount: rc.MaxCount,
			Window:   rc.Window,
		}
	}
	for tier, rules := range cfg.Tiers {
		t := make(map[EndpointClass]Rule, len(rules))
		for class, rc := range rules {
			t[EndpointClass(class)] = Rule{
				Class:    EndpointClass(class),
				MaxCount: rc.MaxCount,
				Window:   rc.Window,
			}
		}
		c.tiers[Tier(tier)] = t
	}

	return c, nil
}

// Resolve returns the effective rule for (tenant, class).
// The second return value is false when no rule exists for the class,
// which callers must treat as "unlimited" rather than "zero quota".
func (c *Catalog) Resolve(ctx context.Context, tenantID string, class EndpointClass) (Rule, bool, error) {
	tier, err := c.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return Rule{}, false, fmt.Errorf("resolve tier for %s failed: %w", tenantID, err)
	}

	if overrides, ok := c.tiers[tier]; ok {
		if rule, ok := overrides[class]; ok {
			return rule, true, nil
		}
	}

	rule, ok := c.defaults[class]
	return rule, ok, nil
}

// ResolveAll returns the effective rules for every class the tenant is
// subject to: the defaults plus the tier's overrides, including classes the
// tier defines that have no default (used by the usage snapshot, which
// reports all classes at once)
func (c *Catalog) ResolveAll(ctx context.Context, tenantID string) (map[EndpointClass]Rule, error) {
	tier, err := c.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tier for %s failed: %w", tenantID, err)
	}

	overrides := c.tiers[tier]
	out := make(map[EndpointClass]Rule, len(c.defaults)+len(overrides))
	for class, rule := range c.defaults {
		out[class] = rule
	}
	for class, rule := range overrides {
		out[class] = rule
	}
	return out, nil
}
