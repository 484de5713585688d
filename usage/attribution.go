package usage

import (
	"context"
	"hash/fnv"
)

// AttributionFunc maps a tenant to its share of a shared resource.
// Real deployments plug in cgroup accounting, per-schema database stats or
// billing exports; the function only has to be deterministic per tenant
// within one sampling pass.
type AttributionFunc func(ctx context.Context, tenantID string, resource ResourceType) (float64, error)

// hashAttributionShape base value plus a bounded hash-derived offset
type hashAttributionShape struct {
	base float64
	mod  uint64
}

var hashShapes = map[ResourceType]hashAttributionShape{
	ResourceCPU:      {base: 25, mod: 50},
	ResourceMemory:   {base: 2, mod: 8},
	ResourceStorage:  {base: 10, mod: 50},
	ResourceNetwork:  {base: 50, mod: 200},
	ResourceDatabase: {base: 100, mod: 1000},
	ResourceCache:    {base: 1000, mod: 5000},
}

// HashAttribution deterministic placeholder attribution: a per-resource
// base plus an FNV-hash-derived offset of the tenant id. Stable across
// processes, which the historical hash-based variant was not.
func HashAttribution(ctx context.Context, tenantID string, resource ResourceType) (float64, error) {
	shape, ok := hashShapes[resource]
	if !ok {
		return 0, nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(tenantID))
	return shape.base + float64(h.Sum64()%shape.mod), nil
}
