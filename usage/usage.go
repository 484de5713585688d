// Package usage samples per-tenant resource consumption across the
// platform's cost-bearing resources. Samples are immutable value objects;
// money only enters the picture downstream, where a rate table turns them
// into cost records.
package usage

import (
	"time"
)

// ResourceType a metered, cost-bearing resource.
// Distinct from an endpoint class: classes gate admission, resources
// accrue cost.
type ResourceType string

const (
	ResourceCPU      ResourceType = "cpu"
	ResourceMemory   ResourceType = "memory"
	ResourceStorage  ResourceType = "storage"
	ResourceNetwork  ResourceType = "network"
	ResourceDatabase ResourceType = "database"
	ResourceCache    ResourceType = "cache"
)

// Resources all metered resource types in canonical order
func Resources() []ResourceType {
	return []ResourceType{
		ResourceCPU,
		ResourceMemory,
		ResourceStorage,
		ResourceNetwork,
		ResourceDatabase,
		ResourceCache,
	}
}

// Sample one point-in-time usage measurement for (tenant, resource).
// Degraded marks a zero-usage placeholder written when the collector
// failed; it keeps the series complete and the failure visible.
type Sample struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	Resource    ResourceType `json:"resource"`
	Usage       float64      `json:"usage"`
	Limit       float64      `json:"limit"`
	Unit        string       `json:"unit"`
	SampledAt   time.Time    `json:"sampled_at"`
	CostPerUnit float64      `json:"cost_per_unit"`
	Degraded    bool         `json:"degraded"`
}

// RateProvider supplies the cost-per-unit annotation for samples.
// Implemented by the cost package's rate table.
type RateProvider interface {
	// Rate returns the cost per unit for a resource; ok is false when no
	// rate is configured.
	Rate(resource ResourceType) (rate float64, ok bool)
}
