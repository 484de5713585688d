package usage

import (
	"context"
	"fmt"
)

// Collector measures one resource for one tenant. Limit and Unit are
// static per collector so a degraded sample can still carry them.
type Collector interface {
	Resource() ResourceType
	Unit() string
	Limit() float64
	Collect(ctx context.Context, tenantID string) (float64, error)
}

// AttributedCollector measures a resource through an AttributionFunc
type AttributedCollector struct {
	resource ResourceType
	unit     string
	limit    float64
	attr     AttributionFunc
}

// NewAttributedCollector creates a collector backed by an attribution
// function
func NewAttributedCollector(resource ResourceType, unit string, limit float64, attr AttributionFunc) (*AttributedCollector, error) {
	if resource == "" {
		return nil, fmt.Errorf("resource cannot be empty")
	}
	if attr == nil {
		return nil, fmt.Errorf("attribution func cannot be nil")
	}
	return &AttributedCollector{
		resource: resource,
		unit:     unit,
		limit:    limit,
		attr:     attr,
	}, nil
}

func (c *AttributedCollector) Resource() ResourceType { return c.resource }
func (c *AttributedCollector) Unit() string           { return c.unit }
func (c *AttributedCollector) Limit() float64         { return c.limit }

// Collect resolves the tenant's attributed share
func (c *AttributedCollector) Collect(ctx context.Context, tenantID string) (float64, error) {
	return c.attr(ctx, tenantID, c.resource)
}

// collectorShape per-resource limit and unit defaults
type collectorShape struct {
	unit  string
	limit float64
}

var defaultShapes = map[ResourceType]collectorShape{
	ResourceCPU:      {unit: "percent", limit: 100},
	ResourceMemory:   {unit: "GB", limit: 64},
	ResourceStorage:  {unit: "GB", limit: 100},
	ResourceNetwork:  {unit: "GB", limit: 1000},
	ResourceDatabase: {unit: "queries", limit: 10000},
	ResourceCache:    {unit: "operations", limit: 100000},
}

// DefaultCollectors one collector per resource type in canonical order,
// all backed by the given attribution function (nil uses HashAttribution)
func DefaultCollectors(attr AttributionFunc) []Collector {
	if attr == nil {
		attr = HashAttribution
	}

	out := make([]Collector, 0, len(defaultShapes))
	for _, resource := range Resources() {
		shape := defaultShapes[resource]
		c, _ := NewAttributedCollector(resource, shape.unit, shape.limit, attr)
		out = append(out, c)
	}
	return out
}
