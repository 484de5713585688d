// Package cost turns usage samples into money: a configurable rate table
// prices each resource, an append-only history store keeps the raw samples
// and the aggregator derives breakdowns and history views from them.
package cost

import (
	"github.com/aquafarm-pro/tenantcore/usage"
)

// Default cost per unit by resource
const (
	defaultRateCPU      = 0.05 // per CPU-percent hour
	defaultRateMemory   = 0.01 // per GB hour
	defaultRateStorage  = 0.10 // per GB month
	defaultRateNetwork  = 0.02 // per GB
	defaultRateDatabase = 0.03 // per query
	defaultRateCache    = 0.01 // per operation
)

// RateTable immutable cost-per-unit lookup
type RateTable struct {
	rates    map[usage.ResourceType]float64
	currency string
}

// NewRateTable builds a rate table from configured overrides on top of the
// default rates
func NewRateTable(cfg Config) *RateTable {
	rates := map[usage.ResourceType]float64{
		usage.ResourceCPU:      defaultRateCPU,
		usage.ResourceMemory:   defaultRateMemory,
		usage.ResourceStorage:  defaultRateStorage,
		usage.ResourceNetwork:  defaultRateNetwork,
		usage.ResourceDatabase: defaultRateDatabase,
		usage.ResourceCache:    defaultRateCache,
	}
	for resource, rate := range cfg.Rates {
		rates[usage.ResourceType(resource)] = rate
	}

	currency := cfg.Currency
	if currency == "" {
		currency = "USD"
	}

	return &RateTable{rates: rates, currency: currency}
}

// Rate returns the cost per unit for a resource; ok is false when the
// resource is not priced
func (t *RateTable) Rate(resource usage.ResourceType) (float64, bool) {
	rate, ok := t.rates[resource]
	return rate, ok
}

// Currency billing currency code
func (t *RateTable) Currency() string {
	return t.currency
}

// interface guard
var _ usage.RateProvider = (*RateTable)(nil)
