package cost

import (
	"time"

	"github.com/aquafarm-pro/tenantcore/usage"
)

// UsageRecord one persisted usage sample. The table is append-only: rows
// are written once by the sampler and only ever leave through retention
// purges.
type UsageRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	TenantID    string    `gorm:"index;size:128;not null"`
	Resource    string    `gorm:"size:32;not null"`
	UsageValue  float64   `gorm:"not null"`
	LimitValue  float64   `gorm:"not null"`
	Unit        string    `gorm:"size:32"`
	SampledAt   time.Time `gorm:"index;not null"`
	CostPerUnit float64   `gorm:"not null"`
	Degraded    bool      `gorm:"not null"`
	CreatedAt   time.Time
}

// TableName storage table
func (UsageRecord) TableName() string {
	return "resource_usage"
}

// recordFromSample converts a sample into its persisted form
func recordFromSample(s usage.Sample) UsageRecord {
	return UsageRecord{
		ID:          s.ID,
		TenantID:    s.TenantID,
		Resource:    string(s.Resource),
		UsageValue:  s.Usage,
		LimitValue:  s.Limit,
		Unit:        s.Unit,
		SampledAt:   s.SampledAt,
		CostPerUnit: s.CostPerUnit,
		Degraded:    s.Degraded,
	}
}

// Sample converts the record back into its sample form
func (r UsageRecord) Sample() usage.Sample {
	return usage.Sample{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Resource:    usage.ResourceType(r.Resource),
		Usage:       r.UsageValue,
		Limit:       r.LimitValue,
		Unit:        r.Unit,
		SampledAt:   r.SampledAt,
		CostPerUnit: r.CostPerUnit,
		Degraded:    r.Degraded,
	}
}
