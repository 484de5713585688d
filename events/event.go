// Package events carries the structured audit events emitted by the
// admission and cost-accounting components: denials, fail-open fallbacks,
// degraded samples, persisted usage batches.
//
// The bus delivers events in-process to subscribed listeners and can
// optionally forward every event to a Kafka topic as JSON. The sink that
// consumes them is an external collaborator; this package only produces
// the payloads.
package events

import "time"

// Event names
const (
	NameAdmissionDenied = "admission.denied"
	NameStoreFailOpen   = "admission.fail_open"
	NameSampleDegraded  = "usage.sample_degraded"
	NameUsagePersisted  = "cost.usage_persisted"
	NamePersistDropped  = "cost.persist_dropped"
	NameLimitsReset     = "admission.limits_reset"
)

// Event audit event interface
type Event interface {
	// Name event name (unique identifier, such as "admission.denied")
	Name() string

	// OccurredAt event creation time
	OccurredAt() time.Time
}

// BaseEvent base struct embedded by concrete events
type BaseEvent struct {
	EventName string    `json:"event"`
	At        time.Time `json:"occurred_at"`
}

// NewBaseEvent creates a base event stamped with the current time
func NewBaseEvent(name string) BaseEvent {
	return BaseEvent{EventName: name, At: time.Now()}
}

func (e BaseEvent) Name() string          { return e.EventName }
func (e BaseEvent) OccurredAt() time.Time { return e.At }

// AdmissionDenied a request was denied by the rate limit engine
type AdmissionDenied struct {
	BaseEvent
	TenantID   string `json:"tenant_id"`
	Class      string `json:"class"`
	UserID     string `json:"user_id,omitempty"`
	Count      int64  `json:"count"`
	Limit      int64  `json:"limit"`
	ResetAfter int64  `json:"reset_after_seconds"`
}

// StoreFailOpen the counter store was unreachable and the request was
// admitted without enforcement
type StoreFailOpen struct {
	BaseEvent
	TenantID string `json:"tenant_id"`
	Class    string `json:"class"`
	Error    string `json:"error"`
}

// SampleDegraded one resource collector failed and a zero-usage sample
// was substituted
type SampleDegraded struct {
	BaseEvent
	TenantID string `json:"tenant_id"`
	Resource string `json:"resource"`
	Error    string `json:"error"`
}

// UsagePersisted a batch of usage samples was written to the history store
type UsagePersisted struct {
	BaseEvent
	TenantID string `json:"tenant_id"`
	Samples  int    `json:"samples"`
}

// PersistDropped a batch was dropped after the persistence retry failed
type PersistDropped struct {
	BaseEvent
	TenantID string `json:"tenant_id"`
	Samples  int    `json:"samples"`
	Error    string `json:"error"`
}

// LimitsReset an operator cleared tenant counters
type LimitsReset struct {
	BaseEvent
	TenantID string `json:"tenant_id"`
	Class    string `json:"class,omitempty"`
}
