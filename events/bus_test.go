package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectingListener records received events
type collectingListener struct {
	mu     sync.Mutex
	events []Event
}

func (l *collectingListener) OnEvent(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *collectingListener) names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.Name()
	}
	return out
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(16)
	listener := &collectingListener{}
	bus.Subscribe(listener)

	bus.Publish(AdmissionDenied{
		BaseEvent: NewBaseEvent(NameAdmissionDenied),
		TenantID:  "t1",
		Class:     "auth",
		Count:     11,
		Limit:     10,
	})
	bus.Publish(StoreFailOpen{
		BaseEvent: NewBaseEvent(NameStoreFailOpen),
		TenantID:  "t1",
		Class:     "api",
		Error:     "dial tcp: connection refused",
	})

	bus.Close()

	assert.Equal(t, []string{NameAdmissionDenied, NameStoreFailOpen}, listener.names())
}

func TestBus_PublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus(16)
	listener := &collectingListener{}
	bus.Subscribe(listener)
	bus.Close()

	bus.Publish(LimitsReset{BaseEvent: NewBaseEvent(NameLimitsReset), TenantID: "t1"})
	assert.Empty(t, listener.names())
}

func TestBus_PanickingListenerDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(16)
	bus.Subscribe(ListenerFunc(func(Event) { panic("boom") }))
	listener := &collectingListener{}
	bus.Subscribe(listener)

	bus.Publish(UsagePersisted{BaseEvent: NewBaseEvent(NameUsagePersisted), TenantID: "t1", Samples: 6})
	bus.Close()

	assert.Equal(t, []string{NameUsagePersisted}, listener.names())
}

// stubKafka records published payloads
type stubKafka struct {
	mu   sync.Mutex
	keys []string
}

func (s *stubKafka) PublishJSON(ctx context.Context, topic, key string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return nil
}

func (s *stubKafka) Close() error { return nil }

func TestBus_KafkaForwarding(t *testing.T) {
	kafka := &stubKafka{}
	bus := NewBus(16, WithKafka(kafka, "tenantcore.audit"))

	bus.Publish(SampleDegraded{
		BaseEvent: NewBaseEvent(NameSampleDegraded),
		TenantID:  "t1",
		Resource:  "database",
		Error:     "timeout",
	})
	bus.Close()

	kafka.mu.Lock()
	defer kafka.mu.Unlock()
	require.Len(t, kafka.keys, 1)
	assert.Equal(t, NameSampleDegraded, kafka.keys[0])
}

func TestBaseEvent_Timestamp(t *testing.T) {
	before := time.Now()
	e := NewBaseEvent(NameLimitsReset)
	assert.Equal(t, NameLimitsReset, e.Name())
	assert.False(t, e.OccurredAt().Before(before))
}
