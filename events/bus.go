package events

import (
	"context"
	"sync"
)

// Listener receives events from the bus
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(event Event)

func (f ListenerFunc) OnEvent(event Event) { f(event) }

// Publisher is the producer-side view of the bus
type Publisher interface {
	Publish(event Event)
}

// Bus buffered in-process event bus.
// Publish never blocks: when the buffer is full the event is dropped, so a
// slow listener can never stall the admission hot path.
type Bus struct {
	listeners []Listener
	eventChan chan Event
	kafka     KafkaPublisher
	topic     string
	closed    bool
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

// BusOption configures the bus
type BusOption func(*Bus)

// WithKafka forwards every published event to the given topic as JSON
func WithKafka(publisher KafkaPublisher, topic string) BusOption {
	return func(b *Bus) {
		b.kafka = publisher
		b.topic = topic
	}
}

// NewBus creates an event bus with the given buffer size
func NewBus(bufferSize int, opts ...BusOption) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	b := &Bus{
		listeners: make([]Listener, 0),
		eventChan: make(chan Event, bufferSize),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Subscribe registers a listener
func (b *Bus) Subscribe(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.listeners = append(b.listeners, listener)
}

// Publish enqueues an event (non-blocking, drops when full)
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.eventChan <- event:
	default:
		// buffer full, drop
	}
}

// Close stops dispatching and waits for in-flight events
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.eventChan)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()

	for event := range b.eventChan {
		b.mu.RLock()
		listeners := make([]Listener, len(b.listeners))
		copy(listeners, b.listeners)
		kafka, topic := b.kafka, b.topic
		b.mu.RUnlock()

		for _, listener := range listeners {
			b.safeNotify(listener, event)
		}

		if kafka != nil {
			_ = kafka.PublishJSON(context.Background(), topic, event.Name(), event)
		}
	}
}

// safeNotify isolates listener panics from the dispatch loop
func (b *Bus) safeNotify(listener Listener, event Event) {
	defer func() {
		_ = recover()
	}()
	listener.OnEvent(event)
}
