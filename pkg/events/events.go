package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/atomcas/pkg/metrics"
)

// EventType represents the type of event
type EventType string

const (
	EventAtomStored         EventType = "atom.stored"
	EventAtomRemoved        EventType = "atom.removed"
	EventValueStored        EventType = "value.stored"
	EventWorkspacePublished EventType = "workspace.published"
	EventWriteQueueStalled  EventType = "writeback.stalled"
	EventWriteQueueResumed  EventType = "writeback.resumed"
)

// Event represents a notification of backend activity. GUID/WCID carry the
// subject identifiers; Metadata holds anything extra worth logging alongside
// (e.g. a removed atom's incoming-set size).
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	GUID      string
	WCID      string
	Message   string
	Metadata  map[string]string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution. Buffer sizes
// are fixed at construction (pkg/config.EventsConfig) rather than
// hardcoded, since how much a burst of backend activity can outrun a
// slow watcher before events start dropping is an operational knob,
// not a constant.
type Broker struct {
	subscribers          map[Subscriber]bool
	mu                   sync.RWMutex
	eventCh              chan *Event
	stopCh               chan struct{}
	subscriberBufferSize int
}

// NewBroker creates a new event broker. bufferSize and
// subscriberBufferSize fall back to pkg/config's documented defaults
// when non-positive.
func NewBroker(bufferSize, subscriberBufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if subscriberBufferSize <= 0 {
		subscriberBufferSize = 50
	}
	return &Broker{
		subscribers:          make(map[Subscriber]bool),
		eventCh:              make(chan *Event, bufferSize),
		stopCh:               make(chan struct{}),
		subscriberBufferSize: subscriberBufferSize,
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, b.subscriberBufferSize)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish stamps event with an ID and timestamp if not already set,
// counts it by type, and hands it to the distribution loop.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type)).Inc()

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			metrics.EventsDroppedTotal.WithLabelValues(string(event.Type)).Inc()
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
