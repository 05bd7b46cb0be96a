package bus

import "time"

// Event types published by the simulation core.
const (
	TypeIndicesRebuilt  = "indices.rebuilt"
	TypeWaveChanged     = "wave.changed"
	TypeWaveCleared     = "wave.cleared"
	TypeSnapshotCapture = "state.captured"
)

// EventBus is an in-process pub/sub bus.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery: handlers run in the caller goroutine in subscription order.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: observers see every publish and delivery.
//
// All methods are safe for concurrent use. Handlers must not publish to or
// subscribe on the bus that is calling them.
type EventBus interface {
	// Publish delivers the event synchronously to every active subscriber of
	// event.Type().
	Publish(event Event) error
	// Subscribe registers a handler for one event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)

	// Stats returns accumulated counters.
	Stats() Stats
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked once per delivered event.
	EventHandler func(event Event) error
)

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, took time.Duration)
}

type Stats struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
