// Package eventbus delivers run events to reporters.
package eventbus

import (
	"grocerycheck/core/event"
)

// EventBus is the interface for the event bus.
type EventBus interface {
	// Publish publishes an event to all subscribers.
	// This method is non-blocking; events are queued for async dispatch.
	Publish(e event.Event)

	// Subscribe subscribes to all events.
	// Returns a subscription ID that can be used to unsubscribe.
	Subscribe(handler EventHandler) string

	// SubscribeRun subscribes to events of a single run.
	// Only events implementing RunEvent with matching RunID will be delivered.
	SubscribeRun(runID string, handler EventHandler) string

	// SubscribeSession subscribes to events from a specific session.
	// Only events implementing SessionEvent with matching SessionID will be delivered.
	SubscribeSession(sessionID string, handler EventHandler) string

	// Unsubscribe removes a subscription by its ID.
	Unsubscribe(subscriptionID string)

	// Close stops accepting events, delivers the queued ones and returns.
	// After Close is called, Publish will be a no-op.
	Close()
}

// EventHandler is a function that handles an event.
type EventHandler func(e event.Event)
