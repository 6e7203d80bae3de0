package eventbus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"grocerycheck/core/event"
	"grocerycheck/infrastructure/logging"
)

// subscription represents a single event subscription.
// Empty filters match everything.
type subscription struct {
	id        string
	handler   EventHandler
	runID     string
	sessionID string
}

func (s *subscription) matches(e event.Event) bool {
	if s.runID != "" {
		re, ok := e.(event.RunEvent)
		if !ok || re.RunID() != s.runID {
			return false
		}
	}
	if s.sessionID != "" {
		se, ok := e.(event.SessionEvent)
		if !ok || se.SessionID() != s.sessionID {
			return false
		}
	}
	return true
}

// channelEventBus is a channel-based implementation of EventBus.
type channelEventBus struct {
	eventChan     chan event.Event
	subscriptions map[string]*subscription
	mu            sync.RWMutex
	// sendMu keeps Close from closing eventChan under a concurrent Publish.
	sendMu  sync.RWMutex
	closed  atomic.Bool
	dropped atomic.Uint64
	wg      sync.WaitGroup
	nextID  atomic.Uint64
}

// New creates a new EventBus with the specified buffer size.
func New(bufferSize int) EventBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	bus := &channelEventBus{
		eventChan:     make(chan event.Event, bufferSize),
		subscriptions: make(map[string]*subscription),
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Publish publishes an event to all subscribers.
func (b *channelEventBus) Publish(e event.Event) {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	if b.closed.Load() {
		return
	}

	// Non-blocking send so a slow reporter never stalls a workflow
	select {
	case b.eventChan <- e:
	default:
		n := b.dropped.Add(1)
		logging.L().Warn("event dropped, bus buffer full", "event", e.EventName(), "dropped_total", n)
	}
}

// Subscribe subscribes to all events.
func (b *channelEventBus) Subscribe(handler EventHandler) string {
	return b.subscribe(&subscription{handler: handler})
}

// SubscribeRun subscribes to events of one run.
func (b *channelEventBus) SubscribeRun(runID string, handler EventHandler) string {
	return b.subscribe(&subscription{handler: handler, runID: runID})
}

// SubscribeSession subscribes to events from a specific session.
func (b *channelEventBus) SubscribeSession(sessionID string, handler EventHandler) string {
	return b.subscribe(&subscription{handler: handler, sessionID: sessionID})
}

func (b *channelEventBus) subscribe(sub *subscription) string {
	sub.id = b.generateID()

	b.mu.Lock()
	b.subscriptions[sub.id] = sub
	b.mu.Unlock()

	return sub.id
}

// Unsubscribe removes a subscription by its ID.
func (b *channelEventBus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	delete(b.subscriptions, subscriptionID)
	b.mu.Unlock()
}

// Close shuts down the event bus after the queued events are delivered.
func (b *channelEventBus) Close() {
	b.sendMu.Lock()
	if b.closed.Swap(true) {
		b.sendMu.Unlock()
		return // Already closed
	}
	close(b.eventChan)
	b.sendMu.Unlock()

	b.wg.Wait()
}

// dispatch is the main event dispatch loop.
func (b *channelEventBus) dispatch() {
	defer b.wg.Done()

	for e := range b.eventChan {
		b.deliverEvent(e)
	}
}

// deliverEvent delivers an event to all matching subscribers.
func (b *channelEventBus) deliverEvent(e event.Event) {
	b.mu.RLock()
	// Copy subscriptions to avoid holding lock during handler execution
	subs := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.matches(e) {
			continue
		}

		// Catch panics so one bad handler does not starve the others
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.L().Error("event handler panicked",
						"event", e.EventName(), "subscription", sub.id, "panic", r)
				}
			}()
			sub.handler(e)
		}()
	}
}

func (b *channelEventBus) generateID() string {
	return fmt.Sprintf("sub-%d", b.nextID.Add(1))
}
