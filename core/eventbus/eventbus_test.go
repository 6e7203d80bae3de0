package eventbus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocerycheck/core/event"
)

// collector records delivered event names.
type collector struct {
	mu    sync.Mutex
	names []string
}

func (c *collector) handle(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, e.EventName())
}

func (c *collector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// unscoped belongs to no run or session.
type unscoped struct{}

func (unscoped) EventName() string { return "Unscoped" }

func started(runID, sessionID, name string) event.Event {
	return event.NewScenarioStarted(runID, sessionID, name, "age-gate")
}

func TestEventBus_DeliversInOrder(t *testing.T) {
	bus := New(16)
	c := &collector{}
	bus.Subscribe(c.handle)

	bus.Publish(event.NewRunStarted("run-1", "grocerymate", 1, time.Now()))
	bus.Publish(started("run-1", "s-1", "age-exactly-18"))
	bus.Publish(event.NewScenarioFinished("run-1", "s-1", "age-exactly-18", "age-gate", event.StatusPassed, time.Second, nil, nil))
	bus.Publish(event.NewRunFinished("run-1", "grocerymate", map[event.Status]int{event.StatusPassed: 1}, time.Second))
	bus.Close()

	assert.Equal(t, []string{"RunStarted", "ScenarioStarted", "ScenarioFinished", "RunFinished"}, c.got())
}

func TestEventBus_EverySubscriberGetsTheEvent(t *testing.T) {
	bus := New(16)
	subs := []*collector{{}, {}, {}}
	for _, c := range subs {
		bus.Subscribe(c.handle)
	}

	bus.Publish(unscoped{})
	bus.Close()

	for _, c := range subs {
		assert.Equal(t, []string{"Unscoped"}, c.got())
	}
}

func TestEventBus_RunFilter(t *testing.T) {
	bus := New(16)
	run1, run2 := &collector{}, &collector{}
	bus.SubscribeRun("run-1", run1.handle)
	bus.SubscribeRun("run-2", run2.handle)

	bus.Publish(started("run-1", "s-1", "a"))
	bus.Publish(event.NewArtifactSaved("run-1", "s-2", "/tmp/a.png"))
	bus.Publish(unscoped{})
	bus.Close()

	assert.Equal(t, []string{"ScenarioStarted", "ArtifactSaved"}, run1.got())
	assert.Empty(t, run2.got())
}

func TestEventBus_SessionFilter(t *testing.T) {
	bus := New(16)
	s1, s2, all := &collector{}, &collector{}, &collector{}
	bus.SubscribeSession("s-1", s1.handle)
	bus.SubscribeSession("s-2", s2.handle)
	bus.Subscribe(all.handle)

	bus.Publish(started("run-1", "s-1", "a"))
	bus.Publish(event.NewCleanupFailed("run-1", "s-2", "empty cart", errors.New("boom")))
	bus.Publish(event.NewRunStarted("run-1", "grocerymate", 2, time.Now()))
	bus.Close()

	assert.Equal(t, []string{"ScenarioStarted"}, s1.got())
	assert.Equal(t, []string{"CleanupFailed"}, s2.got())
	assert.Len(t, all.got(), 3)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := New(16)
	c := &collector{}
	id := bus.Subscribe(c.handle)
	bus.Unsubscribe(id)

	bus.Publish(unscoped{})
	bus.Close()

	assert.Empty(t, c.got())
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := New(16)
	c := &collector{}
	bus.Subscribe(c.handle)
	bus.Close()

	bus.Publish(unscoped{})
	assert.Empty(t, c.got())
	assert.NotPanics(t, bus.Close)
}

func TestEventBus_HandlerPanicDoesNotStarveOthers(t *testing.T) {
	bus := New(16)
	c := &collector{}
	bus.Subscribe(func(event.Event) { panic("reporter bug") })
	bus.Subscribe(c.handle)

	bus.Publish(unscoped{})
	bus.Publish(unscoped{})
	bus.Close()

	assert.Len(t, c.got(), 2)
}

func TestEventBus_CloseDeliversQueued(t *testing.T) {
	bus := New(64)
	c := &collector{}
	bus.Subscribe(func(e event.Event) {
		time.Sleep(time.Millisecond)
		c.handle(e)
	})

	for i := 0; i < 20; i++ {
		bus.Publish(unscoped{})
	}
	bus.Close()

	assert.Len(t, c.got(), 20)
}

func TestEventBus_ConcurrentPublishAndClose(t *testing.T) {
	bus := New(1024)
	c := &collector{}
	bus.Subscribe(c.handle)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(unscoped{})
			}
		}()
	}
	wg.Wait()
	bus.Close()

	assert.Len(t, c.got(), 400)
}

func TestEventBus_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	bus := New(1)
	release := make(chan struct{})
	bus.Subscribe(func(event.Event) { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(unscoped{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	close(release)
	bus.Close()

	impl, ok := bus.(*channelEventBus)
	require.True(t, ok)
	assert.Positive(t, impl.dropped.Load())
}

func TestEventBus_UniqueSubscriptionIDs(t *testing.T) {
	bus := New(1)
	defer bus.Close()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := bus.Subscribe(func(event.Event) {})
		require.False(t, seen[id], "duplicate subscription ID %q", id)
		seen[id] = true
	}
}
