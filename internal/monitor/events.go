package monitor

import (
	gosync "sync"
)

// Action identifiers shared with listeners and the trigger path.
const (
	ActionUpdateStatus  = "wirebug.debugstatus.action.UPDATE_STATUS"
	ActionStatusChanged = "wirebug.debugstatus.action.STATUS_CHANGED"
	ExtraIsEnabled      = "is_enabled"
)

// StatusChangedEvent is emitted once per detected transition.
type StatusChangedEvent struct {
	Enabled bool
}

// Bus is a fire-and-forget observer list. Emit never blocks: a subscriber
// whose buffer is full misses the event. Nothing is stored, so subscribers
// that join after an emission never see it.
type Bus struct {
	mu     gosync.Mutex
	subs   map[int]chan StatusChangedEvent
	nextID int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan StatusChangedEvent)}
}

// Subscribe registers a listener with the given channel buffer. The returned
// func unsubscribes and closes the channel; calling it twice is safe.
func (b *Bus) Subscribe(buf int) (<-chan StatusChangedEvent, func()) {
	if buf < 1 {
		buf = 1
	}

	ch := make(chan StatusChangedEvent, buf)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once gosync.Once

	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()

			close(ch)
		})
	}
}

// Emit delivers ev to every current subscriber without blocking.
func (b *Bus) Emit(ev StatusChangedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of registered listeners.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}
