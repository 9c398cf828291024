package rules

import (
	"sync"
	"time"
)

// EventType names a presentation event published by the engine.
type EventType string

const (
	EventGameStarted    EventType = "GAME_STARTED"
	EventMulligan       EventType = "MULLIGAN"
	EventTurnStarted    EventType = "TURN_STARTED"
	EventTurnEnded      EventType = "TURN_ENDED"
	EventCardDrawn      EventType = "CARD_DRAWN"
	EventCardPlayed     EventType = "CARD_PLAYED"
	EventCardDiscarded  EventType = "CARD_DISCARDED"
	EventCardSummoned   EventType = "CARD_SUMMONED"
	EventCardInvoked    EventType = "CARD_INVOKED"
	EventAttack         EventType = "ATTACK"
	EventDamage         EventType = "DAMAGE"
	EventHeal           EventType = "HEAL"
	EventCardDestroyed  EventType = "CARD_DESTROYED"
	EventCardBanished   EventType = "CARD_BANISHED"
	EventCardEvolved    EventType = "CARD_EVOLVED"
	EventShadowsGained  EventType = "SHADOWS_GAINED"
	EventNecromancy     EventType = "NECROMANCY"
	EventEffectResolved EventType = "EFFECT_RESOLVED"
	EventActionRejected EventType = "ACTION_REJECTED"
	EventGameOver       EventType = "GAME_OVER"
)

// Event is a one-way notification for presentation and metrics. The engine
// never depends on listeners.
type Event struct {
	Type        EventType
	GameID      string
	TargetID    string // card index or player name
	SourceID    string // card index or player name
	Controller  string // acting player
	Amount      int
	Data        string
	Turn        int
	Timestamp   time.Time
	Description string
}

// Listener consumes events.
type Listener func(Event)

// TypedListener wraps a callback for a single event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a publish/subscribe mechanism for game events.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus returns a bus with no listeners.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe adds a listener that sees every game event. The handle
// unsubscribes it.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped adds a listener for one event type only.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe drops the listener behind handle, typed or not.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish calls every matching listener in the caller's goroutine, so
// listeners run under the game lock and must not call back into the game.
func (bus *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.RLock()
	all := make([]Listener, 0, len(bus.listeners))
	for _, l := range bus.listeners {
		all = append(all, l)
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// NewEvent stamps an event for the given game and turn.
func NewEvent(eventType EventType, targetID, sourceID, controller string) Event {
	return Event{
		Type:       eventType,
		TargetID:   targetID,
		SourceID:   sourceID,
		Controller: controller,
		Timestamp:  time.Now(),
	}
}

// NewEventWithAmount is NewEvent for damage, heals and resource gains.
func NewEventWithAmount(eventType EventType, targetID, sourceID, controller string, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, controller)
	evt.Amount = amount
	return evt
}
