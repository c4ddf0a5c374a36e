package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event type names. They double as queue routing keys.
const (
	EventGameCompleted     = "game.completed"
	EventDifficultyChanged = "difficulty.changed"
	EventPlayerRegistered  = "player.registered"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced this event
	AggregateID() uuid.UUID
	// AggregateType returns the type of aggregate that produced this event
	AggregateType() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
	AggregateName string    `json:"aggregate_type"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType, aggregateType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggregateUUID: aggregateID,
		AggregateName: aggregateType,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggregateUUID }
func (e BaseEvent) AggregateType() string  { return e.AggregateName }

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handlers[event.EventType()] {
		h(event)
	}
	for _, h := range d.allHandlers {
		h(event)
	}
}

// PublishAll dispatches multiple events
func (d *EventDispatcher) PublishAll(events []Event) {
	for _, event := range events {
		d.Publish(event)
	}
}

// -----------------------------------------------------------------------------
// Game Events
// -----------------------------------------------------------------------------

// GameCompletedEvent is published after a game result is committed
type GameCompletedEvent struct {
	BaseEvent
	UserID           uuid.UUID `json:"user_id"`
	GameType         GameType  `json:"game_type"`
	Score            int       `json:"score"`
	AccuracyPercent  int       `json:"accuracy_percent"`
	DifficultyAtPlay float64   `json:"difficulty_at_play"`
}

// NewGameCompletedEvent creates a new game completed event
func NewGameCompletedEvent(result *GameResult) GameCompletedEvent {
	return GameCompletedEvent{
		BaseEvent:        NewBaseEvent(EventGameCompleted, "GameResult", result.ID),
		UserID:           result.UserID,
		GameType:         result.GameType,
		Score:            result.Score,
		AccuracyPercent:  roundInt(result.AccuracyPercent()),
		DifficultyAtPlay: result.DifficultyAtPlay,
	}
}

// DifficultyChangedEvent is published when a result moves a skill level
type DifficultyChangedEvent struct {
	BaseEvent
	GameType GameType `json:"game_type"`
	From     float64  `json:"from"`
	To       float64  `json:"to"`
}

// NewDifficultyChangedEvent creates a new difficulty changed event
func NewDifficultyChangedEvent(userID uuid.UUID, gt GameType, from, to float64) DifficultyChangedEvent {
	return DifficultyChangedEvent{
		BaseEvent: NewBaseEvent(EventDifficultyChanged, "Player", userID),
		GameType:  gt,
		From:      from,
		To:        to,
	}
}

// PlayerRegisteredEvent is published when a new player is created
type PlayerRegisteredEvent struct {
	BaseEvent
	Username string `json:"username"`
}

// NewPlayerRegisteredEvent creates a new player registered event
func NewPlayerRegisteredEvent(p *Player) PlayerRegisteredEvent {
	return PlayerRegisteredEvent{
		BaseEvent: NewBaseEvent(EventPlayerRegistered, "Player", p.ID),
		Username:  p.Username,
	}
}
