package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	event := NewBaseEvent("test.created", "TestAggregate", aggregateID)

	if event.EventID() == uuid.Nil {
		t.Error("EventID() should not be nil")
	}
	if event.EventType() != "test.created" {
		t.Errorf("EventType() = %q, want test.created", event.EventType())
	}
	if event.OccurredAt().IsZero() || event.OccurredAt().After(time.Now()) {
		t.Errorf("OccurredAt() = %v; want a past timestamp", event.OccurredAt())
	}
	if event.AggregateID() != aggregateID {
		t.Errorf("AggregateID() = %v, want %v", event.AggregateID(), aggregateID)
	}
	if event.AggregateType() != "TestAggregate" {
		t.Errorf("AggregateType() = %q, want TestAggregate", event.AggregateType())
	}
}

func TestEventDispatcher(t *testing.T) {
	t.Run("Subscribe and Publish", func(t *testing.T) {
		dispatcher := NewEventDispatcher()
		var received Event

		dispatcher.Subscribe(EventGameCompleted, func(e Event) {
			received = e
		})

		result := NewGameResult(uuid.New(), GameQuickQuiz, Outcome{Score: 7, CorrectAnswers: 7, TotalQuestions: 10, TimeTaken: 40}, 2, time.Now())
		dispatcher.Publish(NewGameCompletedEvent(result))

		if received == nil {
			t.Fatal("Event handler was not called")
		}
		completed, ok := received.(GameCompletedEvent)
		if !ok {
			t.Fatalf("received %T; want GameCompletedEvent", received)
		}
		if completed.AccuracyPercent != 70 {
			t.Errorf("AccuracyPercent = %d, want 70", completed.AccuracyPercent)
		}
		if completed.AggregateID() != result.ID {
			t.Errorf("AggregateID() = %v, want result ID %v", completed.AggregateID(), result.ID)
		}
	})

	t.Run("SubscribeAll receives all events", func(t *testing.T) {
		dispatcher := NewEventDispatcher()
		var receivedEvents []Event
		mu := sync.Mutex{}

		dispatcher.SubscribeAll(func(e Event) {
			mu.Lock()
			receivedEvents = append(receivedEvents, e)
			mu.Unlock()
		})

		userID := uuid.New()
		dispatcher.PublishAll([]Event{
			NewDifficultyChangedEvent(userID, GameMathReflex, 1, 2),
			NewBaseEvent("event.other", "Test", uuid.New()),
		})

		if len(receivedEvents) != 2 {
			t.Errorf("Received events count = %d, want 2", len(receivedEvents))
		}
		if receivedEvents[0].AggregateID() != userID {
			t.Errorf("DifficultyChanged aggregate = %v, want player %v", receivedEvents[0].AggregateID(), userID)
		}
	})

	t.Run("Unsubscribed events are ignored", func(t *testing.T) {
		dispatcher := NewEventDispatcher()
		called := false

		dispatcher.Subscribe(EventPlayerRegistered, func(e Event) {
			called = true
		})

		dispatcher.Publish(NewDifficultyChangedEvent(uuid.New(), GameColorHunt, 3, 2))

		if called {
			t.Error("Handler should not be called for unsubscribed event type")
		}
	})
}
