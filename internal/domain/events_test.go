package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLessonEvents(t *testing.T) {
	sessionID := uuid.New()

	tests := []struct {
		name     string
		event    Event
		wantType string
	}{
		{"started", NewLessonStartedEvent(sessionID, "learner-1", "lesson-1"), EventLessonStarted},
		{"quiz submitted", NewQuizSubmittedEvent(sessionID, "learner-1", "lesson-1", 67, 2, 3), EventQuizSubmitted},
		{"completed", NewLessonCompletedEvent(sessionID, "learner-1", "lesson-1", 67, 4*time.Minute), EventLessonCompleted},
	}

	seen := make(map[uuid.UUID]bool)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.EventType() != tt.wantType {
				t.Errorf("EventType() = %q, want %q", tt.event.EventType(), tt.wantType)
			}
			if tt.event.SessionID() != sessionID {
				t.Errorf("SessionID() = %v, want %v", tt.event.SessionID(), sessionID)
			}
			if tt.event.OccurredAt().IsZero() || tt.event.OccurredAt().After(time.Now()) {
				t.Errorf("OccurredAt() = %v", tt.event.OccurredAt())
			}
			if tt.event.EventID() == uuid.Nil || seen[tt.event.EventID()] {
				t.Errorf("EventID() = %v, want a fresh id", tt.event.EventID())
			}
			seen[tt.event.EventID()] = true
		})
	}
}

func TestQuizSubmittedEvent_JSON(t *testing.T) {
	e := NewQuizSubmittedEvent(uuid.New(), "student-2", "lesson-3", 67, 2, 3)

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for key, want := range map[string]any{
		"type":       EventQuizSubmitted,
		"learner_id": "student-2",
		"lesson_id":  "lesson-3",
		"score":      float64(67),
		"correct":    float64(2),
		"total":      float64(3),
	} {
		if fields[key] != want {
			t.Errorf("%s = %v, want %v", key, fields[key], want)
		}
	}
}

func TestEventDispatcher_Routing(t *testing.T) {
	d := NewEventDispatcher()
	var typed, all []string

	d.Subscribe(EventLessonCompleted, func(e Event) { typed = append(typed, e.EventType()) })
	d.SubscribeAll(func(e Event) { all = append(all, e.EventType()) })

	id := uuid.New()
	d.Publish(NewLessonStartedEvent(id, "l", "lesson-1"))
	d.Publish(NewLessonCompletedEvent(id, "l", "lesson-1", 100, time.Minute))

	if len(typed) != 1 || typed[0] != EventLessonCompleted {
		t.Errorf("typed handler saw %v", typed)
	}
	if len(all) != 2 || all[0] != EventLessonStarted {
		t.Errorf("wildcard handler saw %v", all)
	}
}

func TestEventDispatcher_TypedBeforeWildcard(t *testing.T) {
	d := NewEventDispatcher()
	var order []string
	d.SubscribeAll(func(Event) { order = append(order, "all") })
	d.Subscribe(EventLessonStarted, func(Event) { order = append(order, "typed-1") })
	d.Subscribe(EventLessonStarted, func(Event) { order = append(order, "typed-2") })

	d.Publish(NewLessonStartedEvent(uuid.New(), "l", "lesson-1"))

	want := []string{"typed-1", "typed-2", "all"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestEventDispatcher_HandlerMaySubscribe(t *testing.T) {
	d := NewEventDispatcher()
	late := 0
	d.Subscribe(EventLessonStarted, func(Event) {
		d.SubscribeAll(func(Event) { late++ })
	})

	d.Publish(NewLessonStartedEvent(uuid.New(), "l", "lesson-1"))
	d.Publish(NewQuizSubmittedEvent(uuid.New(), "l", "lesson-1", 0, 0, 3))

	if late != 1 {
		t.Errorf("late handler calls = %d, want 1", late)
	}
}

func TestEventLog(t *testing.T) {
	var log EventLog
	if len(log.Recorded()) != 0 {
		t.Fatal("new log not empty")
	}

	id := uuid.New()
	log.Record(NewLessonStartedEvent(id, "l", "lesson-1"))
	log.Record(NewQuizSubmittedEvent(id, "l", "lesson-1", 100, 3, 3))

	got := log.Recorded()
	if len(got) != 2 || got[0].EventType() != EventLessonStarted || got[1].EventType() != EventQuizSubmitted {
		t.Fatalf("Recorded() = %v", got)
	}

	got[0] = nil
	if log.Recorded()[0] == nil {
		t.Error("Recorded() exposes internal slice")
	}
}
