package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by lesson sessions
const (
	EventLessonStarted   = "lesson.started"
	EventQuizSubmitted   = "lesson.quiz_submitted"
	EventLessonCompleted = "lesson.completed"
)

// Event is something that happened in a lesson session
type Event interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	// SessionID identifies the lesson session that produced the event
	SessionID() uuid.UUID
}

// SessionEvent carries the fields shared by every lesson event
type SessionEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Session   uuid.UUID `json:"session_id"`
	LearnerID string    `json:"learner_id"`
	LessonID  string    `json:"lesson_id"`
}

func newSessionEvent(eventType string, sessionID uuid.UUID, learnerID, lessonID string) SessionEvent {
	return SessionEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		Session:   sessionID,
		LearnerID: learnerID,
		LessonID:  lessonID,
	}
}

func (e SessionEvent) EventID() uuid.UUID    { return e.ID }
func (e SessionEvent) EventType() string     { return e.Type }
func (e SessionEvent) OccurredAt() time.Time { return e.Timestamp }
func (e SessionEvent) SessionID() uuid.UUID  { return e.Session }

// LessonStartedEvent is published when a learner opens a lesson
type LessonStartedEvent struct {
	SessionEvent
}

// NewLessonStartedEvent creates a new lesson started event
func NewLessonStartedEvent(sessionID uuid.UUID, learnerID, lessonID string) LessonStartedEvent {
	return LessonStartedEvent{newSessionEvent(EventLessonStarted, sessionID, learnerID, lessonID)}
}

// QuizSubmittedEvent is published when the quiz answers are scored
type QuizSubmittedEvent struct {
	SessionEvent
	Score   int `json:"score"`
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// NewQuizSubmittedEvent creates a new quiz submitted event
func NewQuizSubmittedEvent(sessionID uuid.UUID, learnerID, lessonID string, score, correct, total int) QuizSubmittedEvent {
	return QuizSubmittedEvent{
		SessionEvent: newSessionEvent(EventQuizSubmitted, sessionID, learnerID, lessonID),
		Score:        score,
		Correct:      correct,
		Total:        total,
	}
}

// LessonCompletedEvent is published once the learner acknowledges results
type LessonCompletedEvent struct {
	SessionEvent
	Score    int           `json:"score"`
	Duration time.Duration `json:"duration"`
}

// NewLessonCompletedEvent creates a new lesson completed event
func NewLessonCompletedEvent(sessionID uuid.UUID, learnerID, lessonID string, score int, duration time.Duration) LessonCompletedEvent {
	return LessonCompletedEvent{
		SessionEvent: newSessionEvent(EventLessonCompleted, sessionID, learnerID, lessonID),
		Score:        score,
		Duration:     duration,
	}
}

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher fans events out to subscribers. Handlers run synchronously
// on the publishing goroutine, without the dispatcher lock held, so a
// handler may subscribe further handlers.
type EventDispatcher struct {
	mu       sync.RWMutex
	byType   map[string][]EventHandler
	wildcard []EventHandler
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{byType: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for one event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byType[eventType] = append(d.byType[eventType], handler)
}

// SubscribeAll registers a handler for every event type
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wildcard = append(d.wildcard, handler)
}

// Publish calls the type's handlers, then the wildcard handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	typed := d.byType[event.EventType()]
	handlers := make([]EventHandler, 0, len(typed)+len(d.wildcard))
	handlers = append(handlers, typed...)
	handlers = append(handlers, d.wildcard...)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// EventLog accumulates the events an aggregate produced. It is not
// synchronized; the owner serializes access.
type EventLog struct {
	events []Event
}

// Record appends an event
func (l *EventLog) Record(event Event) {
	l.events = append(l.events, event)
}

// Recorded returns a copy of the events in the order they were recorded
func (l *EventLog) Recorded() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
