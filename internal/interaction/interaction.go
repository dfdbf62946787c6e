// Package interaction records learner activity for later analysis.
package interaction

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names an interaction kind
type Event string

const (
	EventLessonStarted              Event = "lesson_started"
	EventQuizSubmitted              Event = "quiz_submitted"
	EventLessonCompleted            Event = "lesson_completed"
	EventAIInfoRequested            Event = "ai_info_requested"
	EventAIExampleRequested         Event = "ai_example_requested"
	EventAIRecommendationsRequested Event = "ai_recommendations_requested"
	EventAIAnalysisRequested        Event = "ai_analysis_requested"
)

// Interaction is one logged learner action
type Interaction struct {
	ID        uuid.UUID      `json:"id"`
	LearnerID string         `json:"learner_id"`
	Event     Event          `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New creates an interaction stamped with the current time
func New(learnerID string, event Event, data map[string]any) Interaction {
	return Interaction{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Recorder persists or forwards interactions
type Recorder interface {
	Record(ctx context.Context, in Interaction) error
}

// LogRecorder writes interactions to a structured logger
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a recorder backed by logger
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger.With("component", "interaction")}
}

// Record logs the interaction at info level
func (r *LogRecorder) Record(ctx context.Context, in Interaction) error {
	attrs := []any{
		"id", in.ID,
		"learner_id", in.LearnerID,
		"event", string(in.Event),
	}
	for k, v := range in.Data {
		attrs = append(attrs, k, v)
	}
	r.logger.InfoContext(ctx, "interaction", attrs...)
	return nil
}

// Multi fans an interaction out to several recorders
type Multi struct {
	recorders []Recorder
	logger    *slog.Logger
}

// NewMulti creates a fan-out recorder. Nil recorders are skipped.
func NewMulti(logger *slog.Logger, recorders ...Recorder) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Multi{logger: logger.With("component", "interaction")}
	for _, r := range recorders {
		if r != nil {
			m.recorders = append(m.recorders, r)
		}
	}
	return m
}

// Record delivers to every recorder even when some fail. The joined error
// of all failures is returned.
func (m *Multi) Record(ctx context.Context, in Interaction) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Record(ctx, in); err != nil {
			m.logger.Warn("record interaction failed", "event", string(in.Event), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of recorders
func (m *Multi) Len() int {
	return len(m.recorders)
}

// MemoryRecorder keeps interactions in memory, newest last
type MemoryRecorder struct {
	mu    sync.Mutex
	items []Interaction
}

// NewMemoryRecorder creates an empty in-memory recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends the interaction
func (r *MemoryRecorder) Record(_ context.Context, in Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, in)
	return nil
}

// Interactions returns a copy of the recorded interactions
func (r *MemoryRecorder) Interactions() []Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Interaction, len(r.items))
	copy(out, r.items)
	return out
}

// Events returns the recorded event names in order
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.items))
	for i, in := range r.items {
		out[i] = in.Event
	}
	return out
}
