// Package session drives a learner through one lesson: stepping, quiz and
// scoring, with enrichment and pronunciation running alongside.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/lingo/internal/audio"
	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/enrichment"
	"github.com/felixgeelhaar/lingo/internal/interaction"
	"github.com/felixgeelhaar/lingo/internal/scoring"
	"github.com/google/uuid"
)

var (
	ErrInvalidPhase    = errors.New("operation not allowed in current phase")
	ErrUnsupportedKind = errors.New("enrichment kind not available in a lesson session")
	ErrEnrichmentOff   = errors.New("enrichment not configured")
	ErrSessionNotFound = errors.New("session not found")
)

// Phase is the coarse state of a lesson session
type Phase string

const (
	PhaseStepping Phase = "stepping"
	PhaseQuizzing Phase = "quizzing"
	PhaseScored   Phase = "scored"
)

// Completion is emitted once when the learner finishes a scored lesson
type Completion struct {
	SessionID uuid.UUID
	LearnerID string
	LessonID  string
	Score     int
	Result    scoring.Result
	Duration  time.Duration
}

// Snapshot is a consistent copy of session state
type Snapshot struct {
	ID           uuid.UUID
	LearnerID    string
	LessonID     string
	LessonTitle  string
	Phase        Phase
	StepIndex    int
	StepCount    int
	Step         *domain.LessonStep // nil outside stepping
	Generation   uint64
	Answers      []*string
	Result       *scoring.Result // set once scored
	Finished     bool
	AudioLoading bool
}

// hooks connect a session to the manager's side effects. All are called
// without the session lock held.
type hooks struct {
	event    func(domain.Event)
	interact func(interaction.Event, map[string]any)
}

// LessonSession is the state machine for one pass through a lesson.
// Every mutation is serialized by mu; asynchronous work re-enters only
// through the enrichment board and the audio player.
type LessonSession struct {
	mu         sync.Mutex
	id         uuid.UUID
	learnerID  string
	lesson     *domain.Lesson
	phase      Phase
	step       int
	generation uint64
	answers    []*string
	result     scoring.Result
	finished   bool
	startedAt  time.Time
	listeners  []func(Completion)
	events     domain.EventLog

	enrich *enrichment.Client
	player *audio.Player
	hooks  hooks
	logger *slog.Logger
}

func newLessonSession(learnerID string, lesson *domain.Lesson, enrich *enrichment.Client, player *audio.Player, h hooks, logger *slog.Logger) *LessonSession {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LessonSession{
		id:        uuid.New(),
		learnerID: learnerID,
		lesson:    lesson,
		phase:     PhaseStepping,
		answers:   make([]*string, len(lesson.Quiz)),
		startedAt: time.Now(),
		enrich:    enrich,
		player:    player,
		hooks:     h,
	}
	if len(lesson.Steps) == 0 {
		s.phase = PhaseQuizzing
	}
	s.logger = logger.With("session_id", s.id.String(), "lesson_id", lesson.ID)
	return s
}

// ID returns the session handle
func (s *LessonSession) ID() uuid.UUID { return s.id }

// LessonID returns the lesson being taken
func (s *LessonSession) LessonID() string { return s.lesson.ID }

// LearnerID returns the learner taking the lesson
func (s *LessonSession) LearnerID() string { return s.learnerID }

// Lesson returns the lesson being taken. It must not be modified.
func (s *LessonSession) Lesson() *domain.Lesson { return s.lesson }

func (s *LessonSession) start() {
	s.mu.Lock()
	e := domain.NewLessonStartedEvent(s.id, s.learnerID, s.lesson.ID)
	s.events.Record(e)
	s.mu.Unlock()

	s.emit(e, interaction.EventLessonStarted, map[string]any{
		"lessonId":    s.lesson.ID,
		"lessonTitle": s.lesson.Title,
	})
}

// Events returns a copy of the domain events recorded so far
func (s *LessonSession) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.Recorded()
}

// Phase returns the current phase
func (s *LessonSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns a copy of the current state
func (s *LessonSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		LearnerID:   s.learnerID,
		LessonID:    s.lesson.ID,
		LessonTitle: s.lesson.Title,
		Phase:       s.phase,
		StepIndex:   s.step,
		StepCount:   len(s.lesson.Steps),
		Generation:  s.generation,
		Answers:     make([]*string, len(s.answers)),
		Finished:    s.finished,
	}
	for i, a := range s.answers {
		if a != nil {
			v := *a
			snap.Answers[i] = &v
		}
	}
	if s.phase == PhaseStepping {
		step := s.lesson.Steps[s.step]
		snap.Step = &step
	}
	if s.phase == PhaseScored {
		r := s.result
		snap.Result = &r
	}
	if s.player != nil {
		snap.AudioLoading = s.player.Loading()
	}
	return snap
}

// Advance moves to the next step, or to the quiz after the last step
func (s *LessonSession) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseStepping {
		return fmt.Errorf("advance in %s: %w", s.phase, ErrInvalidPhase)
	}
	if s.step+1 < len(s.lesson.Steps) {
		s.step++
	} else {
		s.phase = PhaseQuizzing
	}
	s.bumpGeneration()
	return nil
}

// Retreat moves to the previous step. At the first step it does nothing.
func (s *LessonSession) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseStepping {
		return fmt.Errorf("retreat in %s: %w", s.phase, ErrInvalidPhase)
	}
	if s.step == 0 {
		return nil
	}
	s.step--
	s.bumpGeneration()
	return nil
}

// bumpGeneration invalidates enrichment tied to the step being left.
// Callers hold mu.
func (s *LessonSession) bumpGeneration() {
	old := s.generation
	s.generation++
	if s.enrich == nil {
		return
	}
	scope := s.id.String()
	s.enrich.Board().Drop(func(k enrichment.SlotKey) bool {
		return k.Scope == scope && k.Generation == old
	})
}

// RecordAnswer sets the answer for question q, replacing any previous one.
// q outside the quiz is a programming error and panics.
func (s *LessonSession) RecordAnswer(q int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q < 0 || q >= len(s.answers) {
		panic(fmt.Sprintf("session: question index %d out of range [0,%d)", q, len(s.answers)))
	}
	if s.phase != PhaseQuizzing {
		return fmt.Errorf("record answer in %s: %w", s.phase, ErrInvalidPhase)
	}
	s.answers[q] = &value
	return nil
}

// Submit scores the quiz. Unanswered questions count as incorrect.
func (s *LessonSession) Submit() (int, error) {
	s.mu.Lock()
	if s.phase != PhaseQuizzing {
		phase := s.phase
		s.mu.Unlock()
		return 0, fmt.Errorf("submit in %s: %w", phase, ErrInvalidPhase)
	}
	s.result = scoring.Grade(s.lesson.Quiz, s.answers)
	s.phase = PhaseScored
	r := s.result
	answers := make([]any, len(s.answers))
	for i, a := range s.answers {
		if a != nil {
			answers[i] = *a
		}
	}
	e := domain.NewQuizSubmittedEvent(s.id, s.learnerID, s.lesson.ID, r.Score, r.Correct, r.Total)
	s.events.Record(e)
	s.mu.Unlock()

	s.logger.Info("quiz submitted", "score", r.Score, "correct", r.Correct, "total", r.Total)
	s.emit(e, interaction.EventQuizSubmitted, map[string]any{
		"lessonId":    s.lesson.ID,
		"lessonTitle": s.lesson.Title,
		"answers":     answers,
		"score":       r.Score,
		"correct":     r.Correct,
		"total":       r.Total,
	})
	return r.Score, nil
}

// Result returns the graded quiz once scored
func (s *LessonSession) Result() (scoring.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseScored {
		return scoring.Result{}, fmt.Errorf("result in %s: %w", s.phase, ErrInvalidPhase)
	}
	return s.result, nil
}

// OnComplete registers a listener for the completion emitted by Finish
func (s *LessonSession) OnComplete(fn func(Completion)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Finish acknowledges the results and notifies completion listeners.
// Listeners run at most once per session; later calls are no-ops.
func (s *LessonSession) Finish() error {
	s.mu.Lock()
	if s.phase != PhaseScored {
		phase := s.phase
		s.mu.Unlock()
		return fmt.Errorf("finish in %s: %w", phase, ErrInvalidPhase)
	}
	if s.finished {
		s.mu.Unlock()
		return nil
	}
	s.finished = true
	c := Completion{
		SessionID: s.id,
		LearnerID: s.learnerID,
		LessonID:  s.lesson.ID,
		Score:     s.result.Score,
		Result:    s.result,
		Duration:  time.Since(s.startedAt),
	}
	listeners := make([]func(Completion), len(s.listeners))
	copy(listeners, s.listeners)
	e := domain.NewLessonCompletedEvent(s.id, s.learnerID, s.lesson.ID, c.Score, c.Duration)
	s.events.Record(e)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
	s.emit(e, interaction.EventLessonCompleted, map[string]any{
		"lessonId": c.LessonID,
		"score":    c.Score,
	})
	return nil
}

// RequestEnrichment asks for info or an example about the current step.
// The returned channel receives the result once. Results that arrive after
// the learner has moved to another step are not stored.
func (s *LessonSession) RequestEnrichment(ctx context.Context, kind enrichment.Kind) (<-chan enrichment.Result, error) {
	s.mu.Lock()
	if s.enrich == nil {
		s.mu.Unlock()
		return nil, ErrEnrichmentOff
	}
	if s.phase != PhaseStepping {
		phase := s.phase
		s.mu.Unlock()
		return nil, fmt.Errorf("enrichment in %s: %w", phase, ErrInvalidPhase)
	}

	step := s.lesson.Steps[s.step]
	var (
		prompt string
		event  interaction.Event
	)
	switch kind {
	case enrichment.KindInfo:
		prompt, event = enrichment.InfoPrompt(step), interaction.EventAIInfoRequested
	case enrichment.KindExample:
		prompt, event = enrichment.ExamplePrompt(step), interaction.EventAIExampleRequested
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	key := s.slotKey(kind)
	ch := s.enrich.Request(ctx, key, kind, prompt)
	s.mu.Unlock()

	s.interact(event, map[string]any{"lessonId": s.lesson.ID, "term": step.Term()})
	return ch, nil
}

// Enrichment returns the slot state of kind for the current step
func (s *LessonSession) Enrichment(kind enrichment.Kind) enrichment.SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enrich == nil {
		return enrichment.SlotState{}
	}
	return s.enrich.Board().State(s.slotKey(kind))
}

func (s *LessonSession) slotKey(kind enrichment.Kind) enrichment.SlotKey {
	return enrichment.SlotKey{Scope: s.id.String(), Kind: kind, Generation: s.generation}
}

// PlayPronunciation speaks text. The returned channel is closed once playback
// finished or failed. Playback never blocks progression.
func (s *LessonSession) PlayPronunciation(ctx context.Context, text string) <-chan struct{} {
	if s.player == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.player.Go(ctx, text)
}

// AudioLoading reports whether any pronunciation is still being produced
func (s *LessonSession) AudioLoading() bool {
	return s.player != nil && s.player.Loading()
}

// close drops every enrichment slot owned by the session
func (s *LessonSession) close() {
	if s.enrich != nil {
		s.enrich.Board().DropScope(s.id.String())
	}
}

func (s *LessonSession) emit(e domain.Event, kind interaction.Event, data map[string]any) {
	if s.hooks.event != nil {
		s.hooks.event(e)
	}
	s.interact(kind, data)
}

func (s *LessonSession) interact(kind interaction.Event, data map[string]any) {
	if s.hooks.interact != nil {
		s.hooks.interact(kind, data)
	}
}
