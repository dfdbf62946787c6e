package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/felixgeelhaar/lingo/internal/audio"
	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/enrichment"
	"github.com/felixgeelhaar/lingo/internal/interaction"
	"github.com/google/uuid"
)

// LessonSource resolves lessons by ID; *catalog.Registry implements it
type LessonSource interface {
	Get(id string) (*domain.Lesson, error)
}

// ProgressRecorder merges completed lessons into learner progress;
// *progress.Service implements it
type ProgressRecorder interface {
	RecordCompletion(ctx context.Context, learnerID, lessonID string, score int) (*domain.Learner, error)
}

// Config wires a Manager to its collaborators. Only Lessons is required.
type Config struct {
	Lessons    LessonSource
	Enrichment *enrichment.Client
	Speech     audio.Synthesizer
	Device     audio.Device
	Audio      audio.PlayerConfig
	Progress   ProgressRecorder
	Recorder   interaction.Recorder
	Dispatcher *domain.EventDispatcher
	LearnerID  string
	Logger     *slog.Logger
}

// Manager creates and tracks lesson sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*LessonSession
	cfg      Config
	logger   *slog.Logger
}

// NewManager creates a session manager
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LearnerID == "" {
		cfg.LearnerID = "local"
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*LessonSession),
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "session"),
	}
}

// StartSession begins lessonID for the configured learner
func (m *Manager) StartSession(ctx context.Context, lessonID string) (*LessonSession, error) {
	return m.StartSessionFor(ctx, m.cfg.LearnerID, lessonID)
}

// StartSessionFor begins lessonID for learnerID
func (m *Manager) StartSessionFor(ctx context.Context, learnerID, lessonID string) (*LessonSession, error) {
	lesson, err := m.cfg.Lessons.Get(lessonID)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	var player *audio.Player
	if m.cfg.Speech != nil && m.cfg.Device != nil {
		pcfg := m.cfg.Audio
		if pcfg.Logger == nil {
			pcfg.Logger = m.cfg.Logger
		}
		player = audio.NewPlayer(m.cfg.Speech, m.cfg.Device, pcfg)
	}

	s := newLessonSession(learnerID, lesson, m.cfg.Enrichment, player, m.hooksFor(learnerID), m.cfg.Logger)
	s.OnComplete(m.recordProgress)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("session started",
		"session_id", s.id,
		"learner_id", learnerID,
		"lesson_id", lesson.ID,
		"steps", len(lesson.Steps),
		"questions", len(lesson.Quiz),
	)
	s.start()
	return s, nil
}

// Get returns a live session
func (m *Manager) Get(id uuid.UUID) (*LessonSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Lookup parses id and returns the live session
func (m *Manager) Lookup(id string) (*LessonSession, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return m.Get(uid)
}

// End forgets a session and drops its enrichment slots
func (m *Manager) End(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	m.logger.Info("session ended", "session_id", id)
	return nil
}

// List returns the live sessions ordered by ID
func (m *Manager) List() []*LessonSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*LessonSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].id.String() < out[j].id.String()
	})
	return out
}

func (m *Manager) recordProgress(c Completion) {
	if m.cfg.Progress == nil {
		return
	}
	ctx := context.Background()
	if _, err := m.cfg.Progress.RecordCompletion(ctx, c.LearnerID, c.LessonID, c.Score); err != nil {
		m.logger.Error("record progress failed",
			"session_id", c.SessionID,
			"learner_id", c.LearnerID,
			"lesson_id", c.LessonID,
			"error", err,
		)
	}
}

func (m *Manager) hooksFor(learnerID string) hooks {
	return hooks{
		event: func(e domain.Event) {
			if m.cfg.Dispatcher != nil {
				m.cfg.Dispatcher.Publish(e)
			}
		},
		interact: func(kind interaction.Event, data map[string]any) {
			if m.cfg.Recorder == nil {
				return
			}
			in := interaction.New(learnerID, kind, data)
			if err := m.cfg.Recorder.Record(context.Background(), in); err != nil {
				m.logger.Warn("interaction not recorded", "event", string(kind), "error", err)
			}
		},
	}
}
