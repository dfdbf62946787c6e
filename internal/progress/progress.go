// Package progress tracks completed lessons and points per learner.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/lingo/internal/domain"
)

// Store persists learner progress. Get returns domain.ErrLearnerNotFound
// for unknown learners.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Learner, error)
	Save(ctx context.Context, l *domain.Learner) error
	List(ctx context.Context) ([]*domain.Learner, error)
}

// Service merges lesson completions into stored progress
type Service struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
}

// NewService creates a progress service over store
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "progress"),
	}
}

// Learner returns the stored learner
func (s *Service) Learner(ctx context.Context, id string) (*domain.Learner, error) {
	return s.store.Get(ctx, id)
}

// EnsureLearner returns the stored learner, creating an empty record when missing
func (s *Service) EnsureLearner(ctx context.Context, id, name string) (*domain.Learner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(ctx, id, name)
}

func (s *Service) ensure(ctx context.Context, id, name string) (*domain.Learner, error) {
	l, err := s.store.Get(ctx, id)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, domain.ErrLearnerNotFound) {
		return nil, fmt.Errorf("get learner %s: %w", id, err)
	}

	if name == "" {
		name = id
	}
	l = domain.NewLearner(id, name)
	if err := s.store.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("create learner %s: %w", id, err)
	}
	s.logger.Info("learner created", "learner_id", id)
	return l, nil
}

// UpdateProfile sets a learner's name, age and goals, creating the learner
// when missing. Progress is left untouched.
func (s *Service) UpdateProfile(ctx context.Context, id, name string, age int, goals string) (*domain.Learner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ensure(ctx, id, name)
	if err != nil {
		return nil, err
	}
	if name != "" {
		l.Name = name
	}
	l.Age = age
	l.LearningGoals = goals
	if err := s.store.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save profile for %s: %w", id, err)
	}
	return l, nil
}

// RecordCompletion stores score for lessonID, overwriting any previous
// score for that lesson, and adds score to the learner's points.
func (s *Service) RecordCompletion(ctx context.Context, learnerID, lessonID string, score int) (*domain.Learner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ensure(ctx, learnerID, "")
	if err != nil {
		return nil, err
	}

	l.RecordCompletion(lessonID, score)
	if err := s.store.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("save progress for %s: %w", learnerID, err)
	}

	s.logger.Info("lesson completion recorded",
		"learner_id", learnerID,
		"lesson_id", lessonID,
		"score", score,
		"points", l.Points,
	)
	return l, nil
}

// Leaderboard returns learners ranked by points. limit <= 0 returns all.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*domain.Learner, error) {
	learners, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	domain.RankLearners(learners)
	if limit > 0 && len(learners) > limit {
		learners = learners[:limit]
	}
	return learners, nil
}

// SeedDemo stores the demo learners that are not yet present
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := 0
	for _, l := range DemoLearners() {
		_, err := s.store.Get(ctx, l.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrLearnerNotFound) {
			return seeded, fmt.Errorf("get learner %s: %w", l.ID, err)
		}
		if err := s.store.Save(ctx, l); err != nil {
			return seeded, fmt.Errorf("seed learner %s: %w", l.ID, err)
		}
		seeded++
	}
	return seeded, nil
}

// DemoLearners returns the sample class used for leaderboards and class analysis
func DemoLearners() []*domain.Learner {
	mk := func(id, name string, age int, goals string, completed map[string]int, points int) *domain.Learner {
		l := domain.NewLearner(id, name)
		l.Age = age
		l.LearningGoals = goals
		l.CompletedLessons = completed
		l.Points = points
		return l
	}
	return []*domain.Learner{
		mk("student-1", "Ayşe Yılmaz", 14, "To watch movies without subtitles and travel abroad.",
			map[string]int{"lesson-1": 80, "lesson-2": 95}, 175),
		mk("student-2", "Mehmet Öztürk", 16, "To study computer science at an international university.",
			map[string]int{"lesson-1": 100, "lesson-3": 70}, 210),
		mk("student-3", "Fatma Kaya", 15, "To read English fantasy novels.",
			map[string]int{"lesson-1": 90}, 90),
	}
}

// MemoryStore keeps learners in memory
type MemoryStore struct {
	mu       sync.RWMutex
	learners map[string]*domain.Learner
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{learners: make(map[string]*domain.Learner)}
}

// Get returns a copy of the stored learner
func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Learner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.learners[id]
	if !ok {
		return nil, domain.ErrLearnerNotFound
	}
	return cloneLearner(l), nil
}

// Save stores a copy of l
func (m *MemoryStore) Save(_ context.Context, l *domain.Learner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learners[l.ID] = cloneLearner(l)
	return nil
}

// List returns copies of all learners in unspecified order
func (m *MemoryStore) List(_ context.Context) ([]*domain.Learner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Learner, 0, len(m.learners))
	for _, l := range m.learners {
		out = append(out, cloneLearner(l))
	}
	return out, nil
}

func cloneLearner(l *domain.Learner) *domain.Learner {
	c := *l
	c.CompletedLessons = make(map[string]int, len(l.CompletedLessons))
	for k, v := range l.CompletedLessons {
		c.CompletedLessons[k] = v
	}
	return &c
}
