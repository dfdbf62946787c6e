// Package local stores learner progress as one JSON file per learner.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/lingo/internal/domain"
)

// learnerRecord is the on-disk form of a learner
type learnerRecord struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Age              int            `json:"age,omitempty"`
	LearningGoals    string         `json:"learning_goals,omitempty"`
	CompletedLessons map[string]int `json:"completed_lessons"`
	Points           int            `json:"points"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ProgressStore keeps learners under <dir>/<id>.json. Writes go through a
// temporary file and a rename so readers never see a partial record.
type ProgressStore struct {
	dir string
	mu  sync.RWMutex
}

// NewProgressStore creates a store rooted at dir, creating it if needed
func NewProgressStore(dir string) (*ProgressStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &ProgressStore{dir: dir}, nil
}

// Save writes the learner record, replacing any previous one
func (s *ProgressStore) Save(_ context.Context, l *domain.Learner) error {
	path, err := s.path(l.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(learnerRecord{
		ID:               l.ID,
		Name:             l.Name,
		Age:              l.Age,
		LearningGoals:    l.LearningGoals,
		CompletedLessons: l.CompletedLessons,
		Points:           l.Points,
		UpdatedAt:        l.UpdatedAt.UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode learner: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".learner-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write learner: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace learner file: %w", err)
	}
	return nil
}

// Get loads a learner
func (s *ProgressStore) Get(_ context.Context, id string) (*domain.Learner, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readLearner(path)
}

// List returns every stored learner ordered by ID
func (s *ProgressStore) List(_ context.Context) ([]*domain.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var learners []*domain.Learner
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		l, err := readLearner(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		learners = append(learners, l)
	}
	sort.Slice(learners, func(i, j int) bool { return learners[i].ID < learners[j].ID })
	return learners, nil
}

// Delete removes a learner
func (s *ProgressStore) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return domain.ErrLearnerNotFound
		}
		return fmt.Errorf("remove learner: %w", err)
	}
	return nil
}

// path maps an ID to its file, rejecting IDs that would escape the directory
func (s *ProgressStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: learner id %q", domain.ErrInvalidInput, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func readLearner(path string) (*domain.Learner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("read learner: %w", err)
	}

	var rec learnerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if rec.CompletedLessons == nil {
		rec.CompletedLessons = make(map[string]int)
	}
	return &domain.Learner{
		ID:               rec.ID,
		Name:             rec.Name,
		Age:              rec.Age,
		LearningGoals:    rec.LearningGoals,
		CompletedLessons: rec.CompletedLessons,
		Points:           rec.Points,
		UpdatedAt:        rec.UpdatedAt,
	}, nil
}
