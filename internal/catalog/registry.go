package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/lingo/internal/domain"
)

// ErrLessonNotFound is returned when a lesson ID is unknown
var ErrLessonNotFound = domain.ErrLessonNotFound

// Registry provides access to lessons. Later loaders override lessons with
// the same ID from earlier ones, so a user directory can replace builtins.
type Registry struct {
	loaders []*Loader
	mu      sync.RWMutex
	lessons map[string]*Entry
	loaded  bool
}

// NewRegistry creates a new lesson registry
func NewRegistry(loaders ...*Loader) *Registry {
	return &Registry{
		loaders: loaders,
		lessons: make(map[string]*Entry),
	}
}

// Load loads all lessons into memory
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.loaders {
		entries, err := l.LoadAll()
		if err != nil {
			return fmt.Errorf("load lessons (source %d): %w", i, err)
		}
		for _, e := range entries {
			r.lessons[e.Lesson.ID] = e
		}
	}

	r.loaded = true
	return nil
}

// Reload clears and reloads every source
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.lessons = make(map[string]*Entry)
	r.loaded = false
	r.mu.Unlock()

	return r.Load()
}

// Add registers a lesson directly, validating it first
func (r *Registry) Add(lesson *domain.Lesson, order int) error {
	if err := lesson.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons[lesson.ID] = &Entry{Lesson: lesson, Order: order}
	return nil
}

// Get returns a lesson by ID
func (r *Registry) Get(id string) (*domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.lessons[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLessonNotFound, id)
	}
	return e.Lesson, nil
}

// List returns all lessons in catalog order
func (r *Registry) List() []*domain.Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(*domain.Lesson) bool { return true })
}

// ByDifficulty returns lessons of one difficulty in catalog order
func (r *Registry) ByDifficulty(d domain.Difficulty) []*domain.Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(l *domain.Lesson) bool { return l.Difficulty == d })
}

// Next returns the lesson following id in catalog order, or nil if id is last
func (r *Registry) Next(id string) (*domain.Lesson, error) {
	lessons := r.List()
	for i, l := range lessons {
		if l.ID != id {
			continue
		}
		if i+1 < len(lessons) {
			return lessons[i+1], nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrLessonNotFound, id)
}

func (r *Registry) sorted(keep func(*domain.Lesson) bool) []*domain.Lesson {
	entries := make([]*Entry, 0, len(r.lessons))
	for _, e := range r.lessons {
		if keep(e.Lesson) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Order != entries[j].Order {
			return entries[i].Order < entries[j].Order
		}
		return entries[i].Lesson.ID < entries[j].Lesson.ID
	})

	out := make([]*domain.Lesson, len(entries))
	for i, e := range entries {
		out[i] = e.Lesson
	}
	return out
}

// Stats returns statistics about loaded lessons
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		LessonCount:  len(r.lessons),
		ByDifficulty: make(map[string]int),
	}
	for _, e := range r.lessons {
		stats.ByDifficulty[string(e.Lesson.Difficulty)]++
		stats.StepCount += len(e.Lesson.Steps)
		stats.QuestionCount += len(e.Lesson.Quiz)
	}
	return stats
}

// RegistryStats holds statistics about the registry
type RegistryStats struct {
	LessonCount   int
	StepCount     int
	QuestionCount int
	ByDifficulty  map[string]int
}

// IsNotFound reports whether err is a missing-lesson error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLessonNotFound)
}
