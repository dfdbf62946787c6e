package domain

import (
	"sort"
	"time"
)

// Learner is the durable progress record of a student
type Learner struct {
	ID               string
	Name             string
	Age              int
	LearningGoals    string
	CompletedLessons map[string]int // lessonID -> latest score
	Points           int
	UpdatedAt        time.Time
}

// NewLearner creates an empty progress record
func NewLearner(id, name string) *Learner {
	return &Learner{
		ID:               id,
		Name:             name,
		CompletedLessons: make(map[string]int),
		UpdatedAt:        time.Now(),
	}
}

// RecordCompletion merges a finished lesson into the learner's progress.
// A retake overwrites the stored score; points always accumulate.
func (l *Learner) RecordCompletion(lessonID string, score int) {
	if l.CompletedLessons == nil {
		l.CompletedLessons = make(map[string]int)
	}
	l.CompletedLessons[lessonID] = score
	l.Points += score
	l.UpdatedAt = time.Now()
}

// CompletedLessonIDs returns the completed lesson IDs in sorted order
func (l *Learner) CompletedLessonIDs() []string {
	ids := make([]string, 0, len(l.CompletedLessons))
	for id := range l.CompletedLessons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AverageScore returns the mean of the stored lesson scores, 0 if none
func (l *Learner) AverageScore() float64 {
	if len(l.CompletedLessons) == 0 {
		return 0
	}
	total := 0
	for _, score := range l.CompletedLessons {
		total += score
	}
	return float64(total) / float64(len(l.CompletedLessons))
}

// RankLearners orders learners for a leaderboard: points descending, then name
func RankLearners(learners []*Learner) {
	sort.SliceStable(learners, func(i, j int) bool {
		if learners[i].Points != learners[j].Points {
			return learners[i].Points > learners[j].Points
		}
		return learners[i].Name < learners[j].Name
	})
}
