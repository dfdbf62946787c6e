package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/lingo/internal/domain"
)

// ProgressStore implements learner progress persistence backed by SQLite.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Save persists the learner and replaces its lesson scores.
func (s *ProgressStore) Save(ctx context.Context, l *domain.Learner) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO learners (id, name, age, learning_goals, points, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			age=excluded.age,
			learning_goals=excluded.learning_goals,
			points=excluded.points,
			updated_at=excluded.updated_at`,
		l.ID, l.Name, l.Age, l.LearningGoals, l.Points, now,
	)
	if err != nil {
		return fmt.Errorf("upsert learner: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM lesson_scores WHERE learner_id = ?", l.ID); err != nil {
		return fmt.Errorf("clear lesson scores: %w", err)
	}
	for lessonID, score := range l.CompletedLessons {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO lesson_scores (learner_id, lesson_id, score) VALUES (?, ?, ?)",
			l.ID, lessonID, score,
		)
		if err != nil {
			return fmt.Errorf("insert lesson score %s: %w", lessonID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit learner: %w", err)
	}
	l.UpdatedAt = now
	return nil
}

// Get retrieves a learner by ID.
func (s *ProgressStore) Get(ctx context.Context, id string) (*domain.Learner, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, age, learning_goals, points, updated_at
		FROM learners WHERE id = ?`, id)

	l, err := scanLearner(row)
	if err != nil {
		return nil, err
	}

	scores, err := s.scores(ctx, "WHERE learner_id = ?", id)
	if err != nil {
		return nil, err
	}
	if m, ok := scores[id]; ok {
		l.CompletedLessons = m
	}
	return l, nil
}

// List returns all learners.
func (s *ProgressStore) List(ctx context.Context) ([]*domain.Learner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, age, learning_goals, points, updated_at
		FROM learners ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	defer rows.Close()

	var learners []*domain.Learner
	for rows.Next() {
		l, err := scanLearner(rows)
		if err != nil {
			return nil, err
		}
		learners = append(learners, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate learners: %w", err)
	}

	scores, err := s.scores(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, l := range learners {
		if m, ok := scores[l.ID]; ok {
			l.CompletedLessons = m
		}
	}
	return learners, nil
}

// Delete removes a learner and its scores.
func (s *ProgressStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM learners WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete learner: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrLearnerNotFound
	}
	return nil
}

func (s *ProgressStore) scores(ctx context.Context, where string, args ...any) (map[string]map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT learner_id, lesson_id, score FROM lesson_scores "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query lesson scores: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var learnerID, lessonID string
		var score int
		if err := rows.Scan(&learnerID, &lessonID, &score); err != nil {
			return nil, fmt.Errorf("scan lesson score: %w", err)
		}
		if out[learnerID] == nil {
			out[learnerID] = make(map[string]int)
		}
		out[learnerID][lessonID] = score
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLearner(row scanner) (*domain.Learner, error) {
	l := &domain.Learner{CompletedLessons: make(map[string]int)}
	err := row.Scan(&l.ID, &l.Name, &l.Age, &l.LearningGoals, &l.Points, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("scan learner: %w", err)
	}
	return l, nil
}
