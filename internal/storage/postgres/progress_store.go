// Package postgres stores learner progress in PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/progress"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var _ progress.Store = (*ProgressStore)(nil)

// ProgressStore implements progress.Store using PostgreSQL
type ProgressStore struct {
	pool *pgxpool.Pool
}

// NewProgressStore creates a new PostgreSQL progress store
func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

// Connect opens a pool for url and ensures the schema exists
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pool, nil
}

// Save upserts the learner and replaces its lesson scores
func (s *ProgressStore) Save(ctx context.Context, l *domain.Learner) error {
	now := time.Now().UTC()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO learners (id, name, age, learning_goals, points, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				age = EXCLUDED.age,
				learning_goals = EXCLUDED.learning_goals,
				points = EXCLUDED.points,
				updated_at = EXCLUDED.updated_at
		`, l.ID, l.Name, l.Age, l.LearningGoals, l.Points, now)
		if err != nil {
			return fmt.Errorf("upsert learner: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM lesson_scores WHERE learner_id = $1`, l.ID); err != nil {
			return fmt.Errorf("clear lesson scores: %w", err)
		}

		batch := &pgx.Batch{}
		for lessonID, score := range l.CompletedLessons {
			batch.Queue(`INSERT INTO lesson_scores (learner_id, lesson_id, score) VALUES ($1, $2, $3)`,
				l.ID, lessonID, score)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return err
	}
	l.UpdatedAt = now
	return nil
}

// Get retrieves a learner by ID
func (s *ProgressStore) Get(ctx context.Context, id string) (*domain.Learner, error) {
	l := &domain.Learner{CompletedLessons: make(map[string]int)}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, age, learning_goals, points, updated_at
		FROM learners WHERE id = $1
	`, id).Scan(&l.ID, &l.Name, &l.Age, &l.LearningGoals, &l.Points, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT lesson_id, score FROM lesson_scores WHERE learner_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query lesson scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lessonID string
		var score int
		if err := rows.Scan(&lessonID, &score); err != nil {
			return nil, fmt.Errorf("scan lesson score: %w", err)
		}
		l.CompletedLessons[lessonID] = score
	}
	return l, rows.Err()
}

// List returns all learners with their scores
func (s *ProgressStore) List(ctx context.Context) ([]*domain.Learner, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT l.id, l.name, l.age, l.learning_goals, l.points, l.updated_at,
			s.lesson_id, s.score
		FROM learners l
		LEFT JOIN lesson_scores s ON s.learner_id = l.id
		ORDER BY l.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	defer rows.Close()

	var learners []*domain.Learner
	byID := make(map[string]*domain.Learner)
	for rows.Next() {
		var (
			row      domain.Learner
			lessonID *string
			score    *int
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.Age, &row.LearningGoals, &row.Points, &row.UpdatedAt,
			&lessonID, &score); err != nil {
			return nil, fmt.Errorf("scan learner: %w", err)
		}
		l, ok := byID[row.ID]
		if !ok {
			row.CompletedLessons = make(map[string]int)
			l = &row
			byID[row.ID] = l
			learners = append(learners, l)
		}
		if lessonID != nil && score != nil {
			l.CompletedLessons[*lessonID] = *score
		}
	}
	return learners, rows.Err()
}
