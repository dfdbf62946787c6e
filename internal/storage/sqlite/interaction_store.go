package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/lingo/internal/interaction"
	"github.com/google/uuid"
)

// InteractionStore records learner interactions in SQLite.
type InteractionStore struct {
	db *DB
}

// NewInteractionStore creates a new SQLite-backed interaction store.
func NewInteractionStore(db *DB) *InteractionStore {
	return &InteractionStore{db: db}
}

// Record stores an interaction. Recording the same ID twice keeps the first copy.
func (s *InteractionStore) Record(ctx context.Context, in interaction.Interaction) error {
	data := in.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal interaction data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO interactions (id, learner_id, event, data, created_at) VALUES (?, ?, ?, ?, ?)",
		in.ID.String(), in.LearnerID, string(in.Event), string(payload), in.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// Query returns interactions for a learner, oldest first. An empty event
// matches every event; a zero since matches every time.
func (s *InteractionStore) Query(ctx context.Context, learnerID string, event interaction.Event, since time.Time) ([]interaction.Interaction, error) {
	query := "SELECT id, learner_id, event, data, created_at FROM interactions WHERE learner_id = ?"
	args := []any{learnerID}

	if event != "" {
		query += " AND event = ?"
		args = append(args, string(event))
	}
	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC())
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []interaction.Interaction
	for rows.Next() {
		var (
			in              interaction.Interaction
			id, event, data string
		)
		if err := rows.Scan(&id, &in.LearnerID, &event, &data, &in.Timestamp); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if in.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse interaction id: %w", err)
		}
		in.Event = interaction.Event(event)
		if err := json.Unmarshal([]byte(data), &in.Data); err != nil {
			return nil, fmt.Errorf("unmarshal interaction data: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// CountByEvent returns how many interactions of each event were recorded.
func (s *InteractionStore) CountByEvent(ctx context.Context) (map[interaction.Event]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT event, COUNT(*) FROM interactions GROUP BY event")
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	defer rows.Close()

	counts := make(map[interaction.Event]int)
	for rows.Next() {
		var event string
		var n int
		if err := rows.Scan(&event, &n); err != nil {
			return nil, fmt.Errorf("scan interaction count: %w", err)
		}
		counts[interaction.Event(event)] = n
	}
	return counts, rows.Err()
}
