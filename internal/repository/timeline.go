package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"wisefido-vitalsim/internal/timeline"
)

// TimelineRepository timeline_events
type TimelineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTimelineRepository(db *sql.DB, logger *zap.Logger) *TimelineRepository {
	return &TimelineRepository{
		db:     db,
		logger: logger,
	}
}

// Events of the named timeline in trigger order
func (r *TimelineRepository) Events(ctx context.Context, name string) ([]timeline.Event, error) {
	if name == "" {
		return nil, fmt.Errorf("timeline name is required")
	}

	query := `
		SELECT trigger_at, kind, value, text
		FROM timeline_events
		WHERE timeline = $1
		ORDER BY trigger_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline events: %w", err)
	}
	defer rows.Close()

	events := []timeline.Event{}
	for rows.Next() {
		var (
			e    timeline.Event
			kind string
		)
		if err := rows.Scan(&e.At, &kind, &e.Value, &e.Text); err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		e.Kind = timeline.Kind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeline events: %w", err)
	}
	return events, nil
}

// Load builds a validated timeline from the named events
func (r *TimelineRepository) Load(ctx context.Context, name string, maxHP float64) (*timeline.Timeline, error) {
	events, err := r.Events(ctx, name)
	if err != nil {
		return nil, err
	}
	tl, err := timeline.New(events, maxHP)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Timeline loaded from database",
		zap.String("timeline", name),
		zap.Int("events", tl.Len()),
	)
	return tl, nil
}

// Replace overwrites the named timeline in one transaction
func (r *TimelineRepository) Replace(ctx context.Context, name string, events []timeline.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_events WHERE timeline = $1`, name); err != nil {
		return fmt.Errorf("failed to clear timeline: %w", err)
	}
	for _, e := range events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO timeline_events (timeline, trigger_at, kind, value, text) VALUES ($1, $2, $3, $4, $5)`,
			name, e.At, string(e.Kind), e.Value, e.Text,
		); err != nil {
			return fmt.Errorf("failed to insert timeline event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit timeline: %w", err)
	}
	return nil
}
