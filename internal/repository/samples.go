package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
)

// SampleRepository vital_samples
type SampleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSampleRepository(db *sql.DB, logger *zap.Logger) *SampleRepository {
	return &SampleRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores s and returns its id. A duplicate (session_id, seq) is ignored and returns 0.
func (r *SampleRepository) Insert(ctx context.Context, s models.VitalSample) (int64, error) {
	if s.SessionID == "" {
		return 0, fmt.Errorf("session_id is required")
	}

	query := `
		INSERT INTO vital_samples (
			session_id,
			seq,
			heart_rate,
			breathing_rate,
			hp,
			position,
			recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, seq) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		s.SessionID,
		s.Seq,
		s.HeartRate,
		s.BreathingRate,
		s.HP,
		s.Position,
		s.RecordedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug("Duplicate vital sample ignored",
			zap.String("session_id", s.SessionID),
			zap.Int64("seq", s.Seq),
		)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert vital sample: %w", err)
	}
	return id, nil
}

// ListRecent returns up to limit samples of a session, oldest first
func (r *SampleRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]models.VitalSample, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT id, session_id, seq, heart_rate, breathing_rate, hp, position, recorded_at
		FROM (
			SELECT id, session_id, seq, heart_rate, breathing_rate, hp, position, recorded_at
			FROM vital_samples
			WHERE session_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query vital samples: %w", err)
	}
	defer rows.Close()

	samples := []models.VitalSample{}
	for rows.Next() {
		var s models.VitalSample
		if err := rows.Scan(
			&s.ID,
			&s.SessionID,
			&s.Seq,
			&s.HeartRate,
			&s.BreathingRate,
			&s.HP,
			&s.Position,
			&s.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vital sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vital samples: %w", err)
	}
	return samples, nil
}

// DeleteSession removes every sample of a session
func (r *SampleRepository) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vital_samples WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vital samples: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
