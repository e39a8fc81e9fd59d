package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
)

func setupMockSampleDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *SampleRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewSampleRepository(db, zap.NewNop())
}

func TestSampleInsert_Success(t *testing.T) {
	db, mock, repo := setupMockSampleDB(t)
	defer db.Close()

	sessionID := uuid.New().String()
	now := time.Now()
	sample := models.VitalSample{
		SessionID:     sessionID,
		Seq:           7,
		HeartRate:     78,
		BreathingRate: 15,
		HP:            88.5,
		Position:      12.5,
		RecordedAt:    now,
	}

	mock.ExpectQuery(`INSERT INTO vital_samples`).
		WithArgs(sessionID, int64(7), 78, 15, 88.5, 12.5, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.Insert(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleInsert_DuplicateIgnored(t *testing.T) {
	db, mock, repo := setupMockSampleDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO vital_samples`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	id, err := repo.Insert(context.Background(), models.VitalSample{SessionID: uuid.New().String(), Seq: 1})
	require.NoError(t, err)
	assert.Zero(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleInsert_Errors(t *testing.T) {
	db, mock, repo := setupMockSampleDB(t)
	defer db.Close()

	_, err := repo.Insert(context.Background(), models.VitalSample{})
	assert.Contains(t, err.Error(), "session_id is required")

	mock.ExpectQuery(`INSERT INTO vital_samples`).
		WillReturnError(errors.New("connection reset"))
	_, err = repo.Insert(context.Background(), models.VitalSample{SessionID: "s"})
	assert.Contains(t, err.Error(), "failed to insert vital sample")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleListRecent(t *testing.T) {
	db, mock, repo := setupMockSampleDB(t)
	defer db.Close()

	sessionID := uuid.New().String()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "session_id", "seq", "heart_rate", "breathing_rate", "hp", "position", "recorded_at",
	}).
		AddRow(int64(1), sessionID, int64(1), 72, 16, 100.0, 0.0, now).
		AddRow(int64(2), sessionID, int64(2), 75, 17, 99.5, 1.0, now.Add(time.Second))

	mock.ExpectQuery(`SELECT (.+) FROM vital_samples`).
		WithArgs(sessionID, 30).
		WillReturnRows(rows)

	samples, err := repo.ListRecent(context.Background(), sessionID, 0)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 75, samples[1].HeartRate)
	assert.Equal(t, 99.5, samples[1].HP)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSampleDeleteSession(t *testing.T) {
	db, mock, repo := setupMockSampleDB(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM vital_samples`).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Contains(t, Schema(), "CREATE TABLE IF NOT EXISTS vital_samples")
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS vital_samples`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
