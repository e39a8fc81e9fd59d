package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-vitalsim/common/config"
)

func TestConfigurePool_Defaults(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, &config.DatabaseConfig{})
	assert.Equal(t, DefaultMaxConns, db.Stats().MaxOpenConnections)
}

func TestConfigurePool_FromConfig(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, &config.DatabaseConfig{MaxConns: 3, MaxIdle: 8})
	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = Ping(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing_HonoursContextDeadline(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillDelayFor(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, Ping(ctx, db))
}

func TestGetDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Database: "vitalsim", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=vitalsim sslmode=disable", cfg.GetDSN())

	cfg.ApplicationName = "wisefido-vitalsim"
	assert.Contains(t, cfg.GetDSN(), " application_name=wisefido-vitalsim")
}
