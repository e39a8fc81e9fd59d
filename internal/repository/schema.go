package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema/vitalsim.sql
var schemaSQL string

// Schema the DDL for vital_samples and timeline_events
func Schema() string { return schemaSQL }

// EnsureSchema creates the tables if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
