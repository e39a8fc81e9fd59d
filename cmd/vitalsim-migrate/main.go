package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"wisefido-vitalsim/common/database"
	"wisefido-vitalsim/internal/config"
	"wisefido-vitalsim/internal/repository"
	"wisefido-vitalsim/internal/timeline"
)

// Applies the vitalsim schema, then imports TIMELINE_FILE under TIMELINE_NAME when both are set.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := repository.EnsureSchema(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to apply schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("vitalsim schema applied")

	if cfg.Timeline.File == "" || cfg.Timeline.Name == "" {
		return
	}

	tl, err := timeline.LoadFile(cfg.Timeline.File, cfg.Monitor.GaugeMax)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load timeline: %v\n", err)
		os.Exit(1)
	}

	repo := repository.NewTimelineRepository(db, zap.NewNop())
	if err := repo.Replace(ctx, cfg.Timeline.Name, tl.Events()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to import timeline: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("timeline %q imported (%d events)\n", cfg.Timeline.Name, tl.Len())
}
