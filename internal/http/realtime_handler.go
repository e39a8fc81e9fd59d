package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
	"wisefido-vitalsim/internal/publisher"
)

const maxRecentReadings = 1000

// LatestReader the cached reading of a session
type LatestReader interface {
	Latest(ctx context.Context, sessionID string) (models.Reading, error)
}

// RecentReader the newest readings across sessions
type RecentReader interface {
	Recent(ctx context.Context, count int64) ([]models.Reading, error)
}

// SessionSource reports the session readings are currently published under
type SessionSource interface {
	SessionID() string
}

// RealtimeHandler reads published readings back from Redis
type RealtimeHandler struct {
	sessions SessionSource
	cache    LatestReader
	stream   RecentReader
	logger   *zap.Logger
}

func NewRealtimeHandler(sessions SessionSource, cache LatestReader, stream RecentReader, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		sessions: sessions,
		cache:    cache,
		stream:   stream,
		logger:   logger,
	}
}

// GetLatest GET /realtime?session_id=, defaulting to the current session
func (h *RealtimeHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	session := r.URL.Query().Get("session_id")
	if session == "" {
		session = h.sessions.SessionID()
	}

	reading, err := h.cache.Latest(r.Context(), session)
	if errors.Is(err, publisher.ErrCacheMiss) {
		writeJSON(w, http.StatusNotFound, Fail("no recent reading"))
		return
	}
	if err != nil {
		h.logger.Error("Failed to read cached reading", zap.String("session_id", session), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to read cached reading"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(reading))
}

// GetRecent GET /realtime/recent?count=, oldest first
func (h *RealtimeHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	count := parseInt(r.URL.Query().Get("count"), 30)
	if count <= 0 || count > maxRecentReadings {
		writeJSON(w, http.StatusBadRequest, Fail("count out of range"))
		return
	}

	readings, err := h.stream.Recent(r.Context(), int64(count))
	if err != nil {
		h.logger.Error("Failed to read sample stream", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to read sample stream"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(readings))
}
