package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
	"wisefido-vitalsim/internal/monitor"
	"wisefido-vitalsim/internal/signal"
)

const maxUploadBytes = 512 << 20

// SampleLister reads persisted samples; nil when the database is disabled
type SampleLister interface {
	ListRecent(ctx context.Context, sessionID string, limit int) ([]models.VitalSample, error)
}

// MonitorHandler REST surface over a monitor
type MonitorHandler struct {
	monitor *monitor.Monitor
	samples SampleLister
	logger  *zap.Logger
}

func NewMonitorHandler(m *monitor.Monitor, samples SampleLister, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor: m,
		samples: samples,
		logger:  logger,
	}
}

func (h *MonitorHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.monitor.View()))
}

func (h *MonitorHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.monitor.History()))
}

func (h *MonitorHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	data, err := GenerateHistoryExport(h.monitor.History())
	if err != nil {
		h.logger.Error("Failed to generate history export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("vitals-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetSamples persisted samples of the current session (?limit=N)
func (h *MonitorHandler) GetSamples(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	if h.samples == nil {
		writeJSON(w, http.StatusServiceUnavailable, Fail("sample storage disabled"))
		return
	}

	session := r.URL.Query().Get("session_id")
	if session == "" {
		session = h.monitor.View().SessionID
	}
	limit := parseInt(r.URL.Query().Get("limit"), 30)

	samples, err := h.samples.ListRecent(r.Context(), session, limit)
	if err != nil {
		h.logger.Error("Failed to list samples", zap.String("session_id", session), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list samples"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(samples))
}

type lifecycleResult struct {
	Changed bool   `json:"changed"`
	Status  string `json:"status"`
}

func (h *MonitorHandler) StartMonitor(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	changed := h.monitor.Start()
	writeJSON(w, http.StatusOK, Ok(lifecycleResult{Changed: changed, Status: h.monitor.Status()}))
}

func (h *MonitorHandler) StopMonitor(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	changed := h.monitor.Stop()
	writeJSON(w, http.StatusOK, Ok(lifecycleResult{Changed: changed, Status: h.monitor.Status()}))
}

func (h *MonitorHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.monitor.ClearData()
	writeJSON(w, http.StatusOK, Ok(h.monitor.History()))
}

func (h *MonitorHandler) PostPlayback(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var ev models.PlaybackEvent
	if err := readBodyJSON(r, maxJSONBody, &ev); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if err := h.monitor.HandlePlayback(ev); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.monitor.View()))
}

func (h *MonitorHandler) PostVisibility(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var body struct {
		Hidden *bool `json:"hidden"`
	}
	if err := readBodyJSON(r, maxJSONBody, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if body.Hidden == nil {
		writeJSON(w, http.StatusBadRequest, Fail("hidden is required"))
		return
	}
	h.monitor.SetHidden(*body.Hidden)
	writeJSON(w, http.StatusOK, Ok(lifecycleResult{Changed: true, Status: h.monitor.Status()}))
}

func (h *MonitorHandler) PostExcursion(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var body struct {
		Kind string `json:"kind"`
	}
	if err := readBodyJSON(r, maxJSONBody, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	kind, err := signal.ParseExcursionKind(body.Kind)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	if err := h.monitor.StartExcursion(kind); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"excursion": kind.String()}))
}

type configRequest struct {
	MaxDataPoints    int `json:"max_data_points"`
	UpdateIntervalMs int `json:"update_interval_ms"`
}

func (h *MonitorHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPut) {
		return
	}

	var body configRequest
	if err := readBodyJSON(r, maxJSONBody, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	interval := time.Duration(body.UpdateIntervalMs) * time.Millisecond
	if err := h.monitor.UpdateConfig(body.MaxDataPoints, interval); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}

	v := h.monitor.View()
	writeJSON(w, http.StatusOK, Ok(configRequest{
		MaxDataPoints:    v.MaxDataPoints,
		UpdateIntervalMs: int(v.UpdateIntervalMs),
	}))
}

// Media POST uploads a video (multipart field "video"); GET streams the current one
func (h *MonitorHandler) Media(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.uploadMedia(w, r)
	case http.MethodGet, http.MethodHead:
		h.serveMedia(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *MonitorHandler) uploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("missing video file"))
		return
	}
	defer file.Close()

	info, err := h.monitor.LoadMedia(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, monitor.ErrUnsupportedMedia) {
			writeJSON(w, http.StatusBadRequest, Fail("please select a video file"))
			return
		}
		h.logger.Error("Failed to load media", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to store video"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(info))
}

func (h *MonitorHandler) serveMedia(w http.ResponseWriter, r *http.Request) {
	media, ok := h.monitor.Media()
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail("no video loaded"))
		return
	}

	f, err := media.Open()
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail("video no longer available"))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", media.ContentType)
	http.ServeContent(w, r, media.Name, media.LoadedAt, f)
}
