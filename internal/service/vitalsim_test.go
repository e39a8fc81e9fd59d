package service

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-vitalsim/internal/config"
	httpapi "wisefido-vitalsim/internal/http"
	"wisefido-vitalsim/internal/models"
	"wisefido-vitalsim/internal/monitor"
)

func monitorEvent(event string, position float64) models.PlaybackEvent {
	return models.PlaybackEvent{Event: event, Position: position, Duration: 60}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.ShutdownTimeout = time.Second
	cfg.Monitor.UpdateInterval = 10 * time.Millisecond
	cfg.Monitor.MaxDataPoints = 30
	cfg.Monitor.AutoFollowVideo = true
	cfg.Monitor.BreathingProfile = "wide"
	cfg.Monitor.ExcursionSteps = 3
	cfg.Monitor.GaugeMax = 100
	cfg.Monitor.GaugeIcons = 5
	cfg.Monitor.RandomSeed = 42
	cfg.Monitor.MediaDir = t.TempDir()
	cfg.Sinks.CacheKeyPrefix = "vitalsim:session:"
	cfg.Sinks.CacheTTL = 10 * time.Second
	cfg.Sinks.Stream = "vitalsim:samples:stream"
	cfg.Sinks.StreamMaxLen = 100
	return cfg
}

func TestVitalSimService_NoBackends(t *testing.T) {
	svc, err := NewVitalSimService(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop(context.Background())

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.APIPrefix+"/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body httpapi.Result[monitor.View]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, httpapi.ResultSuccess, body.Code)
	assert.Equal(t, monitor.StatusIdle, body.Result.Status)
	assert.NotEmpty(t, body.Result.SessionID)

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vitalsim_monitoring")

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.APIPrefix+"/samples", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.APIPrefix+"/realtime", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVitalSimService_RedisSinks(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RedisEnabled = true
	cfg.Redis.Addr = mr.Addr()

	svc, err := NewVitalSimService(cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop(context.Background())

	require.True(t, svc.Monitor().Start())
	key := cfg.Sinks.CacheKeyPrefix + svc.Monitor().View().SessionID + ":realtime"

	assert.Eventually(t, func() bool {
		return mr.Exists(key) && mr.Exists(cfg.Sinks.Stream)
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, svc.Monitor().Stop())

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.APIPrefix+"/realtime", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var latest httpapi.Result[models.Reading]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, svc.Monitor().SessionID(), latest.Result.SessionID)

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, httpapi.APIPrefix+"/realtime/recent?count=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var recent httpapi.Result[[]models.Reading]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recent))
	assert.Len(t, recent.Result, 1)
}

func TestVitalSimService_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.RedisEnabled = true
	cfg.Redis.Addr = addr

	_, err := NewVitalSimService(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestVitalSimService_TimelineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: demo
events:
  - at: 5
    kind: hp_set
    value: 40
  - at: 12
    kind: message
    text: hold your breath
`), 0o600))

	cfg := testConfig(t)
	cfg.Timeline.File = path
	svc, err := NewVitalSimService(cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Stop(context.Background())

	require.NoError(t, svc.Monitor().HandlePlayback(monitorEvent("seeked", 13)))
	view := svc.Monitor().View()
	assert.Equal(t, 40.0, view.HP)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, "hold your breath", view.Messages[0])
}

func TestVitalSimService_InvalidTimelineFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeline.File = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewVitalSimService(cfg, zap.NewNop())
	require.Error(t, err)
}

func TestVitalSimService_StartListener(t *testing.T) {
	svc, err := NewVitalSimService(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, svc.StartListener(context.Background(), l))

	resp, err := http.Post("http://"+l.Addr().String()+httpapi.APIPrefix+"/monitor/start", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, monitor.StatusMonitoring, svc.Monitor().Status())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))
	assert.Equal(t, monitor.StatusIdle, svc.Monitor().Status())
}
