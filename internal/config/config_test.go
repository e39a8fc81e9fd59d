package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.Empty(t, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.DatabaseEnabled)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.MQTTEnabled)
	assert.False(t, cfg.NATSEnabled)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "vitalsim", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "vitals.params", cfg.NATS.Subject)

	assert.Equal(t, time.Second, cfg.Monitor.UpdateInterval)
	assert.Equal(t, 30, cfg.Monitor.MaxDataPoints)
	assert.True(t, cfg.Monitor.AutoFollowVideo)
	assert.Equal(t, "wide", cfg.Monitor.BreathingProfile)
	assert.Equal(t, 3, cfg.Monitor.ExcursionSteps)
	assert.Equal(t, 100.0, cfg.Monitor.GaugeMax)
	assert.Equal(t, 5, cfg.Monitor.GaugeIcons)

	assert.False(t, cfg.Pulse.Enabled)
	assert.Equal(t, "http://172.20.10.10", cfg.Pulse.URL)
	assert.Equal(t, 10*time.Second, cfg.Sinks.CacheTTL)
	assert.Equal(t, int64(10000), cfg.Sinks.StreamMaxLen)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	p, err := cfg.Breathing()
	require.NoError(t, err)
	assert.Equal(t, 0, p.Min)
	assert.Equal(t, 30, p.Max)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("ENV_FILE", "")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("WS_ALLOWED_ORIGINS", "http://player.local, ,https://kiosk.local")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ENABLED", "1")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("MQTT_QOS", "1")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("MONITOR_UPDATE_INTERVAL_MS", "500")
	t.Setenv("MONITOR_MAX_DATA_POINTS", "60")
	t.Setenv("MONITOR_AUTO_FOLLOW_VIDEO", "false")
	t.Setenv("BREATHING_PROFILE", "classic")
	t.Setenv("GAUGE_MAX", "50")
	t.Setenv("TIMELINE_NAME", "friend-visit")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://player.local", "https://kiosk.local"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.DatabaseEnabled)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.UpdateInterval)
	assert.Equal(t, 60, cfg.Monitor.MaxDataPoints)
	assert.False(t, cfg.Monitor.AutoFollowVideo)
	assert.Equal(t, "friend-visit", cfg.Timeline.Name)
	assert.Equal(t, "debug", cfg.Log.Level)

	g := cfg.Gauge()
	assert.Equal(t, 50.0, g.Max)
	assert.Equal(t, 50.0, g.Initial)
}

func TestLoad_DotEnvFile(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:7000\nBREATHING_PROFILE=deep\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("HTTP_ADDR", ":7100")

	cfg, err := Load()
	require.NoError(t, err)
	// the process environment wins over the file
	assert.Equal(t, ":7100", cfg.HTTP.Addr)
	assert.Equal(t, "deep", cfg.Monitor.BreathingProfile)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown profile":     {"BREATHING_PROFILE": "shallow"},
		"zero interval":       {"MONITOR_UPDATE_INTERVAL_MS": "0"},
		"negative points":     {"MONITOR_MAX_DATA_POINTS": "-1"},
		"too many steps":      {"EXCURSION_STEPS": "40"},
		"timeline without db": {"TIMELINE_NAME": "demo"},
		"non-positive gauge":  {"GAUGE_MAX": "0"},
		"non-positive icons":  {"GAUGE_ICONS": "0"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			os.Clearenv()
			t.Setenv("ENV_FILE", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
