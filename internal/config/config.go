package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wisefido-vitalsim/common/config"
	"wisefido-vitalsim/internal/signal"
)

// Config vitalsim service configuration
type Config struct {
	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
		AllowedOrigins  []string // websocket origins besides the serving host, "*" for any
	}

	Database        config.DatabaseConfig
	DatabaseEnabled bool
	AutoMigrate     bool

	Redis        config.RedisConfig
	RedisEnabled bool

	MQTT        config.MQTTConfig
	MQTTEnabled bool

	NATS        config.NATSConfig
	NATSEnabled bool

	Monitor struct {
		UpdateInterval   time.Duration
		MaxDataPoints    int
		AutoFollowVideo  bool
		BreathingProfile string // wide, classic, deep
		ExcursionSteps   int
		GaugeMax         float64
		GaugeIcons       int
		RandomSeed       uint64 // 0 = time based
		MediaDir         string
	}

	Timeline struct {
		File string // YAML
		Name string // timeline_events.timeline, needs the database
	}

	Pulse struct {
		Enabled bool
		URL     string
		Timeout time.Duration
	}

	Sinks struct {
		CacheKeyPrefix string
		CacheTTL       time.Duration
		Stream         string
		StreamMaxLen   int64
		TopicPrefix    string
		PlaybackTopic  string
		ControlTopic   string
	}

	Log struct {
		Level  string
		Format string
		File   string
	}
}

// Load reads the environment, after applying ENV_FILE (default .env) when present
func Load() (*Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8090")
	cfg.HTTP.ShutdownTimeout = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.HTTP.AllowedOrigins = getEnvList("WS_ALLOWED_ORIGINS")

	cfg.DatabaseEnabled = getEnvBool("DB_ENABLED", false)
	cfg.AutoMigrate = getEnvBool("DB_AUTO_MIGRATE", false)
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "vitalsim"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10
	cfg.Database.MaxIdle = 4
	cfg.Database.ApplicationName = "wisefido-vitalsim"
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnvBool("REDIS_ENABLED", false)
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTTEnabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "wisefido-vitalsim"
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.NATSEnabled = getEnvBool("NATS_ENABLED", false)
	cfg.NATS.URL = "nats://127.0.0.1:4222"
	cfg.NATS.Name = "wisefido-vitalsim"
	cfg.NATS.Subject = "vitals.params"
	cfg.NATS.LoadFromEnv("NATS")

	cfg.Monitor.UpdateInterval = time.Duration(getEnvInt("MONITOR_UPDATE_INTERVAL_MS", 1000)) * time.Millisecond
	cfg.Monitor.MaxDataPoints = getEnvInt("MONITOR_MAX_DATA_POINTS", signal.DefaultMaxDataPoints)
	cfg.Monitor.AutoFollowVideo = getEnvBool("MONITOR_AUTO_FOLLOW_VIDEO", true)
	cfg.Monitor.BreathingProfile = getEnv("BREATHING_PROFILE", "wide")
	cfg.Monitor.ExcursionSteps = getEnvInt("EXCURSION_STEPS", 3)
	cfg.Monitor.GaugeMax = getEnvFloat("GAUGE_MAX", 100)
	cfg.Monitor.GaugeIcons = getEnvInt("GAUGE_ICONS", 5)
	cfg.Monitor.RandomSeed = uint64(getEnvInt("RANDOM_SEED", 0))
	cfg.Monitor.MediaDir = getEnv("MEDIA_DIR", os.TempDir())

	cfg.Timeline.File = getEnv("TIMELINE_FILE", "")
	cfg.Timeline.Name = getEnv("TIMELINE_NAME", "")

	cfg.Pulse.Enabled = getEnvBool("PULSE_ENABLED", false)
	cfg.Pulse.URL = getEnv("PULSE_URL", "http://172.20.10.10")
	cfg.Pulse.Timeout = time.Duration(getEnvInt("PULSE_TIMEOUT_MS", 800)) * time.Millisecond

	cfg.Sinks.CacheKeyPrefix = getEnv("CACHE_KEY_PREFIX", "vitalsim:session:")
	cfg.Sinks.CacheTTL = time.Duration(getEnvInt("CACHE_TTL_SECONDS", 10)) * time.Second
	cfg.Sinks.Stream = getEnv("SAMPLE_STREAM", "vitalsim:samples:stream")
	cfg.Sinks.StreamMaxLen = int64(getEnvInt("SAMPLE_STREAM_MAXLEN", 10000))
	cfg.Sinks.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "vitalsim")
	cfg.Sinks.PlaybackTopic = getEnv("MQTT_TOPIC_PLAYBACK", "vitalsim/+/playback")
	cfg.Sinks.ControlTopic = getEnv("MQTT_TOPIC_CONTROL", "vitalsim/+/control")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.File = getEnv("LOG_FILE", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the monitor cannot run with
func (c *Config) Validate() error {
	if c.Monitor.UpdateInterval <= 0 {
		return fmt.Errorf("MONITOR_UPDATE_INTERVAL_MS must be positive")
	}
	if c.Monitor.MaxDataPoints <= 0 {
		return fmt.Errorf("MONITOR_MAX_DATA_POINTS must be positive")
	}
	if c.Monitor.GaugeMax <= 0 {
		return fmt.Errorf("GAUGE_MAX must be positive")
	}
	if c.Monitor.GaugeIcons <= 0 {
		return fmt.Errorf("GAUGE_ICONS must be positive")
	}
	if _, err := c.Breathing(); err != nil {
		return err
	}
	if c.Timeline.Name != "" && !c.DatabaseEnabled {
		return fmt.Errorf("TIMELINE_NAME requires DB_ENABLED=true")
	}
	return nil
}

// Breathing the configured profile with the excursion step override applied
func (c *Config) Breathing() (signal.BreathingProfile, error) {
	p, err := signal.Profile(c.Monitor.BreathingProfile)
	if err != nil {
		return signal.BreathingProfile{}, err
	}
	if c.Monitor.ExcursionSteps > 0 {
		p.Steps = c.Monitor.ExcursionSteps
	}
	if err := p.Validate(); err != nil {
		return signal.BreathingProfile{}, err
	}
	return p, nil
}

// Gauge the HP gauge settings
func (c *Config) Gauge() signal.GaugeConfig {
	g := signal.DefaultGaugeConfig()
	g.Max = c.Monitor.GaugeMax
	g.Initial = c.Monitor.GaugeMax
	g.Icons = c.Monitor.GaugeIcons
	return g
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}

// getEnvList comma separated, empty items dropped
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
