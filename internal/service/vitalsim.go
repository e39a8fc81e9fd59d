package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"wisefido-vitalsim/common/database"
	mqttcommon "wisefido-vitalsim/common/mqtt"
	rediscommon "wisefido-vitalsim/common/redis"
	"wisefido-vitalsim/internal/config"
	"wisefido-vitalsim/internal/consumer"
	httpapi "wisefido-vitalsim/internal/http"
	"wisefido-vitalsim/internal/monitor"
	"wisefido-vitalsim/internal/publisher"
	"wisefido-vitalsim/internal/repository"
	"wisefido-vitalsim/internal/sensor"
	"wisefido-vitalsim/internal/signal"
	"wisefido-vitalsim/internal/timeline"
)

// VitalSimService wires the monitor to the enabled backends and the HTTP API
type VitalSimService struct {
	config     *config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqttcommon.Client
	nats       *nats.Conn

	monitor  *monitor.Monitor
	hub      *httpapi.Hub
	consumer *consumer.MQTTConsumer
	router   *httpapi.Router
	server   *Server
}

// NewVitalSimService connects every enabled backend; any failure closes what was opened
func NewVitalSimService(cfg *config.Config, logger *zap.Logger) (*VitalSimService, error) {
	s := &VitalSimService{config: cfg, logger: logger}
	ctx := context.Background()

	ok := false
	defer func() {
		if !ok {
			s.closeBackends()
		}
	}()

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	tl, err := s.loadTimeline(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.newMonitor(tl)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitor: %w", err)
	}
	s.monitor = m
	s.hub = httpapi.NewHub(cfg.HTTP.AllowedOrigins, logger)
	cache, stream := s.registerSinks()

	var samples httpapi.SampleLister
	if s.db != nil {
		samples = repository.NewSampleRepository(s.db, logger)
	}
	s.router = httpapi.NewRouter(logger)
	s.router.RegisterMonitorRoutes(httpapi.NewMonitorHandler(m, samples, logger))
	if cache != nil {
		s.router.RegisterRealtimeRoutes(httpapi.NewRealtimeHandler(m, cache, stream, logger))
	}
	s.router.RegisterStreamRoutes(s.hub)
	s.router.RegisterMetrics(m.Metrics().Registry())
	s.server = NewServer(cfg.HTTP.Addr, s.router, logger)

	if s.mqttClient != nil {
		s.consumer = consumer.NewMQTTConsumer(s.mqttClient, m,
			cfg.Sinks.PlaybackTopic, cfg.Sinks.ControlTopic, cfg.MQTT.QoS, logger)
	}

	ok = true
	return s, nil
}

func (s *VitalSimService) connect(ctx context.Context) error {
	cfg := s.config

	if cfg.DatabaseEnabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		if cfg.AutoMigrate {
			if err := repository.EnsureSchema(ctx, db); err != nil {
				return err
			}
		}
	}

	if cfg.RedisEnabled {
		client := rediscommon.NewRedisClient(&cfg.Redis)
		s.redis = client
		if err := rediscommon.Ping(ctx, client); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	if cfg.MQTTEnabled {
		client, err := mqttcommon.NewClient(&cfg.MQTT, s.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to MQTT: %w", err)
		}
		s.mqttClient = client
	}

	if cfg.NATSEnabled {
		nc, err := publisher.ConnectNATS(&cfg.NATS, s.logger)
		if err != nil {
			return err
		}
		s.nats = nc
	}
	return nil
}

// loadTimeline TIMELINE_NAME (database) takes precedence over TIMELINE_FILE
func (s *VitalSimService) loadTimeline(ctx context.Context) (*timeline.Timeline, error) {
	cfg := s.config
	maxHP := cfg.Monitor.GaugeMax

	switch {
	case cfg.Timeline.Name != "" && s.db != nil:
		return repository.NewTimelineRepository(s.db, s.logger).Load(ctx, cfg.Timeline.Name, maxHP)
	case cfg.Timeline.File != "":
		tl, err := timeline.LoadFile(cfg.Timeline.File, maxHP)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Timeline loaded from file",
			zap.String("file", cfg.Timeline.File),
			zap.Int("events", tl.Len()),
		)
		return tl, nil
	default:
		return timeline.Empty(), nil
	}
}

func (s *VitalSimService) newMonitor(tl *timeline.Timeline) (*monitor.Monitor, error) {
	cfg := s.config

	profile, err := cfg.Breathing()
	if err != nil {
		return nil, err
	}

	opts := monitor.DefaultOptions()
	opts.UpdateInterval = cfg.Monitor.UpdateInterval
	opts.MaxDataPoints = cfg.Monitor.MaxDataPoints
	opts.AutoFollowVideo = cfg.Monitor.AutoFollowVideo
	opts.Breathing = profile
	opts.Gauge = cfg.Gauge()
	opts.Timeline = tl
	opts.Rand = signal.NewRand(cfg.Monitor.RandomSeed)
	opts.MediaDir = cfg.Monitor.MediaDir

	if cfg.Pulse.Enabled {
		client := sensor.NewPulseClient(cfg.Pulse.URL, cfg.Pulse.Timeout, s.logger)
		opts.HeartSource = sensor.NewPulseSource(client, s.logger)
		opts.SensorTimeout = cfg.Pulse.Timeout
	}

	return monitor.New(opts, s.logger)
}

// registerSinks fixed order: websocket, cache, stream, mqtt, nats, postgres.
// The Redis sinks are returned for read-back, nil when Redis is disabled.
func (s *VitalSimService) registerSinks() (*publisher.CacheSink, *publisher.StreamSink) {
	cfg := s.config
	var (
		cache  *publisher.CacheSink
		stream *publisher.StreamSink
	)

	s.monitor.AddSink("websocket", s.hub)
	if s.redis != nil {
		kv := publisher.NewRedisKVStore(s.redis)
		cache = publisher.NewCacheSink(kv, cfg.Sinks.CacheKeyPrefix, cfg.Sinks.CacheTTL, s.logger)
		stream = publisher.NewStreamSink(s.redis, cfg.Sinks.Stream, cfg.Sinks.StreamMaxLen)
		s.monitor.AddSink("cache", cache)
		s.monitor.AddSink("stream", stream)
	}
	if s.mqttClient != nil {
		s.monitor.AddSink("mqtt", publisher.NewMQTTSink(s.mqttClient, cfg.Sinks.TopicPrefix, cfg.MQTT.QoS))
	}
	if s.nats != nil {
		s.monitor.AddSink("nats", publisher.NewNATSSink(s.nats, cfg.NATS.Subject))
	}
	if s.db != nil {
		s.monitor.AddSink("postgres", publisher.NewSampleSink(repository.NewSampleRepository(s.db, s.logger)))
	}
	return cache, stream
}

func (s *VitalSimService) Monitor() *monitor.Monitor { return s.monitor }

func (s *VitalSimService) Handler() http.Handler { return s.router }

// Start subscribes the MQTT consumer and serves HTTP in the background
func (s *VitalSimService) Start(ctx context.Context) error {
	s.logger.Info("Starting vitalsim service components",
		zap.Bool("db", s.db != nil),
		zap.Bool("redis", s.redis != nil),
		zap.Bool("mqtt", s.mqttClient != nil),
		zap.Bool("nats", s.nats != nil),
		zap.Bool("pulse", s.config.Pulse.Enabled),
	)

	if s.consumer != nil {
		if err := s.consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start MQTT consumer: %w", err)
		}
	}

	go s.serve(func() error { return s.server.Start() })

	s.logger.Info("Vitalsim service started successfully")
	return nil
}

// StartListener like Start but serves on an existing listener
func (s *VitalSimService) StartListener(ctx context.Context, l net.Listener) error {
	if s.consumer != nil {
		if err := s.consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start MQTT consumer: %w", err)
		}
	}
	go s.serve(func() error { return s.server.Serve(l) })
	return nil
}

func (s *VitalSimService) serve(run func() error) {
	if err := run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("HTTP server failed", zap.Error(err))
	}
}

// Stop shuts down HTTP, stops monitoring, releases media and closes backends
func (s *VitalSimService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping vitalsim service")

	if err := s.server.Stop(ctx); err != nil {
		s.logger.Error("Error stopping HTTP server", zap.Error(err))
	}
	if s.consumer != nil {
		if err := s.consumer.Stop(ctx); err != nil {
			s.logger.Error("Error stopping MQTT consumer", zap.Error(err))
		}
	}
	if err := s.monitor.Cleanup(); err != nil {
		s.logger.Error("Error releasing media", zap.Error(err))
	}
	s.hub.Close()
	s.closeBackends()

	s.logger.Info("Vitalsim service stopped")
	return nil
}

func (s *VitalSimService) closeBackends() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
		s.mqttClient = nil
	}
	if s.nats != nil {
		if err := s.nats.Drain(); err != nil {
			s.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		s.nats = nil
	}
	if s.redis != nil {
		if err := rediscommon.Close(s.redis); err != nil {
			s.logger.Error("Error closing Redis client", zap.Error(err))
		}
		s.redis = nil
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Error closing database connection", zap.Error(err))
		}
		s.db = nil
	}
}
