// Package monitor drives the signal generators on a recurring tick, follows
// the video playback state, applies the scripted timeline and fans each
// reading out to the registered sinks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
	"wisefido-vitalsim/internal/sensor"
	"wisefido-vitalsim/internal/signal"
	"wisefido-vitalsim/internal/timeline"
)

// Status strings reported to clients
const (
	StatusIdle       = "Idle"
	StatusMonitoring = "Monitoring"
	StatusPaused     = "Paused"
)

const (
	HeartSourceSimulated = "simulated"
	HeartSourcePulse     = "pulse"

	maxNotifications = 5
)

var (
	ErrUnknownEvent  = errors.New("unknown playback event")
	ErrInvalidConfig = errors.New("invalid monitor config")
)

// Sink receives every reading after the tick's state update
type Sink interface {
	Publish(ctx context.Context, r models.Reading) error
}

// HeartSource a live heart-rate provider. sensor.ErrNoReading means use the simulated value.
type HeartSource interface {
	PulseRate(ctx context.Context) (int, error)
}

// Options monitor construction parameters
type Options struct {
	UpdateInterval  time.Duration
	MaxDataPoints   int
	AutoFollowVideo bool

	Heart     signal.HeartConfig
	Breathing signal.BreathingProfile
	Gauge     signal.GaugeConfig
	Timeline  *timeline.Timeline

	Rand           signal.Rand
	Scheduler      Scheduler
	HeartSource    HeartSource
	SensorTimeout  time.Duration
	PublishTimeout time.Duration
	MediaDir       string
	Metrics        *Metrics
	Now            func() time.Time
}

// DefaultOptions 1 s tick, 30 points, wide breathing profile
func DefaultOptions() Options {
	profile, _ := signal.Profile("wide")
	return Options{
		UpdateInterval:  time.Second,
		MaxDataPoints:   signal.DefaultMaxDataPoints,
		AutoFollowVideo: true,
		Heart:           signal.DefaultHeartConfig(),
		Breathing:       profile,
		Gauge:           signal.DefaultGaugeConfig(),
		SensorTimeout:   sensor.DefaultTimeout,
		PublishTimeout:  2 * time.Second,
	}
}

// Notification a fired notification event
type Notification struct {
	At      float64   `json:"at"`
	Text    string    `json:"text"`
	FiredAt time.Time `json:"fired_at"`
}

// View what the display shows right now
type View struct {
	SessionID        string               `json:"session_id"`
	Status           string               `json:"status"`
	HeartRate        int                  `json:"heart_rate"`
	BreathingRate    int                  `json:"breathing_rate"`
	HP               float64              `json:"hp"`
	MaxHP            float64              `json:"max_hp"`
	Hearts           int                  `json:"hearts"`
	Icons            int                  `json:"icons"`
	Playback         models.PlaybackState `json:"playback"`
	Remaining        float64              `json:"remaining"`
	Excursion        string               `json:"excursion,omitempty"`
	Messages         []string             `json:"messages"`
	Notifications    []Notification       `json:"notifications"`
	MaxDataPoints    int                  `json:"max_data_points"`
	UpdateIntervalMs int64                `json:"update_interval_ms"`
	Hidden           bool                 `json:"hidden"`
	TimelineFired    int                  `json:"timeline_fired"`
	TimelineEvents   int                  `json:"timeline_events"`
	Media            *MediaInfo           `json:"media,omitempty"`
}

type namedSink struct {
	name string
	sink Sink
}

// Monitor the scheduler lifecycle. All state is guarded by mu; sinks and the
// heart source are called with mu released.
type Monitor struct {
	opts    Options
	logger  *zap.Logger
	metrics *Metrics
	sched   Scheduler
	now     func() time.Time

	sinksMu sync.RWMutex
	sinks   []namedSink

	mu         sync.Mutex
	monitoring bool
	paused     bool
	hidden     bool
	gen        uint64
	cancel     func()
	interval   time.Duration

	sessionID string
	seq       int64
	rand      signal.Rand
	history   *signal.History
	excursion signal.Excursion
	hp        float64
	lastHR    int
	lastBR    int

	playback      models.PlaybackState
	video         bool
	cursor        *timeline.Cursor
	revealed      []timeline.Event
	notifications []Notification
	media         *Media
}

func New(opts Options, logger *zap.Logger) (*Monitor, error) {
	if opts.UpdateInterval <= 0 {
		return nil, fmt.Errorf("%w: update interval must be positive", ErrInvalidConfig)
	}
	if err := opts.Breathing.Validate(); err != nil {
		return nil, err
	}
	if opts.Gauge.Max <= 0 {
		return nil, fmt.Errorf("%w: gauge max must be positive", ErrInvalidConfig)
	}
	if opts.Rand == nil {
		opts.Rand = signal.NewRand(0)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Timeline == nil {
		opts.Timeline = timeline.Empty()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	if opts.SensorTimeout <= 0 {
		opts.SensorTimeout = sensor.DefaultTimeout
	}

	return &Monitor{
		opts:      opts,
		logger:    logger,
		metrics:   opts.Metrics,
		sched:     opts.Scheduler,
		now:       opts.Now,
		interval:  opts.UpdateInterval,
		sessionID: uuid.New().String(),
		rand:      opts.Rand,
		history:   signal.NewHistory(opts.MaxDataPoints),
		hp:        opts.Gauge.Clamp(opts.Gauge.Initial),
		cursor:    timeline.NewCursor(opts.Timeline),
		revealed:  []timeline.Event{},
	}, nil
}

// AddSink registers s; sinks are published to in registration order
func (m *Monitor) AddSink(name string, s Sink) {
	m.sinksMu.Lock()
	defer m.sinksMu.Unlock()
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
}

func (m *Monitor) Metrics() *Metrics { return m.metrics }

// Start installs the tick. It reports false when already monitoring.
func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.monitoring {
		m.logger.Warn("Monitoring already running", zap.String("session_id", m.sessionID))
		return false
	}
	m.startLocked()
	return true
}

// Stop removes the tick and clears a hidden-page pause. It reports false when already Idle.
func (m *Monitor) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasPaused := m.paused
	m.paused = false
	if !m.monitoring {
		return wasPaused
	}
	m.stopLocked()
	return true
}

func (m *Monitor) startLocked() {
	m.gen++
	gen := m.gen
	m.monitoring = true
	m.paused = false
	m.cancel = m.sched.Schedule(m.interval, func() { m.tick(gen) })
	m.metrics.Monitoring.Set(1)

	m.logger.Info("Monitoring started",
		zap.String("session_id", m.sessionID),
		zap.Duration("interval", m.interval),
	)
}

func (m *Monitor) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.monitoring = false
	m.metrics.Monitoring.Set(0)

	m.logger.Info("Monitoring stopped", zap.String("session_id", m.sessionID))
}

// SetHidden pauses monitoring while the view is hidden and resumes it when
// the view returns and the video is still playing.
func (m *Monitor) SetHidden(hidden bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hidden = hidden
	if hidden {
		if m.monitoring {
			m.stopLocked()
			m.paused = true
		}
		return
	}

	// only a pause caused by hiding is resumed
	wasPaused := m.paused
	m.paused = false
	if wasPaused && !m.monitoring && m.playback.Playing {
		m.startLocked()
	}
}

// StartExcursion begins a big inhale or exhale, replacing any active one
func (m *Monitor) StartExcursion(kind signal.ExcursionKind) error {
	if kind == signal.ExcursionNone {
		return fmt.Errorf("%w: excursion kind required", ErrInvalidConfig)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.excursion = signal.StartExcursion(kind)
	return nil
}

// UpdateConfig applies a new window size and interval; zero leaves a value
// unchanged. An interval change while monitoring restarts the tick.
func (m *Monitor) UpdateConfig(maxDataPoints int, interval time.Duration) error {
	if maxDataPoints < 0 || interval < 0 {
		return fmt.Errorf("%w: values must not be negative", ErrInvalidConfig)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if maxDataPoints > 0 {
		m.history.SetMaxLen(maxDataPoints)
	}
	if interval > 0 && interval != m.interval {
		m.interval = interval
		if m.monitoring {
			m.stopLocked()
			m.startLocked()
		}
	}

	m.logger.Info("Monitor config updated",
		zap.Int("max_data_points", m.history.MaxLen()),
		zap.Duration("interval", m.interval),
	)
	return nil
}

// ClearData empties the history buffers
func (m *Monitor) ClearData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history.Clear()
}

// Cleanup stops monitoring and releases the media file
func (m *Monitor) Cleanup() error {
	m.mu.Lock()
	if m.monitoring {
		m.stopLocked()
	}
	m.paused = false
	media := m.media
	m.media = nil
	m.mu.Unlock()

	if media != nil {
		return media.Release()
	}
	return nil
}

// HandlePlayback records a video state change and evaluates the timeline at
// the reported position.
func (m *Monitor) HandlePlayback(ev models.PlaybackEvent) error {
	pos := ev.Position
	if pos < 0 {
		pos = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	playing := m.playback.Playing
	switch ev.Event {
	case models.PlaybackPlay:
		playing = true
	case models.PlaybackPause, models.PlaybackEnded:
		playing = false
	case models.PlaybackError:
		playing = false
		m.logger.Warn("Video playback error", zap.String("message", ev.Message))
	case models.PlaybackSeeked, models.PlaybackTimeUpdate:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Event)
	}

	duration := ev.Duration
	if duration <= 0 {
		duration = m.playback.Duration
	}
	m.playback = models.PlaybackState{Playing: playing, Position: pos, Duration: duration}
	m.video = true

	m.applyTransitionLocked(m.cursor.Advance(pos))

	if m.opts.AutoFollowVideo {
		switch {
		case ev.Event == models.PlaybackPlay && !m.monitoring && !m.hidden:
			m.startLocked()
		case ev.Event != models.PlaybackSeeked && ev.Event != models.PlaybackTimeUpdate && !playing && m.monitoring:
			m.stopLocked()
		}
	}
	return nil
}

func (m *Monitor) applyTransitionLocked(tr timeline.Transition) {
	if tr.Backward() {
		if tr.State.HP != nil {
			m.hp = m.opts.Gauge.Clamp(*tr.State.HP)
		} else {
			m.hp = m.opts.Gauge.Clamp(m.opts.Gauge.Initial)
		}
		m.logger.Debug("Timeline rewound",
			zap.Float64("from", tr.From),
			zap.Float64("to", tr.To),
			zap.Int("rewound", len(tr.Rewound)),
		)
	}

	for _, e := range tr.Fired {
		m.metrics.Events.WithLabelValues(string(e.Kind)).Inc()
		switch e.Kind {
		case timeline.KindHPSet:
			m.hp = m.opts.Gauge.Clamp(e.Value)
		case timeline.KindBigInhale:
			m.excursion = signal.StartExcursion(signal.ExcursionInhale)
		case timeline.KindBigExhale:
			m.excursion = signal.StartExcursion(signal.ExcursionExhale)
		case timeline.KindNotification:
			m.notifications = append(m.notifications, Notification{At: e.At, Text: e.Text, FiredAt: m.now()})
			if over := len(m.notifications) - maxNotifications; over > 0 {
				m.notifications = m.notifications[over:]
			}
		}
	}

	m.revealed = tr.State.Revealed
}

// LoadMedia spools a video upload and makes it current, releasing the
// previous one. Non-video content types leave the current media untouched.
func (m *Monitor) LoadMedia(name, contentType string, r io.Reader) (MediaInfo, error) {
	if !isVideo(contentType) {
		return MediaInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedMedia, contentType)
	}

	media, err := spoolMedia(m.opts.MediaDir, name, contentType, r, m.now())
	if err != nil {
		return MediaInfo{}, err
	}

	m.mu.Lock()
	prev := m.media
	m.media = media
	m.video = true
	m.playback = models.PlaybackState{}
	m.cursor.Reset()
	m.revealed = []timeline.Event{}
	m.notifications = nil
	m.hp = m.opts.Gauge.Clamp(m.opts.Gauge.Initial)
	m.sessionID = uuid.New().String()
	m.seq = 0
	session := m.sessionID
	m.mu.Unlock()

	m.logger.Info("Media loaded",
		zap.String("session_id", session),
		zap.String("name", media.Name),
		zap.String("content_type", contentType),
		zap.Int64("size", media.Size),
	)

	if prev != nil {
		if err := prev.Release(); err != nil {
			m.logger.Warn("Failed to release previous media", zap.Error(err))
		}
	}
	return media.MediaInfo, nil
}

// Media the current video, if any
func (m *Monitor) Media() (*Media, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.media, m.media != nil
}

// Status Idle, Monitoring or Paused
func (m *Monitor) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// SessionID the session readings are published under
func (m *Monitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

func (m *Monitor) statusLocked() string {
	switch {
	case m.monitoring:
		return StatusMonitoring
	case m.paused:
		return StatusPaused
	default:
		return StatusIdle
	}
}

// History a copy of the three buffers
func (m *Monitor) History() signal.Series {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Snapshot()
}

func (m *Monitor) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		SessionID:        m.sessionID,
		Status:           m.statusLocked(),
		HeartRate:        m.lastHR,
		BreathingRate:    m.lastBR,
		HP:               m.hp,
		MaxHP:            m.opts.Gauge.Max,
		Hearts:           signal.Hearts(m.opts.Gauge, m.hp),
		Icons:            m.opts.Gauge.Icons,
		Playback:         m.playback,
		Remaining:        m.playback.Remaining(),
		Excursion:        m.excursion.Kind().String(),
		Messages:         make([]string, 0, len(m.revealed)),
		Notifications:    append([]Notification{}, m.notifications...),
		MaxDataPoints:    m.history.MaxLen(),
		UpdateIntervalMs: m.interval.Milliseconds(),
		Hidden:           m.hidden,
		TimelineFired:    m.cursor.Fired(),
		TimelineEvents:   m.opts.Timeline.Len(),
	}
	for _, e := range m.revealed {
		v.Messages = append(v.Messages, e.Text)
	}
	if m.media != nil {
		info := m.media.MediaInfo
		v.Media = &info
	}
	return v
}

// tick runs one scheduled update for generation gen
func (m *Monitor) tick(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || !m.monitoring {
		m.mu.Unlock()
		m.metrics.StaleTicks.Inc()
		return
	}
	m.mu.Unlock()

	live, err := m.livePulse()
	if err != nil {
		m.metrics.TickErrors.WithLabelValues("sensor").Inc()
		m.logger.Warn("Pulse sensor failed, skipping tick", zap.Error(err))
		return
	}

	reading, ok, err := m.compute(gen, live)
	if err != nil {
		m.metrics.TickErrors.WithLabelValues("panic").Inc()
		m.logger.Error("Tick computation failed, skipping publication", zap.Error(err))
		return
	}
	if !ok {
		m.metrics.StaleTicks.Inc()
		return
	}

	m.metrics.Ticks.Inc()
	m.metrics.HeartRate.Set(float64(reading.HeartRate))
	m.metrics.BreathingRate.Set(float64(reading.BreathingRate))
	m.metrics.HP.Set(reading.HP)

	m.publish(reading)
}

// livePulse returns 0 when no live source is configured or it has no reading yet
func (m *Monitor) livePulse() (int, error) {
	if m.opts.HeartSource == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.SensorTimeout)
	defer cancel()

	bpm, err := m.opts.HeartSource.PulseRate(ctx)
	if errors.Is(err, sensor.ErrNoReading) {
		return 0, nil
	}
	return bpm, err
}

// compute produces the reading under the lock: values, buffers, gauge.
func (m *Monitor) compute(gen uint64, live int) (r models.Reading, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in tick: %v", p)
			ok = false
		}
	}()

	if gen != m.gen || !m.monitoring {
		return models.Reading{}, false, nil
	}

	now := m.now()
	in := signal.Inputs{WallClock: now, Position: m.playback.Position, Video: m.video}

	hr := signal.HeartRate(m.opts.Heart, in, m.rand)
	source := HeartSourceSimulated
	if live > 0 {
		hr = signal.ClampHeartRate(m.opts.Heart, live)
		source = HeartSourcePulse
	}
	excursion := m.excursion.Kind().String()
	br := signal.BreathingRate(m.opts.Breathing, in, &m.excursion, m.rand)

	label := signal.Label(now)
	m.history.Push(signal.Sample{HeartRate: hr, BreathingRate: br, Label: label})
	m.hp = signal.UpdateGauge(m.opts.Gauge, m.hp, hr, m.rand)
	m.lastHR, m.lastBR = hr, br
	m.seq++

	return models.Reading{
		SessionID:     m.sessionID,
		Seq:           m.seq,
		HeartRate:     hr,
		HeartSource:   source,
		BreathingRate: br,
		HP:            m.hp,
		Hearts:        signal.Hearts(m.opts.Gauge, m.hp),
		Label:         label,
		Timestamp:     now,
		Position:      m.playback.Position,
		Remaining:     m.playback.Remaining(),
		Status:        m.statusLocked(),
		Excursion:     excursion,
	}, true, nil
}

func (m *Monitor) publish(r models.Reading) {
	m.sinksMu.RLock()
	sinks := append([]namedSink(nil), m.sinks...)
	m.sinksMu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.PublishTimeout)
	defer cancel()

	for _, s := range sinks {
		if err := s.sink.Publish(ctx, r); err != nil {
			m.metrics.SinkErrors.WithLabelValues(s.name).Inc()
			m.logger.Warn("Failed to publish reading",
				zap.String("sink", s.name),
				zap.String("session_id", r.SessionID),
				zap.Int64("seq", r.Seq),
				zap.Error(err),
			)
		}
	}
}
