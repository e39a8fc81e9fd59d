// Package signal generates the simulated vital signs: heart rate, breathing
// rate (with scripted inhale/exhale excursions), the HP gauge derived from
// heart rate, and the bounded history buffers the charts are drawn from.
package signal

import (
	"math"
	"time"
)

// Inputs the clocks a computation is driven by
type Inputs struct {
	WallClock time.Time
	// Position is the video playback position in seconds; only used when Video is set
	Position float64
	Video    bool
}

func (in Inputs) millis() float64 {
	return float64(in.WallClock.UnixMilli())
}

// HeartConfig heart-rate waveform parameters
type HeartConfig struct {
	Base      float64
	Variation float64 // amplitude of the wall-clock sine
	PeriodMs  float64 // sin(ms / PeriodMs)
	Jitter    float64 // uniform noise in [-Jitter, +Jitter]
	Min       int
	Max       int

	// video-driven terms
	RampStart      float64 // seconds before the ramp begins
	RampSpan       float64 // seconds the ramp takes to reach RampGain
	RampGain       float64
	VideoAmplitude float64
	VideoPeriod    float64 // sin(position / VideoPeriod)
}

// DefaultHeartConfig 72 bpm ± 15, clamped to [50, 120]
func DefaultHeartConfig() HeartConfig {
	return HeartConfig{
		Base:           72,
		Variation:      15,
		PeriodMs:       5000,
		Jitter:         4,
		Min:            50,
		Max:            120,
		RampStart:      30,
		RampSpan:       60,
		RampGain:       10,
		VideoAmplitude: 5,
		VideoPeriod:    8,
	}
}

// HeartRate computes one heart-rate sample.
func HeartRate(cfg HeartConfig, in Inputs, r Rand) int {
	v := cfg.Base + math.Sin(in.millis()/cfg.PeriodMs)*cfg.Variation
	if in.Video {
		v += VideoRamp(cfg, in.Position)
		v += math.Sin(in.Position/cfg.VideoPeriod) * cfg.VideoAmplitude
	}
	v += symmetric(r, cfg.Jitter)
	return ClampHeartRate(cfg, int(math.Round(v)))
}

// VideoRamp is 0 until RampStart, then rises linearly to RampGain over RampSpan seconds and holds.
func VideoRamp(cfg HeartConfig, position float64) float64 {
	if position <= cfg.RampStart || cfg.RampSpan <= 0 {
		return 0
	}
	progress := (position - cfg.RampStart) / cfg.RampSpan
	return clampFloat(progress, 0, 1) * cfg.RampGain
}

// ClampHeartRate bounds v to [cfg.Min, cfg.Max]
func ClampHeartRate(cfg HeartConfig, v int) int {
	return clampInt(v, cfg.Min, cfg.Max)
}
