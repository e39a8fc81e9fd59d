package signal

import "math"

// GaugeConfig HP gauge behaviour
type GaugeConfig struct {
	Max        float64
	Initial    float64
	NormalLow  int // heart rates in [NormalLow, NormalHigh] recover HP
	NormalHigh int
	Up         float64
	DownAbove  float64
	DownBelow  float64
	Noise      float64
	Icons      int
}

// DefaultGaugeConfig 100 HP drawn as 5 hearts
func DefaultGaugeConfig() GaugeConfig {
	return GaugeConfig{
		Max:        100,
		Initial:    100,
		NormalLow:  60,
		NormalHigh: 100,
		Up:         1.0,
		DownAbove:  0.5,
		DownBelow:  0.75,
		Noise:      0.5,
		Icons:      5,
	}
}

// Clamp bounds v to [0, Max]
func (c GaugeConfig) Clamp(v float64) float64 {
	return clampFloat(v, 0, c.Max)
}

// UpdateGauge moves current according to how heart rate classifies, adds noise, clamps.
func UpdateGauge(cfg GaugeConfig, current float64, heartRate int, r Rand) float64 {
	switch {
	case heartRate > cfg.NormalHigh:
		current -= cfg.DownAbove
	case heartRate < cfg.NormalLow:
		current -= cfg.DownBelow
	default:
		current += cfg.Up
	}
	current += symmetric(r, cfg.Noise)
	return cfg.Clamp(current)
}

// Hearts the number of icons to render for value
func Hearts(cfg GaugeConfig, value float64) int {
	if cfg.Max <= 0 || cfg.Icons <= 0 {
		return 0
	}
	n := int(math.Ceil(cfg.Clamp(value) / cfg.Max * float64(cfg.Icons)))
	return clampInt(n, 0, cfg.Icons)
}
