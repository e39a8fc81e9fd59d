package signal

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProfile breathing profile fails validation
var ErrInvalidProfile = errors.New("invalid breathing profile")

// BreathingProfile per-deployment breathing parameters. Deployments disagree
// on the clamp range, so the range travels with the profile.
type BreathingProfile struct {
	Name      string
	Min       int
	Max       int
	Baseline  int
	InhaleMax int
	ExhaleMin int
	Steps     int // K, excursion length in ticks

	Variation      float64
	PeriodMs       float64
	Jitter         float64
	VideoAmplitude float64
	VideoPeriod    float64
}

func baseProfile(name string, min, max, inhaleMax, exhaleMin int) BreathingProfile {
	return BreathingProfile{
		Name:           name,
		Min:            min,
		Max:            max,
		Baseline:       16,
		InhaleMax:      inhaleMax,
		ExhaleMin:      exhaleMin,
		Steps:          3,
		Variation:      3,
		PeriodMs:       8000,
		Jitter:         1,
		VideoAmplitude: 2,
		VideoPeriod:    6,
	}
}

// Profile returns a named profile: wide [0,30], classic [10,25], deep [0,28]
func Profile(name string) (BreathingProfile, error) {
	switch name {
	case "", "wide":
		return baseProfile("wide", 0, 30, 28, 5), nil
	case "classic":
		return baseProfile("classic", 10, 25, 25, 10), nil
	case "deep":
		return baseProfile("deep", 0, 28, 28, 5), nil
	default:
		return BreathingProfile{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidProfile, name)
	}
}

// Validate checks min ≤ exhaleMin < baseline < inhaleMax ≤ max and that each
// excursion step moves the rate by at least one breath per minute.
func (p BreathingProfile) Validate() error {
	if p.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidProfile, p.Steps)
	}
	if !(p.Min <= p.ExhaleMin && p.ExhaleMin < p.Baseline && p.Baseline < p.InhaleMax && p.InhaleMax <= p.Max) {
		return fmt.Errorf("%w: need min(%d) <= exhale_min(%d) < baseline(%d) < inhale_max(%d) <= max(%d)",
			ErrInvalidProfile, p.Min, p.ExhaleMin, p.Baseline, p.InhaleMax, p.Max)
	}
	if p.InhaleMax-p.Baseline < p.Steps || p.Baseline-p.ExhaleMin < p.Steps {
		return fmt.Errorf("%w: excursion span too small for %d steps", ErrInvalidProfile, p.Steps)
	}
	return nil
}

// ExcursionKind tags the active excursion
type ExcursionKind int

const (
	ExcursionNone ExcursionKind = iota
	ExcursionInhale
	ExcursionExhale
)

func (k ExcursionKind) String() string {
	switch k {
	case ExcursionInhale:
		return "inhale"
	case ExcursionExhale:
		return "exhale"
	default:
		return ""
	}
}

// ParseExcursionKind accepts "inhale"/"big_inhale" and "exhale"/"big_exhale"
func ParseExcursionKind(s string) (ExcursionKind, error) {
	switch s {
	case "inhale", "big_inhale":
		return ExcursionInhale, nil
	case "exhale", "big_exhale":
		return ExcursionExhale, nil
	default:
		return ExcursionNone, fmt.Errorf("unknown excursion kind %q", s)
	}
}

// Excursion is None, Inhale(step) or Exhale(step). The zero value is None.
type Excursion struct {
	kind ExcursionKind
	step int
}

// StartExcursion begins kind at step 0; it replaces whatever was active
func StartExcursion(kind ExcursionKind) Excursion {
	return Excursion{kind: kind}
}

func (e Excursion) Active() bool        { return e.kind != ExcursionNone }
func (e Excursion) Kind() ExcursionKind { return e.kind }
func (e Excursion) Step() int           { return e.step }

// BreathingRate computes one breathing-rate sample, advancing ex when active.
func BreathingRate(p BreathingProfile, in Inputs, ex *Excursion, r Rand) int {
	if ex != nil && ex.Active() {
		return clampInt(advanceExcursion(p, ex), p.Min, p.Max)
	}

	v := float64(p.Baseline) + math.Sin(in.millis()/p.PeriodMs)*p.Variation
	if in.Video {
		v += math.Cos(in.Position/p.VideoPeriod) * p.VideoAmplitude
	}
	v += symmetric(r, p.Jitter)
	return clampInt(int(math.Round(v)), p.Min, p.Max)
}

func advanceExcursion(p BreathingProfile, ex *Excursion) int {
	target := p.InhaleMax
	if ex.kind == ExcursionExhale {
		target = p.ExhaleMin
	}

	ex.step++
	step := ex.step
	if step >= p.Steps {
		step = p.Steps
		*ex = Excursion{}
	}

	v := float64(p.Baseline) + float64(target-p.Baseline)*float64(step)/float64(p.Steps)
	return int(math.Round(v))
}
