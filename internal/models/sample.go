package models

import "time"

// VitalSample a persisted row of vital_samples
type VitalSample struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     string    `json:"session_id" db:"session_id"`
	Seq           int64     `json:"seq" db:"seq"`
	HeartRate     int       `json:"heart_rate" db:"heart_rate"`
	BreathingRate int       `json:"breathing_rate" db:"breathing_rate"`
	HP            float64   `json:"hp" db:"hp"`
	Position      float64   `json:"position" db:"position"`
	RecordedAt    time.Time `json:"recorded_at" db:"recorded_at"`
}

// SampleFromReading maps a tick reading to its row
func SampleFromReading(r Reading) VitalSample {
	return VitalSample{
		SessionID:     r.SessionID,
		Seq:           r.Seq,
		HeartRate:     r.HeartRate,
		BreathingRate: r.BreathingRate,
		HP:            r.HP,
		Position:      r.Position,
		RecordedAt:    r.Timestamp,
	}
}
