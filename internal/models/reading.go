package models

import "time"

// Reading one tick's output, the payload every sink publishes
type Reading struct {
	SessionID     string    `json:"session_id"`
	Seq           int64     `json:"seq"`
	HeartRate     int       `json:"heart_rate"`
	HeartSource   string    `json:"heart_source"` // "simulated" or "pulse"
	BreathingRate int       `json:"breathing_rate"`
	HP            float64   `json:"hp"`
	Hearts        int       `json:"hearts"`
	Label         string    `json:"label"` // HH:MM:SS
	Timestamp     time.Time `json:"timestamp"`
	Position      float64   `json:"position"`
	Remaining     float64   `json:"remaining"` // countdown until the video ends
	Status        string    `json:"status"`
	Excursion     string    `json:"excursion,omitempty"`
}

// ParamMessage compact per-tick message for NATS subscribers
type ParamMessage struct {
	Subject string  `json:"subject"`
	Ts      int64   `json:"ts"`
	HR      int     `json:"hr"`
	RR      int     `json:"rr"`
	HP      float64 `json:"hp"`
}

// NewParamMessage projects a reading onto subject
func NewParamMessage(subject string, r Reading) ParamMessage {
	return ParamMessage{
		Subject: subject,
		Ts:      r.Timestamp.UnixMilli(),
		HR:      r.HeartRate,
		RR:      r.BreathingRate,
		HP:      r.HP,
	}
}
