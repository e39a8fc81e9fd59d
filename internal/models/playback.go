package models

// Playback event names as emitted by an HTML video element
const (
	PlaybackPlay       = "play"
	PlaybackPause      = "pause"
	PlaybackEnded      = "ended"
	PlaybackSeeked     = "seeked"
	PlaybackTimeUpdate = "timeupdate"
	PlaybackError      = "error"
)

// PlaybackState snapshot of the video element, replaced wholesale on every event
type PlaybackState struct {
	Playing  bool    `json:"playing"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

// Remaining seconds until the end, never negative
func (p PlaybackState) Remaining() float64 {
	if p.Duration <= p.Position {
		return 0
	}
	return p.Duration - p.Position
}

// PlaybackEvent a client-reported video state change
type PlaybackEvent struct {
	Event    string  `json:"event"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Message  string  `json:"message,omitempty"` // error detail for "error"
}

// ControlCommand a client-issued monitor command
type ControlCommand struct {
	Action string `json:"action"` // start, stop, clear, visibility, excursion
	Kind   string `json:"kind,omitempty"`
	Hidden *bool  `json:"hidden,omitempty"` // required for visibility
}
