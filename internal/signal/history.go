package signal

import "time"

// DefaultMaxDataPoints chart window length
const DefaultMaxDataPoints = 30

// Sample one entry across the three buffers
type Sample struct {
	HeartRate     int
	BreathingRate int
	Label         string
}

// Series a copy of the buffers in chronological order
type Series struct {
	HeartRate     []int    `json:"heart_rate"`
	BreathingRate []int    `json:"breathing_rate"`
	Labels        []string `json:"labels"`
}

// History three parallel FIFO buffers of equal length. Not safe for concurrent use.
type History struct {
	maxLen int
	heart  []int
	breath []int
	labels []string
}

// NewHistory maxLen <= 0 falls back to DefaultMaxDataPoints
func NewHistory(maxLen int) *History {
	if maxLen <= 0 {
		maxLen = DefaultMaxDataPoints
	}
	return &History{
		maxLen: maxLen,
		heart:  make([]int, 0, maxLen+1),
		breath: make([]int, 0, maxLen+1),
		labels: make([]string, 0, maxLen+1),
	}
}

// Label formats t as HH:MM:SS
func Label(t time.Time) string {
	return t.Format("15:04:05")
}

// Push appends s, evicting the oldest entry from all buffers when over capacity
func (h *History) Push(s Sample) {
	h.heart = append(h.heart, s.HeartRate)
	h.breath = append(h.breath, s.BreathingRate)
	h.labels = append(h.labels, s.Label)
	h.trim()
}

// SetMaxLen changes the window; shrinking drops the oldest entries
func (h *History) SetMaxLen(n int) {
	if n <= 0 {
		return
	}
	h.maxLen = n
	h.trim()
}

func (h *History) trim() {
	if over := len(h.heart) - h.maxLen; over > 0 {
		h.heart = append(h.heart[:0], h.heart[over:]...)
		h.breath = append(h.breath[:0], h.breath[over:]...)
		h.labels = append(h.labels[:0], h.labels[over:]...)
	}
}

func (h *History) Len() int    { return len(h.heart) }
func (h *History) MaxLen() int { return h.maxLen }

// Clear empties all buffers
func (h *History) Clear() {
	h.heart = h.heart[:0]
	h.breath = h.breath[:0]
	h.labels = h.labels[:0]
}

// Snapshot copies the buffers
func (h *History) Snapshot() Series {
	return Series{
		HeartRate:     append(make([]int, 0, len(h.heart)), h.heart...),
		BreathingRate: append(make([]int, 0, len(h.breath)), h.breath...),
		Labels:        append(make([]string, 0, len(h.labels)), h.labels...),
	}
}
