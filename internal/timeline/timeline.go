// Package timeline holds the scripted one-shot events keyed by video
// position and the cursor that applies them as playback moves.
package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidTimeline an event list fails validation
var ErrInvalidTimeline = errors.New("invalid timeline")

// Kind of a scripted event
type Kind string

const (
	KindBigInhale    Kind = "big_inhale"
	KindBigExhale    Kind = "big_exhale"
	KindHPSet        Kind = "hp_set"
	KindMessage      Kind = "message"
	KindNotification Kind = "notification"
)

func (k Kind) valid() bool {
	switch k {
	case KindBigInhale, KindBigExhale, KindHPSet, KindMessage, KindNotification:
		return true
	}
	return false
}

// Event fires once when playback crosses At (seconds)
type Event struct {
	At    float64 `yaml:"at" json:"at"`
	Kind  Kind    `yaml:"kind" json:"kind"`
	Value float64 `yaml:"value,omitempty" json:"value,omitempty"`
	Text  string  `yaml:"text,omitempty" json:"text,omitempty"`
}

// Timeline an immutable list of events ordered by At. Events sharing a
// trigger keep their declaration order.
type Timeline struct {
	events []Event
}

// New validates and sorts events. maxHP bounds hp_set values; <= 0 skips that check.
func New(events []Event, maxHP float64) (*Timeline, error) {
	sorted := make([]Event, len(events))
	copy(sorted, events)

	for i, e := range sorted {
		if math.IsNaN(e.At) || math.IsInf(e.At, 0) || e.At < 0 {
			return nil, fmt.Errorf("%w: event %d has trigger %v", ErrInvalidTimeline, i, e.At)
		}
		if !e.Kind.valid() {
			return nil, fmt.Errorf("%w: event %d has unknown kind %q", ErrInvalidTimeline, i, e.Kind)
		}
		if e.Kind == KindHPSet && maxHP > 0 && (e.Value < 0 || e.Value > maxHP) {
			return nil, fmt.Errorf("%w: event %d sets hp %v outside [0, %v]", ErrInvalidTimeline, i, e.Value, maxHP)
		}
		if (e.Kind == KindMessage || e.Kind == KindNotification) && e.Text == "" {
			return nil, fmt.Errorf("%w: event %d (%s) has no text", ErrInvalidTimeline, i, e.Kind)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Timeline{events: sorted}, nil
}

// Empty returns a timeline with no events
func Empty() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Len() int { return len(t.events) }

// Events returns a copy of the ordered events
func (t *Timeline) Events() []Event {
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// State what the timeline says should be in effect at a position
type State struct {
	// Cursor is the number of events whose trigger is <= position
	Cursor int
	// HP is the latest hp_set value at or before position, nil when none applies
	HP *float64
	// Revealed message events at or before position
	Revealed []Event
}

// Resolve derives the state purely from position and the static event list.
func (t *Timeline) Resolve(position float64) State {
	if position < 0 || math.IsNaN(position) {
		position = 0
	}

	cursor := sort.Search(len(t.events), func(i int) bool {
		return t.events[i].At > position
	})

	st := State{Cursor: cursor, Revealed: []Event{}}
	for _, e := range t.events[:cursor] {
		switch e.Kind {
		case KindHPSet:
			v := e.Value
			st.HP = &v
		case KindMessage:
			st.Revealed = append(st.Revealed, e)
		}
	}
	return st
}
