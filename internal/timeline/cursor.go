package timeline

// Transition the effect of moving the cursor to a new position
type Transition struct {
	From float64
	To   float64
	// Fired events crossed moving forward, in trigger order
	Fired []Event
	// Rewound events crossed moving backward; they fire again when crossed forward
	Rewound []Event
	// State at To; on a backward move State.HP is the set-point to re-apply
	State State
}

// Backward reports whether the move un-fired events
func (t Transition) Backward() bool {
	return len(t.Rewound) > 0
}

// Cursor tracks which events have fired for a playback session.
type Cursor struct {
	tl       *Timeline
	next     int
	position float64
}

func NewCursor(tl *Timeline) *Cursor {
	if tl == nil {
		tl = Empty()
	}
	return &Cursor{tl: tl}
}

// Advance moves to position. Forward and backward moves both derive the new
// cursor from Resolve, so repeating a position yields an empty transition.
func (c *Cursor) Advance(position float64) Transition {
	st := c.tl.Resolve(position)
	tr := Transition{From: c.position, To: position, State: st}

	switch {
	case st.Cursor > c.next:
		tr.Fired = append([]Event(nil), c.tl.events[c.next:st.Cursor]...)
	case st.Cursor < c.next:
		tr.Rewound = append([]Event(nil), c.tl.events[st.Cursor:c.next]...)
	}

	c.next = st.Cursor
	c.position = position
	return tr
}

// Fired the number of events currently marked fired
func (c *Cursor) Fired() int { return c.next }

// Reset un-fires everything
func (c *Cursor) Reset() {
	c.next = 0
	c.position = 0
}
