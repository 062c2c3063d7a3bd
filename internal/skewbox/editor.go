package skewbox

import (
	"fmt"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// State of an editing session.
type State int

const (
	// Unedited means only the starting box exists.
	Unedited State = iota
	// Edited means at least one corner has been overridden.
	Edited
)

func (s State) String() string {
	if s == Edited {
		return "edited"
	}
	return "unedited"
}

// Phase is the gesture phase carried by an Event.
type Phase string

// Gesture phases, plus the session commands a script may issue.
const (
	PhaseBegin Phase = "begin"
	PhaseMove  Phase = "move"
	PhaseEnd   Phase = "end"
	PhaseUndo  Phase = "undo"
	PhaseReset Phase = "reset"
)

// Event is one input from the pointer collaborator, in display space.
type Event struct {
	Phase Phase   `json:"phase" yaml:"phase"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
}

// Point returns the event position.
func (e Event) Point() utils.Point { return utils.Pt(e.X, e.Y) }

// Editor is a single corner-adjustment session. The starting box is never
// modified; the edited box is materialized on the first committed drag and
// accumulates every later edit. An Editor is not safe for concurrent use.
type Editor struct {
	start         SkewBox
	edited        *SkewBox
	history       []*SkewBox
	displayHeight float64
	tolerance     float64

	active Corner
	handle utils.Point
}

// NewEditor starts a session over start, shown on a display surface of the
// given height. A non-positive tolerance selects DefaultTolerance.
func NewEditor(start SkewBox, displayHeight, tolerance float64) *Editor {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Editor{
		start:         start,
		displayHeight: displayHeight,
		tolerance:     tolerance,
		active:        NoCorner,
	}
}

// Start returns the starting box.
func (e *Editor) Start() SkewBox { return e.start }

// Box returns the effective box: the edited box once it exists, otherwise
// the starting box.
func (e *Editor) Box() SkewBox {
	if e.edited != nil {
		return *e.edited
	}
	return e.start
}

// State reports whether any corner has been committed.
func (e *Editor) State() State {
	if e.edited != nil {
		return Edited
	}
	return Unedited
}

// Active returns the corner being dragged, or NoCorner.
func (e *Editor) Active() Corner { return e.active }

// Tolerance returns the hit-zone half-width in display units.
func (e *Editor) Tolerance() float64 { return e.tolerance }

// DisplayHeight returns the display surface height the session maps against.
func (e *Editor) DisplayHeight() float64 { return e.displayHeight }

// Handles returns the handle positions in display space, including the
// uncommitted position of a handle that is being dragged.
func (e *Editor) Handles() SkewBox {
	h := BoxToDisplay(e.Box(), e.displayHeight)
	if e.active != NoCorner {
		h = h.WithCorner(e.active, e.handle)
	}
	return h
}

// Begin selects the handle under p, if any, and returns it.
func (e *Editor) Begin(p utils.Point) Corner {
	handles := BoxToDisplay(e.Box(), e.displayHeight)
	e.active = HitTest(p, handles, e.tolerance)
	if e.active != NoCorner {
		e.handle = handles.Corner(e.active)
	}
	return e.active
}

// Move drags the active handle to p. It reports false when no handle is
// active.
func (e *Editor) Move(p utils.Point) bool {
	if e.active == NoCorner {
		return false
	}
	e.handle = p
	return true
}

// End drops the active handle at p and commits it to the edited box,
// overwriting only that corner. It returns the committed corner, or false
// when the gesture started outside every hit-zone.
func (e *Editor) End(p utils.Point) (Corner, bool) {
	c := e.active
	if c == NoCorner {
		return NoCorner, false
	}
	e.handle = p
	e.active = NoCorner

	e.history = append(e.history, e.edited)
	next := e.Box().WithCorner(c, DisplayToImage(e.handle, e.displayHeight))
	e.edited = &next
	return c, true
}

// Undo reverts the most recent committed edit and returns the effective box.
// Undoing the first edit returns the session to Unedited.
func (e *Editor) Undo() SkewBox {
	e.active = NoCorner
	if n := len(e.history); n > 0 {
		e.edited = e.history[n-1]
		e.history = e.history[:n-1]
	}
	return e.Box()
}

// Reset discards every edit and returns the starting box.
func (e *Editor) Reset() SkewBox {
	e.active = NoCorner
	e.edited = nil
	e.history = nil
	return e.start
}

// Confirm ends the interaction and hands back the effective box by value.
// A drag still in progress is abandoned.
func (e *Editor) Confirm() SkewBox {
	e.active = NoCorner
	return e.Box()
}

// Apply dispatches ev to the matching editor operation.
func (e *Editor) Apply(ev Event) error {
	switch ev.Phase {
	case PhaseBegin:
		e.Begin(ev.Point())
	case PhaseMove:
		e.Move(ev.Point())
	case PhaseEnd:
		e.End(ev.Point())
	case PhaseUndo:
		e.Undo()
	case PhaseReset:
		e.Reset()
	default:
		return fmt.Errorf("unknown event phase %q", ev.Phase)
	}
	return nil
}

// Replay applies events in order, stopping at the first invalid one.
func (e *Editor) Replay(events []Event) error {
	for i, ev := range events {
		if err := e.Apply(ev); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}
