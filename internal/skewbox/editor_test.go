package skewbox

import (
	"testing"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStart() SkewBox {
	return New(utils.Pt(10, 10), utils.Pt(190, 10), utils.Pt(10, 240), utils.Pt(190, 240))
}

func TestEditor_StartsUnedited(t *testing.T) {
	e := NewEditor(testStart(), DisplayHeightFor(300), 0)
	assert.Equal(t, Unedited, e.State())
	assert.Equal(t, testStart(), e.Box())
	assert.InDelta(t, DefaultTolerance, e.Tolerance(), 0)
	assert.Equal(t, NoCorner, e.Active())
}

func TestEditor_DragTopRightOnly(t *testing.T) {
	start := testStart()
	e := NewEditor(start, DisplayHeightFor(300), DefaultTolerance)

	// TR is shown at (95, 145).
	require.Equal(t, TopRight, e.Begin(utils.Pt(100, 140)))
	require.True(t, e.Move(utils.Pt(105, 142)))
	assert.Equal(t, Unedited, e.State(), "nothing committed before end")
	assert.Equal(t, start, e.Box())
	assert.Equal(t, utils.Pt(105, 142), e.Handles().TopRight)

	c, ok := e.End(utils.Pt(110, 140))
	require.True(t, ok)
	assert.Equal(t, TopRight, c)
	assert.Equal(t, Edited, e.State())

	got := e.Box()
	assert.Equal(t, utils.Pt(220, 20), got.TopRight)
	assert.Equal(t, start.TopLeft, got.TopLeft)
	assert.Equal(t, start.BottomLeft, got.BottomLeft)
	assert.Equal(t, start.BottomRight, got.BottomRight)
	assert.Equal(t, testStart(), e.Start(), "starting box untouched")
}

func TestEditor_EditsAccumulate(t *testing.T) {
	e := NewEditor(testStart(), DisplayHeightFor(300), DefaultTolerance)

	e.Begin(utils.Pt(95, 145))
	e.End(utils.Pt(96, 146))
	e.Begin(utils.Pt(5, 30)) // BL at (5, 30)
	e.Move(utils.Pt(0, 25))
	e.End(utils.Pt(0, 25))

	got := e.Box()
	assert.Equal(t, utils.Pt(192, 8), got.TopRight)
	assert.Equal(t, utils.Pt(0, 250), got.BottomLeft)
	assert.Equal(t, testStart().TopLeft, got.TopLeft)
}

func TestEditor_MissedGestureIsNoop(t *testing.T) {
	e := NewEditor(testStart(), DisplayHeightFor(300), DefaultTolerance)
	assert.Equal(t, NoCorner, e.Begin(utils.Pt(50, 80)))
	assert.False(t, e.Move(utils.Pt(60, 80)))
	_, ok := e.End(utils.Pt(60, 80))
	assert.False(t, ok)
	assert.Equal(t, Unedited, e.State())
}

func TestEditor_UndoAndReset(t *testing.T) {
	start := testStart()
	e := NewEditor(start, DisplayHeightFor(300), DefaultTolerance)

	e.Begin(utils.Pt(95, 145))
	e.End(utils.Pt(100, 145))
	first := e.Box()
	e.Begin(utils.Pt(5, 145))
	e.End(utils.Pt(0, 150))
	require.NotEqual(t, first, e.Box())

	assert.Equal(t, first, e.Undo())
	assert.Equal(t, Edited, e.State())
	assert.Equal(t, start, e.Undo())
	assert.Equal(t, Unedited, e.State())
	assert.Equal(t, start, e.Undo(), "undo on empty history is a no-op")

	e.Begin(utils.Pt(95, 145))
	e.End(utils.Pt(100, 145))
	assert.Equal(t, start, e.Reset())
	assert.Equal(t, Unedited, e.State())
}

func TestEditor_ConfirmAbandonsActiveDrag(t *testing.T) {
	e := NewEditor(testStart(), DisplayHeightFor(300), DefaultTolerance)
	e.Begin(utils.Pt(95, 145))
	e.Move(utils.Pt(120, 100))
	assert.Equal(t, testStart(), e.Confirm())
	assert.Equal(t, NoCorner, e.Active())
}

func TestEditor_Replay(t *testing.T) {
	e := NewEditor(testStart(), DisplayHeightFor(300), DefaultTolerance)
	err := e.Replay([]Event{
		{Phase: PhaseBegin, X: 95, Y: 25},
		{Phase: PhaseMove, X: 97, Y: 24},
		{Phase: PhaseEnd, X: 100, Y: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, utils.Pt(200, 260), e.Box().BottomRight)

	err = e.Replay([]Event{{Phase: "pinch"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 0")

	require.NoError(t, e.Apply(Event{Phase: PhaseUndo}))
	assert.Equal(t, Unedited, e.State())
	require.NoError(t, e.Apply(Event{Phase: PhaseReset}))
}
