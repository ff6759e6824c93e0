package transport

import (
	"fmt"
	"math"
)

// SetLoopRange moves the loop start (if start is true) or the loop end to
// pos. With snap, pos is snapped to the grid; startPos is where the drag
// began. The loop end must stay after the loop start; otherwise nothing
// changes and ErrInvalidRange is returned.
func (t *Transport) SetLoopRange(start bool, startPos, pos float64, snap bool) error {
	if err := checkFinite(pos); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	if snap {
		pos = t.grid.Snap(pos, startPos)
	}
	pos = max(pos, 0)
	s, e := t.LoopRange()
	if err := setRange(start, s, e, pos, t.loopStart.SetTicks, t.loopEnd.SetTicks); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	t.send(Event{Kind: EventLoopRange, Ticks: pos})
	return nil
}

// SetPunchRange moves the punch in (if in is true) or the punch out point.
// The punch out point must stay after the punch in point.
func (t *Transport) SetPunchRange(in bool, pos float64, snap bool) error {
	if err := checkFinite(pos); err != nil {
		return fmt.Errorf("punch: %w", err)
	}
	if snap {
		pos = t.grid.Snap(pos, pos)
	}
	pos = max(pos, 0)
	i, o := t.PunchRange()
	if err := setRange(in, i, o, pos, t.punchIn.SetTicks, t.punchOut.SetTicks); err != nil {
		return fmt.Errorf("punch: %w", err)
	}
	t.send(Event{Kind: EventPunchRange, Ticks: pos})
	return nil
}

func checkFinite(pos float64) error {
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return fmt.Errorf("%w: position %v", ErrInvalidRange, pos)
	}
	return nil
}

func setRange(first bool, start, end, pos float64, setStart, setEnd func(float64)) error {
	if first {
		if pos >= end {
			return fmt.Errorf("%w: start %v, end %v", ErrInvalidRange, pos, end)
		}
		setStart(pos)
		return nil
	}
	if pos <= start {
		return fmt.Errorf("%w: start %v, end %v", ErrInvalidRange, start, pos)
	}
	setEnd(pos)
	return nil
}
