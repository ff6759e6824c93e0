package transport

import (
	"math"

	"github.com/zrythm/zrythm-sub015/tempo"
)

type (
	// SnapGrid provides the points the playhead and the range markers snap
	// to. Positions are in ticks.
	SnapGrid interface {
		// PrevSnapPoint returns the last point strictly before ticks, or false
		// if there is none.
		PrevSnapPoint(ticks float64) (float64, bool)
		// NextSnapPoint returns the first point strictly after ticks.
		NextSnapPoint(ticks float64) (float64, bool)
		// Snap returns the point closest to ticks. start is where the drag
		// began, for grids that keep the offset of the dragged object.
		Snap(ticks, start float64) float64
	}

	// Grid divides every beat of the tempo map into Division equal steps.
	// The grid restarts on every bar, so it follows time signature changes.
	Grid struct {
		Map      *tempo.Map
		Division int
		// KeepOffset keeps the distance between the drag start and its grid
		// point when snapping.
		KeepOffset bool
	}
)

// snapEpsilon is the distance in ticks under which a position is considered
// to be on a grid point.
const snapEpsilon = 1e-6

func (g *Grid) step(bar float64) float64 {
	ts := g.Map.TimeSignatureAtTick(int64(bar))
	return float64(ts.BeatTicks()) / float64(max(g.Division, 1))
}

func (g *Grid) barStart(ticks float64) float64 {
	return float64(g.Map.BarStartTick(int64(math.Floor(ticks + snapEpsilon))))
}

// floor returns the last grid point at or before ticks.
func (g *Grid) floor(ticks float64) float64 {
	bar := g.barStart(ticks)
	step := g.step(bar)
	return bar + math.Floor((ticks-bar+snapEpsilon)/step)*step
}

func (g *Grid) PrevSnapPoint(ticks float64) (float64, bool) {
	if ticks <= snapEpsilon {
		return 0, false
	}
	p := g.floor(ticks)
	if p < ticks-snapEpsilon {
		return p, true
	}
	bar := g.barStart(ticks)
	if p > bar {
		return p - g.step(bar), true
	}
	// last point of the previous bar, which may be a partial one
	prev := g.barStart(bar - 1)
	step := g.step(prev)
	return prev + (math.Ceil((bar-prev)/step)-1)*step, true
}

func (g *Grid) NextSnapPoint(ticks float64) (float64, bool) {
	ticks = max(ticks, 0)
	bar := g.barStart(ticks)
	step := g.step(bar)
	p := bar + (math.Floor((ticks-bar+snapEpsilon)/step)+1)*step
	// a meter change starts a new bar before the step ends
	if b := g.barStart(p); b > ticks+snapEpsilon && b < p {
		p = b
	}
	return p, true
}

func (g *Grid) Snap(ticks, start float64) float64 {
	offset := 0.0
	if g.KeepOffset {
		offset = start - g.floor(max(start, 0))
	}
	t := max(ticks-offset, 0)
	p := g.floor(t)
	if n, ok := g.NextSnapPoint(t); ok && n-t < t-p {
		p = n
	}
	return p + offset
}
