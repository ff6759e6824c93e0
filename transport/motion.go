package transport

import (
	"math"
	"sort"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/tempo"
)

// RequestRoll starts playback. The metronome countin is armed with
// CountinBars bars at the tempo of the playhead; when recording, the playhead
// first moves back PrerollBars bars (not before 0) and the preroll is armed
// with the length of the skipped span.
func (t *Transport) RequestRoll() {
	if t.PlayState() == zrythm.Rolling {
		return
	}
	pos := t.PositionTicks()
	t.countin.Store(t.barsToSamples(pos, t.cfg.CountinBars))
	t.preroll.Store(0)
	if t.RecordingEnabled() && t.cfg.PrerollBars > 0 {
		start := max(pos-float64(t.cfg.PrerollBars)*t.barTicks(pos), 0)
		t.preroll.Store(zrythm.RoundSamples(t.m.TickToSamples(pos) - t.m.TickToSamples(start)))
		t.movePlayhead(start)
	}
	t.setPlayState(zrythm.Rolling)
}

// RequestPause stops playback and remembers where it stopped. With
// ReturnToCueOnPause set, the playhead then moves to the cue point.
func (t *Transport) RequestPause() {
	if t.PlayState() != zrythm.Rolling {
		return
	}
	pos := t.PositionTicks()
	t.setPlayState(zrythm.Paused)
	t.positionBeforePause.SetTicks(pos)
	t.countin.Store(0)
	t.preroll.Store(0)
	if t.cfg.ReturnToCueOnPause {
		t.movePlayhead(t.CuePosition())
	}
}

// MoveBackward moves the playhead to the previous snap point. While rolling,
// a repeated jump within RepeatedBackwardWindow of the last one goes to the
// same point again instead of the one before it.
func (t *Transport) MoveBackward() {
	if t.Exporting() {
		return
	}
	target, ok := t.grid.PrevSnapPoint(t.PositionTicks())
	if !ok {
		target = 0
	}
	t.jumpBackward(&t.gridJump, target)
}

// MoveForward moves the playhead to the next snap point.
func (t *Transport) MoveForward() {
	if t.Exporting() {
		return
	}
	if target, ok := t.grid.NextSnapPoint(t.PositionTicks()); ok {
		t.movePlayhead(target)
	}
}

// MovePlayhead seeks to ticks, also moving the cue point if setCue is true.
func (t *Transport) MovePlayhead(ticks float64, setCue bool) error {
	if t.Exporting() {
		t.alert("Cannot move the playhead while exporting")
		return ErrExporting
	}
	ticks = max(ticks, 0)
	t.movePlayhead(ticks)
	if setCue {
		t.cue.SetTicks(ticks)
		t.send(Event{Kind: EventCue, Ticks: ticks})
	}
	return nil
}

// GotoPrevOrNextMarker jumps to the closest marker before or after the
// playhead. The markers are the cue point, the loop range, tick 0 and extra.
// Backward jumps are debounced like MoveBackward.
func (t *Transport) GotoPrevOrNextMarker(prev bool, extra []float64) {
	if t.Exporting() {
		return
	}
	loopStart, loopEnd := t.LoopRange()
	markers := append([]float64{t.CuePosition(), loopStart, loopEnd, 0}, extra...)
	sort.Float64s(markers)
	pos := t.PositionTicks()
	if prev {
		i := sort.Search(len(markers), func(i int) bool { return markers[i] >= pos }) - 1
		if i < 0 {
			return
		}
		t.jumpBackward(&t.markerJump, markers[i])
		return
	}
	i := sort.Search(len(markers), func(i int) bool { return markers[i] > pos })
	if i < len(markers) {
		t.movePlayhead(markers[i])
	}
}

// movePlayhead seeks and forgets the previous backward jumps, so the next
// backward jump starts from the new position.
func (t *Transport) movePlayhead(ticks float64) {
	t.gridJump, t.markerJump = backwardJump{}, backwardJump{}
	t.playhead.SetPositionTicks(ticks)
	t.send(Event{Kind: EventPlayhead, Ticks: ticks})
}

// jumpBackward moves the playhead to target. While rolling, a jump within
// RepeatedBackwardWindow of the last undebounced jump of the same kind goes
// to that jump's target again. Any other move in between resets this.
func (t *Transport) jumpBackward(last *backwardJump, target float64) {
	now := t.clock()
	j := backwardJump{at: now, target: target}
	if t.PlayState() == zrythm.Rolling && !last.at.IsZero() && now.Sub(last.at) < RepeatedBackwardWindow {
		j = *last
	}
	t.movePlayhead(j.target)
	*last = j
}

func (t *Transport) barTicks(ticks float64) float64 {
	return float64(t.m.TimeSignatureAtTick(int64(math.Floor(ticks))).BarTicks())
}

func (t *Transport) barsToSamples(ticks float64, bars int) int64 {
	if bars <= 0 {
		return 0
	}
	seconds := float64(bars) * t.barTicks(ticks) / tempo.PPQ * 60 / t.m.TempoAtTick(ticks)
	return zrythm.RoundSamples(t.m.SecondsToSamples(seconds))
}
