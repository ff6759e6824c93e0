package tempo

import "fmt"

// MusicalPosition is a position in bars and beats. Bar, Beat and Sixteenth
// count from 1, Tick counts from 0 within the sixteenth.
type MusicalPosition struct {
	Bar       int `json:"bar" yaml:"bar"`
	Beat      int `json:"beat" yaml:"beat"`
	Sixteenth int `json:"sixteenth" yaml:"sixteenth"`
	Tick      int `json:"tick" yaml:"tick"`
}

const sixteenthTicks = PPQ / 4

func (p MusicalPosition) String() string {
	return fmt.Sprintf("%d.%d.%d.%03d", p.Bar, p.Beat, p.Sixteenth, p.Tick)
}

// BeatTicks returns the length of one beat of the time signature in ticks.
func (t TimeSignature) BeatTicks() int64 {
	return int64(PPQ) * 4 / int64(t.Denominator)
}

// BarTicks returns the length of one bar of the time signature in ticks.
func (t TimeSignature) BarTicks() int64 {
	return t.BeatTicks() * int64(t.Numerator)
}

// meterIter walks the time signature segments from tick 0, counting bars. A
// time signature change always starts a new bar, so an incomplete bar before
// a change is counted as a whole bar.
type meterIter struct {
	m     *Map
	next  int           // index of the next time signature event
	sig   TimeSignature // the time signature of the current segment
	start int64         // first tick of the current segment
	bar   int           // bar number at start
}

func (m *Map) meterIter() meterIter {
	it := meterIter{m: m, sig: TimeSignature{Numerator: DefaultNumerator, Denominator: DefaultDenominator}, bar: 1}
	if len(m.timeSigs) > 0 && m.timeSigs[0].Tick == 0 {
		it.sig = m.timeSigs[0]
		it.next = 1
	}
	return it
}

// nextStart returns the first tick of the next segment, and false if the
// current segment is the last one.
func (it *meterIter) nextStart() (int64, bool) {
	if it.next >= len(it.m.timeSigs) {
		return 0, false
	}
	return it.m.timeSigs[it.next].Tick, true
}

// barsInSegment returns the number of bars in the current segment, which
// must not be the last one.
func (it *meterIter) barsInSegment(end int64) int {
	barTicks := it.sig.BarTicks()
	return int((end - it.start + barTicks - 1) / barTicks)
}

func (it *meterIter) advance(end int64) {
	it.bar += it.barsInSegment(end)
	it.start = end
	it.sig = it.m.timeSigs[it.next]
	it.next++
}

// TickToMusicalPosition returns the bar, beat, sixteenth and tick of tick.
// Negative ticks are treated as 0.
func (m *Map) TickToMusicalPosition(tick int64) MusicalPosition {
	if tick < 0 {
		tick = 0
	}
	it := m.meterIter()
	for {
		end, ok := it.nextStart()
		if !ok || end > tick {
			break
		}
		it.advance(end)
	}
	beatTicks := it.sig.BeatTicks()
	barTicks := it.sig.BarTicks()
	rel := tick - it.start
	pos := MusicalPosition{Bar: it.bar + int(rel/barTicks)}
	rel %= barTicks
	pos.Beat = int(rel/beatTicks) + 1
	rel %= beatTicks
	pos.Sixteenth = int(rel/sixteenthTicks) + 1
	pos.Tick = int(rel % sixteenthTicks)
	return pos
}

// MusicalPositionToTick is the inverse of TickToMusicalPosition. Components
// below their minimum are clamped to it; beats, sixteenths and ticks beyond
// their bar simply carry over.
func (m *Map) MusicalPositionToTick(pos MusicalPosition) int64 {
	pos.Bar = max(pos.Bar, 1)
	pos.Beat = max(pos.Beat, 1)
	pos.Sixteenth = max(pos.Sixteenth, 1)
	pos.Tick = max(pos.Tick, 0)
	it := m.meterIter()
	for {
		end, ok := it.nextStart()
		if !ok || it.bar+it.barsInSegment(end) > pos.Bar {
			break
		}
		it.advance(end)
	}
	return it.start +
		int64(pos.Bar-it.bar)*it.sig.BarTicks() +
		int64(pos.Beat-1)*it.sig.BeatTicks() +
		int64(pos.Sixteenth-1)*sixteenthTicks +
		int64(pos.Tick)
}

// BarStartTick returns the first tick of the bar containing tick.
func (m *Map) BarStartTick(tick int64) int64 {
	p := m.TickToMusicalPosition(tick)
	return m.MusicalPositionToTick(MusicalPosition{Bar: p.Bar, Beat: 1, Sixteenth: 1})
}
