package tempo

import (
	"math"
	"sort"
)

// TickToSeconds returns the absolute time of tick. Linear ramps are
// integrated in closed form:
//
//	seconds(x) = 60 / (PPQ*k) * ln(1 + k*x/bpm0),  k = Δbpm / Δticks
func (m *Map) TickToSeconds(tick float64) float64 {
	if len(m.events) == 0 || tick < float64(m.events[0].Tick) {
		return tick / PPQ * 60 / m.leadBPM()
	}
	i := m.segmentAtTick(tick)
	return m.cumulative[i] + m.segmentSeconds(i, tick-float64(m.events[i].Tick))
}

// SecondsToTick is the inverse of TickToSeconds.
func (m *Map) SecondsToTick(seconds float64) float64 {
	if len(m.events) == 0 || seconds < m.cumulative[0] {
		return seconds / 60 * m.leadBPM() * PPQ
	}
	i := sort.Search(len(m.cumulative), func(i int) bool { return m.cumulative[i] > seconds }) - 1
	return float64(m.events[i].Tick) + m.segmentTicks(i, seconds-m.cumulative[i])
}

// TickToSamples returns the fractional sample position of tick. Use
// zrythm.RoundSamples when a whole frame is needed.
func (m *Map) TickToSamples(tick float64) float64 {
	return m.TickToSeconds(tick) * m.SampleRate()
}

func (m *Map) SamplesToTick(samples float64) float64 {
	return m.SecondsToTick(samples / m.SampleRate())
}

// SecondsToSamples and SamplesToSeconds only involve the sample rate.
func (m *Map) SecondsToSamples(seconds float64) float64 { return seconds * m.SampleRate() }
func (m *Map) SamplesToSeconds(samples float64) float64 { return samples / m.SampleRate() }

// segmentAtTick returns the index of the last tempo event at or before tick.
// The caller guarantees tick >= events[0].Tick.
func (m *Map) segmentAtTick(tick float64) int {
	return sort.Search(len(m.events), func(i int) bool { return float64(m.events[i].Tick) > tick }) - 1
}

// leadBPM is the tempo before the first event: the default tempo, or the
// first event's tempo for negative ticks when that event sits at tick 0.
func (m *Map) leadBPM() float64 {
	if len(m.events) > 0 && m.events[0].Tick == 0 {
		return m.events[0].BPM
	}
	return DefaultBPM
}

// rampSlope returns the BPM change per tick of segment i, and false if the
// segment is to be treated as constant tempo.
func (m *Map) rampSlope(i int) (float64, bool) {
	e := m.events[i]
	if e.Curve != Linear || i+1 >= len(m.events) {
		return 0, false
	}
	next := m.events[i+1]
	delta := next.BPM - e.BPM
	if math.Abs(delta) < linearEpsilon {
		return 0, false
	}
	return delta / float64(next.Tick-e.Tick), true
}

// segmentSeconds returns the time it takes to play ticks starting from tempo
// event i.
func (m *Map) segmentSeconds(i int, ticks float64) float64 {
	bpm := m.events[i].BPM
	if k, ok := m.rampSlope(i); ok {
		return 60 / (PPQ * k) * math.Log1p(k*ticks/bpm)
	}
	return ticks / PPQ * 60 / bpm
}

// segmentTicks returns how many ticks are played in seconds starting from
// tempo event i.
func (m *Map) segmentTicks(i int, seconds float64) float64 {
	bpm := m.events[i].BPM
	if k, ok := m.rampSlope(i); ok {
		return bpm * math.Expm1(seconds*PPQ*k/60) / k
	}
	return seconds / 60 * bpm * PPQ
}
