// Package tempo converts positions between musical time (ticks) and absolute
// time (seconds and samples). A Map holds a piecewise timeline of tempo
// events, which may be constant or ramp linearly to the next event, and of
// time signature events, which are used to convert ticks to bars and beats.
//
// A Map is read-mostly: conversions never fail and do not allocate, but
// mutations must not run concurrently with readers. The caller serializes
// them, for example by editing the map only while the transport is paused.
package tempo

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

type (
	// Curve tells how the tempo moves from one tempo event to the next.
	Curve int

	// Event is a tempo change at Tick. With a Linear curve, the tempo ramps
	// linearly (in BPM over ticks) towards the next event; the last event is
	// always treated as constant.
	Event struct {
		Tick  int64   `json:"tick" yaml:"tick"`
		BPM   float64 `json:"bpm" yaml:"bpm"`
		Curve Curve   `json:"curve" yaml:"curve"`
	}

	// TimeSignature is a meter change at Tick. Numerator counts beats per bar
	// and Denominator is the note value of one beat.
	TimeSignature struct {
		Tick        int64 `json:"tick" yaml:"tick"`
		Numerator   int   `json:"numerator" yaml:"numerator"`
		Denominator int   `json:"denominator" yaml:"denominator"`
	}

	// Map is the tempo and time signature timeline of a project. The zero
	// value is an empty map at DefaultSampleRate.
	Map struct {
		events     []Event
		timeSigs   []TimeSignature
		cumulative []float64 // seconds elapsed at each tempo event
		sampleRate float64
	}
)

const (
	Constant Curve = iota
	Linear
)

const (
	// PPQ is the number of ticks per quarter note.
	PPQ = 960

	DefaultBPM         = 120.0
	DefaultNumerator   = 4
	DefaultDenominator = 4
	DefaultSampleRate  = 44100.0

	// below this BPM difference a linear ramp is computed as constant tempo
	linearEpsilon = 1e-5
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOrdering is returned when time signature events are edited after
	// tempo events have been added.
	ErrOrdering = errors.New("time signature events must be added before tempo events")
	ErrNotFound = errors.New("no event at tick")
)

// NewMap returns an empty map. Without events, the map behaves as 120 BPM in
// 4/4.
func NewMap(sampleRate float64) *Map {
	m := &Map{}
	if err := m.SetSampleRate(sampleRate); err != nil {
		m.sampleRate = DefaultSampleRate
	}
	return m
}

func (c Curve) String() string {
	switch c {
	case Constant:
		return "Constant"
	case Linear:
		return "Linear"
	}
	return fmt.Sprintf("Curve(%d)", int(c))
}

func (c Curve) MarshalText() ([]byte, error) {
	if c != Constant && c != Linear {
		return nil, fmt.Errorf("%w: unknown curve %d", ErrInvalidArgument, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Curve) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Constant":
		*c = Constant
	case "Linear":
		*c = Linear
	default:
		return fmt.Errorf("%w: unknown curve %q", ErrInvalidArgument, text)
	}
	return nil
}

// PPQ returns the number of ticks per quarter note.
func (m *Map) PPQ() int { return PPQ }

func (m *Map) SampleRate() float64 {
	if m.sampleRate <= 0 {
		return DefaultSampleRate
	}
	return m.sampleRate
}

func (m *Map) SetSampleRate(sampleRate float64) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidArgument, sampleRate)
	}
	m.sampleRate = sampleRate
	return nil
}

// TempoEvents returns a copy of the tempo events, sorted by tick.
func (m *Map) TempoEvents() []Event {
	return append([]Event(nil), m.events...)
}

// TimeSignatureEvents returns a copy of the time signature events, sorted by
// tick.
func (m *Map) TimeSignatureEvents() []TimeSignature {
	return append([]TimeSignature(nil), m.timeSigs...)
}

// AddTempoEvent adds a tempo change, replacing any event at the same tick.
func (m *Map) AddTempoEvent(tick int64, bpm float64, curve Curve) error {
	if tick < 0 {
		return fmt.Errorf("%w: tempo event tick must not be negative, got %d", ErrInvalidArgument, tick)
	}
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		return fmt.Errorf("%w: bpm must be positive, got %v", ErrInvalidArgument, bpm)
	}
	if curve != Constant && curve != Linear {
		return fmt.Errorf("%w: unknown curve %d", ErrInvalidArgument, int(curve))
	}
	e := Event{Tick: tick, BPM: bpm, Curve: curve}
	i := sort.Search(len(m.events), func(i int) bool { return m.events[i].Tick >= tick })
	if i < len(m.events) && m.events[i].Tick == tick {
		m.events[i] = e
	} else {
		m.events = append(m.events, Event{})
		copy(m.events[i+1:], m.events[i:])
		m.events[i] = e
	}
	m.rebuild()
	return nil
}

// RemoveTempoEvent removes the tempo event at tick. The event at tick 0 can
// only be removed when it is the last one.
func (m *Map) RemoveTempoEvent(tick int64) error {
	i := sort.Search(len(m.events), func(i int) bool { return m.events[i].Tick >= tick })
	if i == len(m.events) || m.events[i].Tick != tick {
		return fmt.Errorf("%w: tempo event at %d", ErrNotFound, tick)
	}
	if tick == 0 && len(m.events) > 1 {
		return fmt.Errorf("%w: cannot remove the tempo event at tick 0 while others remain", ErrInvalidArgument)
	}
	m.events = append(m.events[:i], m.events[i+1:]...)
	m.rebuild()
	return nil
}

// AddTimeSignatureEvent adds a meter change, replacing any event at the same
// tick. It fails with ErrOrdering once tempo events exist.
func (m *Map) AddTimeSignatureEvent(tick int64, numerator, denominator int) error {
	if tick < 0 {
		return fmt.Errorf("%w: time signature tick must not be negative, got %d", ErrInvalidArgument, tick)
	}
	if numerator <= 0 || denominator <= 0 {
		return fmt.Errorf("%w: time signature must be positive, got %d/%d", ErrInvalidArgument, numerator, denominator)
	}
	if denominator > 4*PPQ {
		return fmt.Errorf("%w: denominator %d is shorter than one tick", ErrInvalidArgument, denominator)
	}
	if len(m.events) > 0 {
		return ErrOrdering
	}
	ts := TimeSignature{Tick: tick, Numerator: numerator, Denominator: denominator}
	i := sort.Search(len(m.timeSigs), func(i int) bool { return m.timeSigs[i].Tick >= tick })
	if i < len(m.timeSigs) && m.timeSigs[i].Tick == tick {
		m.timeSigs[i] = ts
		return nil
	}
	m.timeSigs = append(m.timeSigs, TimeSignature{})
	copy(m.timeSigs[i+1:], m.timeSigs[i:])
	m.timeSigs[i] = ts
	return nil
}

// RemoveTimeSignatureEvent removes the meter change at tick. Like adding, it
// fails with ErrOrdering once tempo events exist.
func (m *Map) RemoveTimeSignatureEvent(tick int64) error {
	if len(m.events) > 0 {
		return ErrOrdering
	}
	i := sort.Search(len(m.timeSigs), func(i int) bool { return m.timeSigs[i].Tick >= tick })
	if i == len(m.timeSigs) || m.timeSigs[i].Tick != tick {
		return fmt.Errorf("%w: time signature at %d", ErrNotFound, tick)
	}
	if tick == 0 && len(m.timeSigs) > 1 {
		return fmt.Errorf("%w: cannot remove the time signature at tick 0 while others remain", ErrInvalidArgument)
	}
	m.timeSigs = append(m.timeSigs[:i], m.timeSigs[i+1:]...)
	return nil
}

// Clear removes all events.
func (m *Map) Clear() {
	m.events = m.events[:0]
	m.timeSigs = m.timeSigs[:0]
	m.rebuild()
}

// TimeSignatureAtTick returns the meter in effect at tick.
func (m *Map) TimeSignatureAtTick(tick int64) TimeSignature {
	i := sort.Search(len(m.timeSigs), func(i int) bool { return m.timeSigs[i].Tick > tick })
	if i == 0 {
		return TimeSignature{Tick: 0, Numerator: DefaultNumerator, Denominator: DefaultDenominator}
	}
	return m.timeSigs[i-1]
}

// TempoAtTick returns the tempo at tick, interpolating inside linear ramps.
func (m *Map) TempoAtTick(tick float64) float64 {
	if len(m.events) == 0 || tick < float64(m.events[0].Tick) {
		return m.leadBPM()
	}
	i := m.segmentAtTick(tick)
	e := m.events[i]
	if e.Curve != Linear || i+1 == len(m.events) {
		return e.BPM
	}
	next := m.events[i+1]
	fraction := (tick - float64(e.Tick)) / float64(next.Tick-e.Tick)
	return e.BPM + (next.BPM-e.BPM)*fraction
}

// rebuild recomputes the cumulative seconds at each tempo event. The time
// before the first event runs at the default tempo.
func (m *Map) rebuild() {
	m.cumulative = m.cumulative[:0]
	if len(m.events) == 0 {
		return
	}
	t := float64(m.events[0].Tick) / PPQ * 60 / DefaultBPM
	m.cumulative = append(m.cumulative, t)
	for i := 1; i < len(m.events); i++ {
		t += m.segmentSeconds(i-1, float64(m.events[i].Tick-m.events[i-1].Tick))
		m.cumulative = append(m.cumulative, t)
	}
}
