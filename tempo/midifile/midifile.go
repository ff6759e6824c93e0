// Package midifile reads and writes the tempo map of Standard MIDI Files.
package midifile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/zrythm/zrythm-sub015/tempo"
)

// RampStep is the resolution, in ticks, at which linear tempo ramps are
// written as stepped tempo changes; SMF has no notion of a tempo curve.
const RampStep = tempo.PPQ / 4

var ErrTimeFormat = errors.New("only metric (ticks per quarter note) time formats are supported")

type (
	tempoChange struct {
		tick int64
		bpm  float64
	}

	meterChange struct {
		tick       int64
		num, denom int
	}
)

// Import reads the tempo and time signature meta events of all tracks of a
// Standard MIDI File into a new tempo map. Tick positions are rescaled from
// the file resolution to tempo.PPQ.
func Import(r io.Reader, sampleRate float64) (*tempo.Map, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("could not read MIDI file: %w", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return nil, ErrTimeFormat
	}
	scale := func(t int64) int64 {
		return int64(math.Round(float64(t) * tempo.PPQ / float64(ticks)))
	}
	var tempos []tempoChange
	var meters []meterChange
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			var bpm float64
			var num, denom, cpt, dsqpq uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				tempos = append(tempos, tempoChange{tick: scale(abs), bpm: bpm})
			case ev.Message.GetMetaTimeSig(&num, &denom, &cpt, &dsqpq):
				meters = append(meters, meterChange{tick: scale(abs), num: int(num), denom: int(denom)})
			}
		}
	}
	// a later event at the same tick overrides an earlier one
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })
	sort.SliceStable(meters, func(i, j int) bool { return meters[i].tick < meters[j].tick })
	m := tempo.NewMap(sampleRate)
	for _, mc := range meters {
		if err := m.AddTimeSignatureEvent(mc.tick, mc.num, mc.denom); err != nil {
			return nil, fmt.Errorf("time signature at tick %d: %w", mc.tick, err)
		}
	}
	for _, tc := range tempos {
		if err := m.AddTempoEvent(tc.tick, tc.bpm, tempo.Constant); err != nil {
			return nil, fmt.Errorf("tempo at tick %d: %w", tc.tick, err)
		}
	}
	return m, nil
}

// Export writes the tempo map as a single-track Standard MIDI File at
// tempo.PPQ resolution. Linear ramps are approximated by a tempo change
// every RampStep ticks, each lasting exactly as long as the ramp section it
// replaces, so event times are preserved at step boundaries.
func Export(m *tempo.Map, w io.Writer) error {
	type entry struct {
		tick int64
		msg  smf.Message
	}
	var entries []entry
	for _, ts := range m.TimeSignatureEvents() {
		if ts.Numerator > math.MaxUint8 || ts.Denominator > math.MaxUint8 {
			return fmt.Errorf("time signature %d/%d at tick %d does not fit a MIDI file", ts.Numerator, ts.Denominator, ts.Tick)
		}
		entries = append(entries, entry{ts.Tick, smf.MetaMeter(uint8(ts.Numerator), uint8(ts.Denominator))})
	}
	events := m.TempoEvents()
	for i, e := range events {
		if e.Curve != tempo.Linear || i+1 == len(events) {
			entries = append(entries, entry{e.Tick, smf.MetaTempo(e.BPM)})
			continue
		}
		end := events[i+1].Tick
		for a := e.Tick; a < end; a += RampStep {
			b := min(a+RampStep, end)
			seconds := m.TickToSeconds(float64(b)) - m.TickToSeconds(float64(a))
			bpm := float64(b-a) / tempo.PPQ * 60 / seconds
			entries = append(entries, entry{a, smf.MetaTempo(bpm)})
		}
	}
	// meters before tempos at the same tick
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].tick < entries[j].tick })
	var track smf.Track
	var last int64
	for _, e := range entries {
		track.Add(uint32(e.tick-last), e.msg)
		last = e.tick
	}
	track.Close(0)
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(tempo.PPQ)
	if err := s.Add(track); err != nil {
		return fmt.Errorf("error adding tempo track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}
