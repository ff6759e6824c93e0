package metronome

import (
	"math"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/transport"
)

// Renderer drives a transport the way the processing graph does: each
// Process call is one block, wrapped in the playhead's
// prepare/advance/finalize protocol. It wraps around the loop, consumes the
// countin and the preroll, and clicks the metronome on every beat.
type Renderer struct {
	tr    *transport.Transport
	met   *Metronome
	beats transport.Grid

	countinTotal int64
}

func NewRenderer(tr *transport.Transport, met *Metronome) *Renderer {
	return &Renderer{
		tr:    tr,
		met:   met,
		beats: transport.Grid{Map: tr.TempoMap(), Division: 1},
	}
}

// Process renders one block into out, which holds interleaved stereo frames.
func (r *Renderer) Process(out []float32) {
	clear(out)
	frames := int64(len(out) / 2)
	p := r.tr.Playhead()
	b := p.Begin()
	defer b.End()
	if r.tr.PlayState() != zrythm.Rolling {
		r.countinTotal = 0
		r.met.Render(out)
		return
	}
	var done int64
	if c := r.tr.MetronomeCountinFramesRemaining(); c > 0 {
		if r.countinTotal == 0 {
			r.countinTotal = c
		}
		n := min(c, frames)
		r.countinClicks(p.PositionDuringProcessing(), r.countinTotal-c, n)
		r.tr.ConsumeMetronomeCountinSamples(n)
		if n == c {
			r.countinTotal = 0
		}
		done = n
	}
	for done < frames {
		n := frames - done
		pos := p.PositionDuringProcessingRounded()
		start, end := r.tr.LoopRangePositions()
		wrap := r.tr.LoopEnabled() && pos < end && pos+n >= end
		if wrap {
			n = end - pos
		}
		r.beatClicks(int(done), pos, n)
		if pr := r.tr.RecordingPrerollFramesRemaining(); pr > 0 {
			r.tr.ConsumeRecordingPrerollSamples(min(pr, n))
		}
		b.Advance(float64(n))
		if wrap {
			b.Advance(float64(start - end))
		}
		done += n
	}
	r.met.Render(out)
}

// countinClicks schedules the countin beats falling in the n frames starting
// elapsed frames into the countin. The countin uses the meter at pos.
func (r *Renderer) countinClicks(pos float64, elapsed, n int64) {
	m := r.tr.TempoMap()
	num := m.TimeSignatureAtTick(int64(m.SamplesToTick(pos))).Numerator
	beats := int64(max(r.tr.Config().CountinBars, 1)) * int64(num)
	beatLen := float64(r.countinTotal) / float64(beats)
	for k := int64(math.Ceil(float64(elapsed) / beatLen)); k < beats; k++ {
		s := int64(math.Round(float64(k) * beatLen))
		if s >= elapsed+n {
			break
		}
		if s >= elapsed {
			r.met.Click(int(s-elapsed), k%int64(num) == 0)
		}
	}
}

// beatClicks schedules the beats whose sample falls in [pos, pos+n), at
// offset frames into the block.
func (r *Renderer) beatClicks(offset int, pos, n int64) {
	m := r.tr.TempoMap()
	tick, ok := r.beats.PrevSnapPoint(m.SamplesToTick(float64(pos)))
	if !ok {
		tick = 0
	}
	for {
		s := zrythm.RoundSamples(m.TickToSamples(tick))
		if s >= pos+n {
			return
		}
		if s >= pos {
			bar := m.BarStartTick(int64(math.Round(tick)))
			r.met.Click(offset+int(s-pos), float64(bar) == math.Round(tick))
		}
		tick, _ = r.beats.NextSnapPoint(tick)
	}
}

// Render rolls the transport and renders frames frames in blocks of
// blockSize frames.
func (r *Renderer) Render(frames, blockSize int) []float32 {
	out := make([]float32, 2*frames)
	r.tr.RequestRoll()
	for i := 0; i < frames; i += blockSize {
		n := min(blockSize, frames-i)
		r.Process(out[2*i : 2*(i+n)])
	}
	return out
}
