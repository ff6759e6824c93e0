// Package metronome renders the metronome of the transport: a click on every
// beat while rolling, and the countin before rolling starts.
package metronome

import (
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/zrythm/zrythm-sub015/config"
)

type (
	// Metronome mixes scheduled clicks into stereo blocks. It is used from the
	// audio goroutine only.
	Metronome struct {
		strong, weak []float32
		volume       float32

		pending []click
		tail    []float32 // rest of a click that did not fit in the last block
		mono    []float32
	}

	click struct {
		offset int
		accent bool
	}
)

const (
	strongFreq = 1760
	weakFreq   = 1320
	// clicks decay to 1/e in a quarter of their length
	decayDivisor = 4
)

// New synthesizes the clicks for the given sample rate.
func New(cfg config.Metronome, sampleRate int) *Metronome {
	n := max(cfg.ClickMs*sampleRate/1000, 1)
	return &Metronome{
		strong:  synthClick(n, strongFreq, cfg.Accent, sampleRate),
		weak:    synthClick(n, weakFreq, 1, sampleRate),
		volume:  cfg.Volume,
		pending: make([]click, 0, 16),
	}
}

func synthClick(n int, freq float64, gain float32, sampleRate int) []float32 {
	ret := make([]float32, n)
	tau := float64(n) / decayDivisor
	for i := range ret {
		ret[i] = gain * float32(math.Exp(-float64(i)/tau)*math.Cos(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return ret
}

// Click schedules a click at frame offset of the next rendered block. Accented
// clicks are used for the first beat of a bar.
func (m *Metronome) Click(offset int, accent bool) {
	m.pending = append(m.pending, click{offset: offset, accent: accent})
}

// Render mixes the clicks scheduled since the last call into out, which holds
// interleaved stereo frames. Only the most recent click carries over to the
// next block.
func (m *Metronome) Render(out []float32) {
	frames := len(out) / 2
	if cap(m.mono) < frames {
		m.mono = make([]float32, frames)
	}
	mono := vek32.Zeros_Into(m.mono, frames)
	if n := min(len(m.tail), frames); n > 0 {
		vek32.Add_Inplace(mono[:n], m.tail[:n])
		m.tail = m.tail[n:]
	}
	for _, c := range m.pending {
		if c.offset < 0 || c.offset >= frames {
			continue
		}
		src := m.weak
		if c.accent {
			src = m.strong
		}
		end := min(c.offset+len(src), frames)
		vek32.Add_Inplace(mono[c.offset:end], src[:end-c.offset])
		m.tail = src[end-c.offset:]
	}
	m.pending = m.pending[:0]
	vek32.MulNumber_Inplace(mono, m.volume)
	for i, v := range mono {
		out[2*i] += v
		out[2*i+1] += v
	}
}

// Peak returns the largest absolute sample value of buf.
func Peak(buf []float32) float32 {
	if len(buf) == 0 {
		return 0
	}
	return vek32.Max(vek32.Abs(buf))
}
