// Package playhead tracks the play position of the engine. The audio
// goroutine moves it in samples with a prepare/advance/finalize protocol per
// block, while the GUI reads and seeks it in ticks.
package playhead

import (
	"math"
	"sync"
	"sync/atomic"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/tempo"
)

type (
	// Playhead is the play position shared between one audio goroutine and
	// any number of non-real-time goroutines.
	//
	// The committed position is stored in samples. Within a block the audio
	// goroutine only touches an accumulator; at the end of the block the
	// accumulator is committed with a compare-and-swap against the position
	// seen at the start of the block, so a seek made by the GUI during the
	// block always wins over the audio goroutine's own motion.
	Playhead struct {
		m *tempo.Map

		committed  atomic.Uint64 // float64 bits, samples
		processing atomic.Uint64 // float64 bits, samples
		blockStart uint64        // audio goroutine only

		mu    sync.Mutex
		ticks float64
	}

	// Block is a processing block in progress. It is obtained from Begin and
	// must be ended exactly once; calling End again is a no-op.
	Block struct {
		p    *Playhead
		done bool
	}
)

// New returns a playhead at position 0. The tempo map is borrowed and must
// outlive the playhead.
func New(m *tempo.Map) *Playhead {
	return &Playhead{m: m}
}

// TempoMap returns the map used for conversions.
func (p *Playhead) TempoMap() *tempo.Map { return p.m }

// PrepareForProcessing snapshots the committed position as the start of a
// new block. Audio goroutine only.
func (p *Playhead) PrepareForProcessing() {
	bits := p.committed.Load()
	p.blockStart = bits
	p.processing.Store(bits)
}

// AdvanceProcessing moves the in-block position by delta samples. Delta may
// be negative, e.g. when wrapping around the loop. The deltas of a block are
// summed exactly; only the observed and committed positions are clamped at 0.
// Audio goroutine only.
func (p *Playhead) AdvanceProcessing(delta float64) {
	v := math.Float64frombits(p.processing.Load()) + delta
	p.processing.Store(math.Float64bits(v))
}

// FinalizeProcessing commits the in-block position, unless the committed
// position was changed by someone else since PrepareForProcessing, in which
// case the external value is kept. Audio goroutine only.
func (p *Playhead) FinalizeProcessing() {
	p.committed.CompareAndSwap(p.blockStart, math.Float64bits(p.PositionDuringProcessing()))
}

// PositionDuringProcessing returns the in-block position in samples. It is
// lock-free and may be called from any goroutine.
func (p *Playhead) PositionDuringProcessing() float64 {
	return max(math.Float64frombits(p.processing.Load()), 0)
}

// PositionDuringProcessingRounded returns the in-block position rounded to
// the nearest sample.
func (p *Playhead) PositionDuringProcessingRounded() int64 {
	return zrythm.RoundSamples(p.PositionDuringProcessing())
}

// ProcessBlock runs f between PrepareForProcessing and FinalizeProcessing.
// The block is finalized even if f panics.
func (p *Playhead) ProcessBlock(f func()) {
	p.PrepareForProcessing()
	defer p.FinalizeProcessing()
	f()
}

// Begin prepares a block. The usual pattern is
//
//	b := p.Begin()
//	defer b.End()
func (p *Playhead) Begin() Block {
	p.PrepareForProcessing()
	return Block{p: p}
}

// Advance is a shorthand for AdvanceProcessing on the block's playhead.
func (b *Block) Advance(delta float64) {
	if b.done {
		return
	}
	b.p.AdvanceProcessing(delta)
}

// End finalizes the block. Only the first call has an effect.
func (b *Block) End() {
	if b.done || b.p == nil {
		return
	}
	b.done = true
	b.p.FinalizeProcessing()
}

// SetPositionTicks seeks the playhead. Negative ticks are clamped to 0. Must
// not be called from the audio goroutine.
func (p *Playhead) SetPositionTicks(ticks float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = max(ticks, 0)
	p.committed.Store(math.Float64bits(p.m.TickToSamples(p.ticks)))
}

// PositionTicks returns the cached tick position. The cache follows the
// audio goroutine only when UpdateTicksFromSamples is called.
func (p *Playhead) PositionTicks() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

// UpdateTicksFromSamples resyncs the tick cache from the committed position.
// It should be polled by a non-real-time timer while playing.
func (p *Playhead) UpdateTicksFromSamples() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = p.m.SamplesToTick(p.PositionSamples())
}

// PositionSamples returns the committed position in samples.
func (p *Playhead) PositionSamples() float64 {
	return math.Float64frombits(p.committed.Load())
}
