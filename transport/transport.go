// Package transport implements the play/pause state machine of the engine
// together with the markers it navigates between: the cue point, the loop
// range and the punch range.
//
// Methods fall in two groups. The getters implementing zrythm.Transport and
// the Consume methods are called by the audio goroutine once per block; they
// only use atomics and never block. Everything else is meant for a single
// GUI goroutine and must not be called concurrently.
package transport

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/config"
	"github.com/zrythm/zrythm-sub015/playhead"
	"github.com/zrythm/zrythm-sub015/position"
	"github.com/zrythm/zrythm-sub015/tempo"
)

type (
	Transport struct {
		m        *tempo.Map
		playhead *playhead.Playhead

		cue                 *position.Atomic
		loopStart, loopEnd  *position.Atomic
		punchIn, punchOut   *position.Atomic
		positionBeforePause *position.Atomic

		playState atomic.Int32
		loop      atomic.Bool
		punch     atomic.Bool
		recording atomic.Bool
		exporting atomic.Bool

		countin atomic.Int64
		preroll atomic.Int64

		cfg    config.Transport
		grid   SnapGrid
		clock  func() time.Time
		broker *Broker

		// last undebounced backward jump of each kind
		gridJump, markerJump backwardJump
	}

	backwardJump struct {
		at     time.Time
		target float64
	}

	Option func(*Transport)
)

// RepeatedBackwardWindow is the time within which repeated backward jumps
// while rolling land on the same point instead of moving further back.
const RepeatedBackwardWindow = 240 * time.Millisecond

var (
	ErrExporting    = errors.New("cannot move the playhead while exporting")
	ErrInvalidRange = errors.New("range end must be after range start")
)

var _ zrythm.Transport = (*Transport)(nil)

// WithSnapGrid replaces the default beat grid.
func WithSnapGrid(g SnapGrid) Option { return func(t *Transport) { t.grid = g } }

// WithClock replaces time.Now, e.g. with a fake clock in tests.
func WithClock(clock func() time.Time) Option { return func(t *Transport) { t.clock = clock } }

// WithBroker makes the transport send notifications of its state changes.
func WithBroker(b *Broker) Option { return func(t *Transport) { t.broker = b } }

func WithConfig(c config.Transport) Option { return func(t *Transport) { t.cfg = c } }

// New returns a paused transport with the playhead and the cue point at 0, a
// four bar loop and the punch range on bars 3 and 4. The tempo map is
// borrowed and must outlive the transport.
func New(m *tempo.Map, opts ...Option) *Transport {
	t := &Transport{
		m:                   m,
		playhead:            playhead.New(m),
		cue:                 position.New(m),
		loopStart:           position.New(m),
		loopEnd:             position.New(m),
		punchIn:             position.New(m),
		punchOut:            position.New(m),
		positionBeforePause: position.New(m),
		cfg:                 config.Default().Transport,
		clock:               time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.grid == nil {
		t.grid = &Grid{Map: m, Division: t.cfg.GridDivision}
	}
	bar := func(n int) float64 { return float64(m.MusicalPositionToTick(tempo.MusicalPosition{Bar: n})) }
	t.loopEnd.SetTicks(bar(5))
	t.punchIn.SetTicks(bar(3))
	t.punchOut.SetTicks(bar(5))
	return t
}

func (t *Transport) TempoMap() *tempo.Map         { return t.m }
func (t *Transport) Playhead() *playhead.Playhead { return t.playhead }
func (t *Transport) Config() config.Transport     { return t.cfg }

func (t *Transport) send(e Event) {
	if t.broker != nil {
		TrySend(t.broker.ToGUI, e)
	}
}

func (t *Transport) alert(format string, args ...any) {
	t.send(Event{Kind: EventAlert, Message: fmt.Sprintf(format, args...)})
}

// Real-time read surface

// PlayheadPositionInAudioThread returns the playhead position of the block
// being processed, in samples.
func (t *Transport) PlayheadPositionInAudioThread() int64 {
	return t.playhead.PositionDuringProcessingRounded()
}

func (t *Transport) LoopRangePositions() (start, end int64) {
	return t.loopStart.Samples(), t.loopEnd.Samples()
}

func (t *Transport) PunchRangePositions() (in, out int64) {
	return t.punchIn.Samples(), t.punchOut.Samples()
}

func (t *Transport) PlayState() zrythm.PlayState { return zrythm.PlayState(t.playState.Load()) }
func (t *Transport) LoopEnabled() bool           { return t.loop.Load() }
func (t *Transport) PunchEnabled() bool          { return t.punch.Load() }
func (t *Transport) RecordingEnabled() bool      { return t.recording.Load() }
func (t *Transport) Exporting() bool             { return t.exporting.Load() }

func (t *Transport) MetronomeCountinFramesRemaining() int64 { return t.countin.Load() }
func (t *Transport) RecordingPrerollFramesRemaining() int64 { return t.preroll.Load() }

// ConsumeMetronomeCountinSamples counts down the countin. Consuming more than
// what remains is a programming error and panics.
func (t *Transport) ConsumeMetronomeCountinSamples(n int64) {
	if v := t.countin.Add(-n); v < 0 {
		panic(fmt.Sprintf("transport: consumed %d countin samples too many", -v))
	}
}

// ConsumeRecordingPrerollSamples counts down the preroll. Consuming more than
// what remains is a programming error and panics.
func (t *Transport) ConsumeRecordingPrerollSamples(n int64) {
	if v := t.preroll.Add(-n); v < 0 {
		panic(fmt.Sprintf("transport: consumed %d preroll samples too many", -v))
	}
}

// GUI side

// PositionTicks returns the current playhead position in ticks. While
// rolling, the playhead's tick cache is first resynced with the audio
// goroutine.
func (t *Transport) PositionTicks() float64 {
	if t.PlayState() == zrythm.Rolling {
		t.playhead.UpdateTicksFromSamples()
	}
	return t.playhead.PositionTicks()
}

func (t *Transport) CuePosition() float64         { return t.cue.Ticks() }
func (t *Transport) PositionBeforePause() float64 { return t.positionBeforePause.Ticks() }

func (t *Transport) LoopRange() (start, end float64) {
	return t.loopStart.Ticks(), t.loopEnd.Ticks()
}

func (t *Transport) PunchRange() (in, out float64) {
	return t.punchIn.Ticks(), t.punchOut.Ticks()
}

// PositionInsidePunchRange reports whether ticks is within [in, out).
func (t *Transport) PositionInsidePunchRange(ticks float64) bool {
	in, out := t.PunchRange()
	return ticks >= in && ticks < out
}

func (t *Transport) SetLoopEnabled(v bool) {
	if t.loop.Swap(v) != v {
		t.send(Event{Kind: EventLoop, Value: v})
	}
}

func (t *Transport) SetPunchEnabled(v bool) {
	if t.punch.Swap(v) != v {
		t.send(Event{Kind: EventPunch, Value: v})
	}
}

func (t *Transport) SetRecordingEnabled(v bool) {
	if t.recording.Swap(v) != v {
		t.send(Event{Kind: EventRecording, Value: v})
	}
}

// SetExporting marks the transport as driven by an export. While exporting,
// the playhead cannot be moved from the GUI.
func (t *Transport) SetExporting(v bool) {
	if t.exporting.Swap(v) != v {
		t.send(Event{Kind: EventExporting, Value: v})
	}
}

func (t *Transport) setPlayState(s zrythm.PlayState) {
	t.playState.Store(int32(s))
	t.send(Event{Kind: EventPlayState, Value: s == zrythm.Rolling})
}
