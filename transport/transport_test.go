package transport_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/config"
	"github.com/zrythm/zrythm-sub015/tempo"
	"github.com/zrythm/zrythm-sub015/transport"
)

const epsilon = 1e-6

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTransport(opts ...transport.Option) *transport.Transport {
	return transport.New(tempo.NewMap(44100), opts...)
}

func expectTicks(t *testing.T, tr *transport.Transport, expected float64) {
	t.Helper()
	if got := tr.PositionTicks(); math.Abs(got-expected) > epsilon {
		t.Fatalf("playhead at %v ticks, expected %v", got, expected)
	}
}

func TestMoveBackwardDebounce(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tr := newTransport(transport.WithClock(clock.Now))
	if err := tr.MovePlayhead(5000, false); err != nil {
		t.Fatal(err)
	}
	tr.RequestRoll()
	tr.MoveBackward()
	expectTicks(t, tr, 4800)
	clock.Advance(100 * time.Millisecond)
	tr.MoveBackward()
	expectTicks(t, tr, 4800)
	clock.Advance(300 * time.Millisecond)
	tr.MoveBackward()
	expectTicks(t, tr, 4560)
}

func TestSeekResetsBackwardDebounce(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tr := newTransport(transport.WithClock(clock.Now))
	tr.MovePlayhead(5000, false)
	tr.RequestRoll()
	tr.MoveBackward()
	expectTicks(t, tr, 4800)
	clock.Advance(50 * time.Millisecond)
	tr.MovePlayhead(20000, false)
	clock.Advance(50 * time.Millisecond)
	tr.MoveBackward()
	expectTicks(t, tr, 19920)
	clock.Advance(50 * time.Millisecond)
	tr.MoveForward()
	tr.MoveForward()
	expectTicks(t, tr, 20400)
	clock.Advance(50 * time.Millisecond)
	tr.MoveBackward()
	expectTicks(t, tr, 20160)
}

func TestMarkerDebounceIsSeparateFromGrid(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tr := newTransport(transport.WithClock(clock.Now))
	tr.MovePlayhead(1000, true)
	tr.MovePlayhead(3000, false)
	tr.RequestRoll()
	tr.MoveBackward()
	expectTicks(t, tr, 2880)
	clock.Advance(50 * time.Millisecond)
	tr.GotoPrevOrNextMarker(true, nil)
	expectTicks(t, tr, 1000)
	clock.Advance(50 * time.Millisecond)
	tr.MoveBackward()
	expectTicks(t, tr, 960)
}

func TestGotoPrevMarkerDebounce(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tr := newTransport(transport.WithClock(clock.Now))
	tr.MovePlayhead(1000, true)
	tr.MovePlayhead(3000, false)
	tr.RequestRoll()
	tr.GotoPrevOrNextMarker(true, nil)
	expectTicks(t, tr, 1000)
	clock.Advance(100 * time.Millisecond)
	tr.GotoPrevOrNextMarker(true, nil)
	expectTicks(t, tr, 1000)
	clock.Advance(300 * time.Millisecond)
	tr.GotoPrevOrNextMarker(true, nil)
	expectTicks(t, tr, 0)
}

func TestMoveBackwardWhilePaused(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tr := newTransport(transport.WithClock(clock.Now))
	tr.MovePlayhead(5000, false)
	tr.MoveBackward()
	expectTicks(t, tr, 4800)
	tr.MoveBackward()
	expectTicks(t, tr, 4560)
	tr.MovePlayhead(0, false)
	tr.MoveBackward()
	expectTicks(t, tr, 0)
}

func TestMoveForward(t *testing.T) {
	tr := newTransport()
	tr.MoveForward()
	expectTicks(t, tr, 240)
	tr.MovePlayhead(1000, false)
	tr.MoveForward()
	expectTicks(t, tr, 1200)
}

func TestRollArmsCountin(t *testing.T) {
	tr := newTransport()
	tr.RequestRoll()
	if tr.PlayState() != zrythm.Rolling {
		t.Fatalf("transport is not rolling")
	}
	// one 4/4 bar at 120 BPM
	if got := tr.MetronomeCountinFramesRemaining(); got != 88200 {
		t.Fatalf("countin = %v, expected 88200", got)
	}
	if got := tr.RecordingPrerollFramesRemaining(); got != 0 {
		t.Fatalf("preroll = %v without recording", got)
	}
	tr.ConsumeMetronomeCountinSamples(88000)
	tr.ConsumeMetronomeCountinSamples(200)
	if got := tr.MetronomeCountinFramesRemaining(); got != 0 {
		t.Fatalf("countin = %v, expected 0", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("over-consuming the countin did not panic")
		}
	}()
	tr.ConsumeMetronomeCountinSamples(1)
}

func TestRollWhileRecordingArmsPreroll(t *testing.T) {
	tr := newTransport()
	tr.SetRecordingEnabled(true)
	tr.MovePlayhead(7680, false)
	tr.RequestRoll()
	if got := tr.RecordingPrerollFramesRemaining(); got != 88200 {
		t.Fatalf("preroll = %v, expected 88200", got)
	}
	if got := tr.Playhead().PositionSamples(); got != 88200 {
		t.Fatalf("playhead at %v samples, expected 88200", got)
	}
	tr.ConsumeRecordingPrerollSamples(88200)
	defer func() {
		if recover() == nil {
			t.Fatalf("over-consuming the preroll did not panic")
		}
	}()
	tr.ConsumeRecordingPrerollSamples(1)
}

func TestPrerollStopsAtZero(t *testing.T) {
	tr := newTransport()
	tr.SetRecordingEnabled(true)
	tr.MovePlayhead(1000, false)
	tr.RequestRoll()
	// 1000 ticks at 120 BPM is 22968.75 samples
	if got := tr.RecordingPrerollFramesRemaining(); got != 22969 {
		t.Fatalf("preroll = %v, expected 22969", got)
	}
	if got := tr.Playhead().PositionSamples(); got != 0 {
		t.Fatalf("playhead at %v samples, expected 0", got)
	}
}

func TestPauseRemembersPosition(t *testing.T) {
	tr := newTransport()
	tr.MovePlayhead(1920, true)
	tr.RequestRoll()
	p := tr.Playhead()
	p.ProcessBlock(func() { p.AdvanceProcessing(22050) })
	tr.RequestPause()
	if tr.PlayState() != zrythm.Paused {
		t.Fatalf("transport is not paused")
	}
	if got := tr.PositionBeforePause(); math.Abs(got-2880) > epsilon {
		t.Fatalf("position before pause = %v, expected 2880", got)
	}
	if tr.MetronomeCountinFramesRemaining() != 0 {
		t.Fatalf("countin left armed after pause")
	}
	expectTicks(t, tr, 2880)
}

func TestPauseReturnsToCue(t *testing.T) {
	cfg := config.Default().Transport
	cfg.ReturnToCueOnPause = true
	tr := newTransport(transport.WithConfig(cfg))
	tr.MovePlayhead(960, true)
	tr.RequestRoll()
	p := tr.Playhead()
	p.ProcessBlock(func() { p.AdvanceProcessing(44100) })
	tr.RequestPause()
	if got := tr.PositionBeforePause(); math.Abs(got-2880) > epsilon {
		t.Fatalf("position before pause = %v, expected 2880", got)
	}
	expectTicks(t, tr, 960)
}

func TestMovePlayheadWhileExporting(t *testing.T) {
	b := transport.NewBroker()
	tr := newTransport(transport.WithBroker(b))
	tr.SetExporting(true)
	if err := tr.MovePlayhead(960, false); !errors.Is(err, transport.ErrExporting) {
		t.Fatalf("MovePlayhead while exporting returned %v", err)
	}
	expectTicks(t, tr, 0)
	for {
		e, ok := transport.TimeoutReceive(b.ToGUI, time.Second)
		if !ok {
			t.Fatalf("no alert was sent")
		}
		if e.Kind == transport.EventAlert {
			break
		}
	}
	if tr.Roll().Enabled() || tr.Backward().Enabled() {
		t.Fatalf("actions should be disabled while exporting")
	}
}

func TestGotoPrevOrNextMarker(t *testing.T) {
	tr := newTransport()
	tr.MovePlayhead(1000, true)
	tr.MovePlayhead(3000, false)
	extra := []float64{5000}
	steps := []struct {
		prev     bool
		expected float64
	}{
		{true, 1000},
		{true, 0},
		{true, 0},
		{false, 1000},
		{false, 5000},
		{false, 15360},
		{false, 15360},
	}
	for i, s := range steps {
		tr.GotoPrevOrNextMarker(s.prev, extra)
		if got := tr.PositionTicks(); math.Abs(got-s.expected) > epsilon {
			t.Fatalf("step %d: playhead at %v, expected %v", i, got, s.expected)
		}
	}
}

func TestGridKeepOffset(t *testing.T) {
	g := &transport.Grid{Map: tempo.NewMap(44100), Division: 4}
	if got := g.Snap(1500, 1000); math.Abs(got-1440) > epsilon {
		t.Fatalf("Snap(1500) = %v, expected 1440", got)
	}
	g.KeepOffset = true
	// the drag started 40 ticks after the grid point at 960
	if got := g.Snap(1500, 1000); math.Abs(got-1480) > epsilon {
		t.Fatalf("Snap(1500) keeping the offset = %v, expected 1480", got)
	}
}

func TestReturnToCueAction(t *testing.T) {
	tr := newTransport()
	tr.MovePlayhead(1920, true)
	tr.MovePlayhead(5000, false)
	a := tr.ReturnToCue()
	if !a.Enabled() {
		t.Fatalf("return to cue should be enabled")
	}
	a.Do()
	expectTicks(t, tr, 1920)
	tr.MovePlayhead(5000, false)
	tr.SetExporting(true)
	if a.Enabled() {
		t.Fatalf("return to cue should be disabled while exporting")
	}
	a.Do()
	tr.SetExporting(false)
	expectTicks(t, tr, 5000)
}

func TestLoopRange(t *testing.T) {
	tr := newTransport()
	if s, e := tr.LoopRange(); s != 0 || e != 15360 {
		t.Fatalf("default loop range = %v..%v", s, e)
	}
	if err := tr.SetLoopRange(true, 0, 20000, false); !errors.Is(err, transport.ErrInvalidRange) {
		t.Fatalf("loop start after loop end returned %v", err)
	}
	if err := tr.SetLoopRange(false, 0, 3900, true); err != nil {
		t.Fatalf("SetLoopRange: %v", err)
	}
	if s, e := tr.LoopRange(); s != 0 || e != 3840 {
		t.Fatalf("loop range = %v..%v, expected 0..3840", s, e)
	}
	if err := tr.SetLoopRange(false, 0, 0, false); !errors.Is(err, transport.ErrInvalidRange) {
		t.Fatalf("empty loop returned %v", err)
	}
	if start, end := tr.LoopRangePositions(); start != 0 || end != 88200 {
		t.Fatalf("LoopRangePositions() = %v, %v", start, end)
	}
}

func TestPunchRange(t *testing.T) {
	tr := newTransport()
	if err := tr.SetPunchRange(true, 20000, false); !errors.Is(err, transport.ErrInvalidRange) {
		t.Fatalf("punch in after punch out returned %v", err)
	}
	if err := tr.SetPunchRange(true, 3850, true); err != nil {
		t.Fatalf("SetPunchRange: %v", err)
	}
	if in, out := tr.PunchRange(); in != 3840 || out != 15360 {
		t.Fatalf("punch range = %v..%v", in, out)
	}
	if !tr.PositionInsidePunchRange(3840) || tr.PositionInsidePunchRange(15360) {
		t.Fatalf("PositionInsidePunchRange is wrong at the range edges")
	}
	if in, out := tr.PunchRangePositions(); in != 88200 || out != 352800 {
		t.Fatalf("PunchRangePositions() = %v, %v", in, out)
	}
}

func TestFlagsSendEvents(t *testing.T) {
	b := transport.NewBroker()
	tr := newTransport(transport.WithBroker(b))
	tr.Loop().Toggle()
	if !tr.LoopEnabled() {
		t.Fatalf("loop was not enabled")
	}
	e, ok := transport.TimeoutReceive(b.ToGUI, time.Second)
	if !ok || e.Kind != transport.EventLoop || !e.Value {
		t.Fatalf("unexpected event %+v", e)
	}
	tr.Loop().Set(true)
	if _, ok := transport.TimeoutReceive(b.ToGUI, 10*time.Millisecond); ok {
		t.Fatalf("setting an unchanged flag sent an event")
	}
	tr.Rolling().Set(true)
	e, _ = transport.TimeoutReceive(b.ToGUI, time.Second)
	if e.Kind != transport.EventPlayState || tr.PlayState() != zrythm.Rolling {
		t.Fatalf("Rolling().Set(true) did not start the transport")
	}
	if tr.Roll().Enabled() || !tr.Pause().Enabled() {
		t.Fatalf("roll/pause enabled states are wrong while rolling")
	}
	tr.Pause().Do()
	if tr.PlayState() != zrythm.Paused {
		t.Fatalf("Pause().Do() did not pause")
	}
}

func TestFullBrokerDoesNotBlock(t *testing.T) {
	b := &transport.Broker{ToGUI: make(chan transport.Event, 1)}
	tr := newTransport(transport.WithBroker(b))
	for i := 0; i < 10; i++ {
		tr.Loop().Toggle()
	}
	if len(b.ToGUI) != 1 {
		t.Fatalf("expected exactly one buffered event, got %d", len(b.ToGUI))
	}
}

func TestJSON(t *testing.T) {
	tr := newTransport()
	tr.MovePlayhead(1920, true)
	tr.SetLoopRange(true, 0, 960, false)
	tr.SetPunchEnabled(true)
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	tr2 := newTransport()
	if err := json.Unmarshal(b, tr2); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if tr2.Data() != tr.Data() {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", tr2.Data(), tr.Data())
	}
	bad := `{"loopStartPos":{"mode":"Musical","value":20000}}`
	if err := json.Unmarshal([]byte(bad), tr2); !errors.Is(err, transport.ErrInvalidRange) {
		t.Fatalf("inverted loop returned %v", err)
	}
	if s, _ := tr2.LoopRange(); s != 960 {
		t.Fatalf("failed load modified the loop start: %v", s)
	}
}
