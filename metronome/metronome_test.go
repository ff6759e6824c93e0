package metronome_test

import (
	"testing"

	"github.com/zrythm/zrythm-sub015/config"
	"github.com/zrythm/zrythm-sub015/metronome"
	"github.com/zrythm/zrythm-sub015/tempo"
	"github.com/zrythm/zrythm-sub015/transport"
)

const sampleRate = 44100

func newRenderer(countinBars int) (*transport.Transport, *metronome.Renderer) {
	cfg := config.Default()
	cfg.Transport.CountinBars = countinBars
	tr := transport.New(tempo.NewMap(sampleRate), transport.WithConfig(cfg.Transport))
	met := metronome.New(cfg.Metronome, sampleRate)
	return tr, metronome.NewRenderer(tr, met)
}

// clicksAt returns the frames where a click starts, i.e. where the left
// channel jumps from silence.
func clicksAt(out []float32) map[int]float32 {
	ret := map[int]float32{}
	for i := 0; i < len(out)/2; i++ {
		if out[2*i] != 0 && (i == 0 || out[2*i-2] == 0) {
			ret[i] = out[2*i]
		}
	}
	return ret
}

func expectClicks(t *testing.T, out []float32, expected map[int]float32) {
	t.Helper()
	got := clicksAt(out)
	for frame, v := range expected {
		if got[frame] != v {
			t.Errorf("click at frame %d = %v, expected %v", frame, got[frame], v)
		}
	}
	if len(got) != len(expected) {
		t.Errorf("got %d clicks, expected %d: %v", len(got), len(expected), got)
	}
}

func TestClicksOnBeats(t *testing.T) {
	tr, r := newRenderer(0)
	out := r.Render(100000, 512)
	// 120 BPM: a beat every 22050 frames, accented clicks at 0.75, others at 0.5
	expectClicks(t, out, map[int]float32{0: 0.75, 22050: 0.5, 44100: 0.5, 66150: 0.5, 88200: 0.75})
	if got := tr.Playhead().PositionSamples(); got != 100000 {
		t.Fatalf("playhead at %v, expected 100000", got)
	}
}

func TestCountin(t *testing.T) {
	tr, r := newRenderer(1)
	out := r.Render(100000, 512)
	expectClicks(t, out, map[int]float32{0: 0.75, 22050: 0.5, 44100: 0.5, 66150: 0.5, 88200: 0.75})
	if got := tr.MetronomeCountinFramesRemaining(); got != 0 {
		t.Fatalf("countin left: %v", got)
	}
	if got := tr.Playhead().PositionSamples(); got != 100000-88200 {
		t.Fatalf("playhead at %v, expected %v", got, 100000-88200)
	}
}

func TestLoopWrap(t *testing.T) {
	tr, r := newRenderer(0)
	if err := tr.SetLoopRange(false, 0, 3840, false); err != nil {
		t.Fatal(err)
	}
	tr.SetLoopEnabled(true)
	out := r.Render(100000, 500)
	expectClicks(t, out, map[int]float32{0: 0.75, 22050: 0.5, 44100: 0.5, 66150: 0.5, 88200: 0.75})
	if got := tr.Playhead().PositionSamples(); got != 100000-88200 {
		t.Fatalf("playhead at %v, expected %v", got, 100000-88200)
	}
}

func TestPausedDoesNotMove(t *testing.T) {
	tr, r := newRenderer(0)
	out := make([]float32, 1024)
	r.Process(out)
	if got := tr.Playhead().PositionSamples(); got != 0 {
		t.Fatalf("playhead moved while paused: %v", got)
	}
	if metronome.Peak(out) != 0 {
		t.Fatalf("paused transport produced sound")
	}
}

func TestPrerollIsConsumed(t *testing.T) {
	tr, r := newRenderer(0)
	tr.SetRecordingEnabled(true)
	tr.MovePlayhead(3840, false)
	r.Render(100000, 512)
	if got := tr.RecordingPrerollFramesRemaining(); got != 0 {
		t.Fatalf("preroll left: %v", got)
	}
	if got := tr.Playhead().PositionSamples(); got != 100000 {
		t.Fatalf("playhead at %v, expected 100000", got)
	}
}

func TestPeak(t *testing.T) {
	if got := metronome.Peak([]float32{0.1, -0.8, 0.5}); got != 0.8 {
		t.Fatalf("Peak = %v, expected 0.8", got)
	}
	if got := metronome.Peak(nil); got != 0 {
		t.Fatalf("Peak(nil) = %v, expected 0", got)
	}
}
