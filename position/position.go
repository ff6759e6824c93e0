// Package position provides Atomic, a position on the timeline that can be
// read from any goroutine without locking. It is stored either in musical
// time (ticks) or in absolute time (seconds), and converted on the fly using
// a tempo.Map.
package position

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/tempo"
)

type (
	// Mode is the time domain a position is stored in.
	Mode uint64

	// Atomic is a timeline position shared between goroutines. Setters and
	// getters are lock-free and safe to call concurrently; SetMode is not and
	// must be synchronized by the caller.
	Atomic struct {
		m      *tempo.Map
		packed atomic.Uint64
	}

	// packedValue is a float64 whose least significant mantissa bit has been
	// replaced by the Mode. Losing that bit changes the value by at most one
	// ulp.
	packedValue uint64
)

const (
	// Musical positions are stored in ticks and stay on the same beat when
	// the tempo changes.
	Musical Mode = iota
	// Absolute positions are stored in seconds and stay at the same time
	// when the tempo changes.
	Absolute
)

const modeMask = 1

// float64 and uint64 must have the same size for the packing to work; Go
// guarantees float64 is IEEE-754 and atomic.Uint64 is lock-free on every
// 64-bit capable target.
var (
	_ [unsafe.Sizeof(float64(0)) - unsafe.Sizeof(uint64(0))]struct{}
	_ [unsafe.Sizeof(uint64(0)) - unsafe.Sizeof(float64(0))]struct{}
)

func pack(value float64, mode Mode) packedValue {
	return packedValue(math.Float64bits(value)&^modeMask | uint64(mode)&modeMask)
}

func (p packedValue) value() float64 { return math.Float64frombits(uint64(p) &^ modeMask) }
func (p packedValue) mode() Mode     { return Mode(uint64(p) & modeMask) }

func (m Mode) String() string {
	switch m {
	case Musical:
		return "Musical"
	case Absolute:
		return "Absolute"
	}
	return fmt.Sprintf("Mode(%d)", uint64(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	if m != Musical && m != Absolute {
		return nil, fmt.Errorf("unknown position mode %d", uint64(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Musical":
		*m = Musical
	case "Absolute":
		*m = Absolute
	default:
		return fmt.Errorf("unknown position mode %q", text)
	}
	return nil
}

// New returns a musical position at tick 0. The tempo map is borrowed and
// must outlive the position.
func New(m *tempo.Map) *Atomic {
	return &Atomic{m: m}
}

// TempoMap returns the map used for conversions.
func (a *Atomic) TempoMap() *tempo.Map { return a.m }

func (a *Atomic) load() packedValue { return packedValue(a.packed.Load()) }

func (a *Atomic) store(value float64, mode Mode) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		panic(fmt.Sprintf("position: storing non-finite value %v", value))
	}
	a.packed.Store(uint64(pack(max(value, 0), mode)))
}

// Mode returns the time domain the position is currently stored in.
func (a *Atomic) Mode() Mode { return a.load().mode() }

// SetMode converts the stored value to the given time domain. It must not
// race with other writers.
func (a *Atomic) SetMode(mode Mode) {
	p := a.load()
	if p.mode() == mode {
		return
	}
	switch mode {
	case Absolute:
		a.store(a.m.TickToSeconds(p.value()), Absolute)
	default:
		a.store(a.m.SecondsToTick(p.value()), Musical)
	}
}

// SetTicks sets the position in ticks. Negative values are clamped to 0.
func (a *Atomic) SetTicks(ticks float64) {
	ticks = clampNegative(ticks)
	if mode := a.Mode(); mode == Absolute {
		a.store(a.m.TickToSeconds(ticks), Absolute)
		return
	}
	a.store(ticks, Musical)
}

func (a *Atomic) Ticks() float64 {
	p := a.load()
	if p.mode() == Absolute {
		return a.m.SecondsToTick(p.value())
	}
	return p.value()
}

// SetSeconds sets the position in seconds. Negative values are clamped to 0.
func (a *Atomic) SetSeconds(seconds float64) {
	seconds = clampNegative(seconds)
	if mode := a.Mode(); mode == Musical {
		a.store(a.m.SecondsToTick(seconds), Musical)
		return
	}
	a.store(seconds, Absolute)
}

func (a *Atomic) Seconds() float64 {
	p := a.load()
	if p.mode() == Musical {
		return a.m.TickToSeconds(p.value())
	}
	return p.value()
}

// SetSamples sets the position in samples at the map's sample rate.
func (a *Atomic) SetSamples(samples float64) {
	a.SetSeconds(a.m.SamplesToSeconds(clampNegative(samples)))
}

// Samples returns the position rounded to the nearest whole sample.
func (a *Atomic) Samples() int64 {
	return zrythm.RoundSamples(a.m.SecondsToSamples(a.Seconds()))
}

func (a *Atomic) String() string {
	p := a.load()
	return fmt.Sprintf("%v %v", p.mode(), p.value())
}

// clampNegative maps negative values to 0 while letting non-finite values
// through to the panic in store.
func clampNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
