// Package zrythm holds the value types shared by the timing subsystem: the
// play state, the read-only transport surface consumed by the processing
// graph once per audio block, and helpers for moving rendered audio around.
//
// The subsystem itself lives in the subpackages: tempo converts between
// musical ticks and absolute time, position and playhead hold positions that
// can be shared between the audio goroutine and the GUI goroutine, and
// transport implements the play/pause state machine on top of them.
package zrythm

import "math"

type (
	// PlayState tells whether the transport is rolling or not.
	PlayState int

	// Transport is the read-only view of the transport given to the
	// processing graph. All methods are safe to call from the audio goroutine:
	// they never block and never allocate. Positions are in samples.
	Transport interface {
		PlayheadPositionInAudioThread() int64
		LoopRangePositions() (start, end int64)
		PunchRangePositions() (in, out int64)
		PlayState() PlayState
		LoopEnabled() bool
		PunchEnabled() bool
		RecordingEnabled() bool
		MetronomeCountinFramesRemaining() int64
		RecordingPrerollFramesRemaining() int64
	}
)

const (
	Paused PlayState = iota
	Rolling
)

func (s PlayState) String() string {
	switch s {
	case Paused:
		return "Paused"
	case Rolling:
		return "Rolling"
	}
	return "PlayState(?)"
}

// RoundSamples rounds a fractional sample position to the nearest whole
// sample. Conversions keep positions as float64 all the way through and only
// round with this at the boundary where an integer frame is needed.
func RoundSamples(samples float64) int64 {
	return int64(math.Round(samples))
}
