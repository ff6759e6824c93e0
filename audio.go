package zrythm

// AudioSink receives interleaved stereo float32 audio, e.g. from the
// metronome renderer.
type AudioSink interface {
	WriteAudio(buffer []float32) error
	Close() error
}

// AudioContext opens audio outputs at a fixed sample rate.
type AudioContext interface {
	Output() AudioSink
	SampleRate() int
	Close() error
}
