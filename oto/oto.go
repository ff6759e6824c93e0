// Package oto plays audio through github.com/ebitengine/oto/v3.
package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	zrythm "github.com/zrythm/zrythm-sub015"
)

type (
	OtoContext struct {
		ctx        *oto.Context
		sampleRate int
	}

	// OtoOutput pushes audio to an oto player through a pipe: WriteAudio
	// blocks until the player has consumed the previous data.
	OtoOutput struct {
		player    *oto.Player
		w         *io.PipeWriter
		tmpBuffer []byte
	}
)

var _ zrythm.AudioContext = (*OtoContext)(nil)

// NewContext opens the audio device for 16-bit stereo output. oto allows only
// one context per process.
func NewContext(sampleRate int) (*OtoContext, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{ctx: ctx, sampleRate: sampleRate}, nil
}

func (c *OtoContext) SampleRate() int { return c.sampleRate }

func (c *OtoContext) Output() zrythm.AudioSink {
	r, w := io.Pipe()
	player := c.ctx.NewPlayer(r)
	player.Play()
	return &OtoOutput{player: player, w: w}
}

func (c *OtoContext) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (o *OtoOutput) WriteAudio(floatBuffer []float32) error {
	// we reuse the old capacity tmpBuffer by setting its length to zero
	o.tmpBuffer = zrythm.PCM16(floatBuffer, o.tmpBuffer[:0])
	if _, err := o.w.Write(o.tmpBuffer); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

// Close waits for the written audio to finish playing and disposes of the
// player.
func (o *OtoOutput) Close() error {
	o.w.Close()
	for o.player.IsPlaying() {
		// the player stops on EOF from the pipe
		time.Sleep(10 * time.Millisecond)
	}
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
