package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/config"
	"github.com/zrythm/zrythm-sub015/metronome"
	"github.com/zrythm/zrythm-sub015/oto"
	"github.com/zrythm/zrythm-sub015/tempo"
	"github.com/zrythm/zrythm-sub015/tempo/tempofile"
	"github.com/zrythm/zrythm-sub015/transport"
	"github.com/zrythm/zrythm-sub015/version"
)

func main() {
	cfg := config.Make()
	help := flag.Bool("h", false, "Show help.")
	mapFile := flag.String("m", "", "Tempo map (.json, .yml or .mid). By default, 120 BPM in 4/4.")
	bars := flag.Int("bars", 4, "Number of bars to render after the countin.")
	countin := flag.Int("countin", cfg.Transport.CountinBars, "Number of countin bars.")
	play := flag.Bool("p", false, "Play the click track (default behaviour when no other output is defined).")
	wavOut := flag.String("w", "", "Write the click track to this .wav file.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	verbose := flag.Bool("verbose", false, "Log the transport events.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String("zr-click"))
		os.Exit(0)
	}
	if *help || *bars <= 0 || *countin < 0 {
		flag.Usage()
		os.Exit(0)
	}
	if cfg.YmlError != nil {
		fmt.Fprintf(os.Stderr, "ignoring user config: %v\n", cfg.YmlError)
	}
	if *wavOut == "" {
		*play = true
	}
	sampleRate := cfg.Transport.SampleRate
	m := tempo.NewMap(float64(sampleRate))
	if *mapFile != "" {
		var err error
		if m, err = tempofile.Load(*mapFile, float64(sampleRate)); err != nil {
			fmt.Fprintf(os.Stderr, "could not load tempo map: %v\n", err)
			os.Exit(1)
		}
	}
	tcfg := cfg.Transport
	tcfg.CountinBars = *countin
	broker := transport.NewBroker()
	tr := transport.New(m, transport.WithConfig(tcfg), transport.WithBroker(broker))
	r := metronome.NewRenderer(tr, metronome.New(cfg.Metronome, sampleRate))
	tr.RequestRoll()
	end := m.MusicalPositionToTick(tempo.MusicalPosition{Bar: *bars + 1})
	frames := int(tr.MetronomeCountinFramesRemaining() + zrythm.RoundSamples(m.TickToSamples(float64(end))))
	buffer := r.Render(frames, tcfg.BlockSize)
	tr.RequestPause()
	fmt.Fprintf(os.Stderr, "rendered %d frames (%.2f s), peak %.2f\n", frames, float64(frames)/float64(sampleRate), metronome.Peak(buffer))
	if *verbose {
		for {
			e, ok := transport.TimeoutReceive(broker.ToGUI, 10*time.Millisecond)
			if !ok {
				break
			}
			log.Printf("transport: %v ticks=%v value=%v", e.Kind, e.Ticks, e.Value)
		}
	}
	retval := 0
	if *wavOut != "" {
		if err := writeWav(*wavOut, buffer, sampleRate, *pcm); err != nil {
			fmt.Fprintf(os.Stderr, "could not write .wav file: %v\n", err)
			retval = 1
		}
	}
	if *play {
		if err := playBuffer(buffer, sampleRate, tcfg.BlockSize); err != nil {
			fmt.Fprintf(os.Stderr, "could not play: %v\n", err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func writeWav(path string, buffer []float32, sampleRate int, pcm bool) error {
	wav, err := zrythm.Wav(buffer, sampleRate, pcm)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %w", dir, err)
		}
	}
	return os.WriteFile(path, wav, 0644)
}

func playBuffer(buffer []float32, sampleRate, blockSize int) error {
	audioContext, err := oto.NewContext(sampleRate)
	if err != nil {
		return fmt.Errorf("could not acquire oto AudioContext: %w", err)
	}
	defer audioContext.Close()
	output := audioContext.Output()
	for i := 0; i < len(buffer); i += 2 * blockSize {
		if err := output.WriteAudio(buffer[i:min(i+2*blockSize, len(buffer))]); err != nil {
			output.Close()
			return err
		}
	}
	return output.Close()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Renders a metronome click track through the transport.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
