package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zrythm/zrythm-sub015/config"
	"github.com/zrythm/zrythm-sub015/tempo"
	"github.com/zrythm/zrythm-sub015/tempo/tempofile"
	"github.com/zrythm/zrythm-sub015/version"
)

func main() {
	cfg := config.Make()
	help := flag.Bool("h", false, "Show help.")
	unitFlag := flag.String("u", "tick", "Unit of the values to convert: tick, second, sample or musical (bar.beat.sixteenth.tick).")
	sampleRate := flag.Int("sr", cfg.Transport.SampleRate, "Sample rate used for sample conversions.")
	tmplFlag := flag.String("t", "", "Output template for each value, in text/template syntax with sprig functions. Fields: Input, Ticks, Seconds, Samples, Musical, BPM, TimeSignature.")
	events := flag.Bool("e", false, "List the tempo and time signature events of the map.")
	output := flag.String("o", "", "Save the tempo map to this file; the format (.json, .yml or .mid) is picked from the extension.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String("zr-tempo"))
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if cfg.YmlError != nil {
		fmt.Fprintf(os.Stderr, "ignoring user config: %v\n", cfg.YmlError)
	}
	u, err := parseUnit(*unitFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	tmpl, err := loadTemplates(*tmplFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	var m *tempo.Map
	if path := flag.Arg(0); path == "-" {
		m = tempo.NewMap(float64(*sampleRate))
	} else if m, err = tempofile.Load(path, float64(*sampleRate)); err != nil {
		fmt.Fprintf(os.Stderr, "could not load tempo map: %v\n", err)
		os.Exit(1)
	}
	retval := 0
	if *events {
		if err := writeEvents(os.Stdout, tmpl, m); err != nil {
			fmt.Fprintf(os.Stderr, "could not list events: %v\n", err)
			retval = 1
		}
	}
	for _, input := range flag.Args()[1:] {
		row, err := convert(m, u, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not convert %v: %v\n", input, err)
			retval = 1
			continue
		}
		if err := writeRow(os.Stdout, tmpl, row); err != nil {
			fmt.Fprintf(os.Stderr, "could not write %v: %v\n", input, err)
			retval = 1
		}
	}
	if *output != "" {
		if err := tempofile.Save(*output, m); err != nil {
			fmt.Fprintf(os.Stderr, "could not save tempo map: %v\n", err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Converts positions between ticks, seconds, samples and bars using a tempo map.\nUsage: %s [flags] map.yml|map.json|map.mid|- [value ...]\n", os.Args[0])
	flag.PrintDefaults()
}
