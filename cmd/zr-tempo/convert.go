package main

import (
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"golang.org/x/text/cases"

	zrythm "github.com/zrythm/zrythm-sub015"
	"github.com/zrythm/zrythm-sub015/tempo"
)

type (
	// Row is the data passed to the output template for every converted
	// value.
	Row struct {
		Input         string
		Ticks         float64
		Seconds       float64
		Samples       int64
		Musical       tempo.MusicalPosition
		BPM           float64
		TimeSignature tempo.TimeSignature
	}

	unit int
)

const (
	unitTick unit = iota
	unitSecond
	unitSample
	unitMusical
)

//go:embed templates/*.txt
var templateFS embed.FS

var caser = cases.Fold()

func parseUnit(s string) (unit, error) {
	switch caser.String(strings.TrimSpace(s)) {
	case "t", "tick", "ticks":
		return unitTick, nil
	case "s", "sec", "second", "seconds":
		return unitSecond, nil
	case "sample", "samples", "frame", "frames":
		return unitSample, nil
	case "m", "bar", "bars", "musical":
		return unitMusical, nil
	}
	return 0, fmt.Errorf("unknown unit %q, expected tick, second, sample or musical", s)
}

// parseMusical parses bar.beat.sixteenth.tick; trailing fields may be left
// out.
func parseMusical(s string) (tempo.MusicalPosition, error) {
	pos := tempo.MusicalPosition{Bar: 1, Beat: 1, Sixteenth: 1}
	fields := strings.Split(s, ".")
	if len(fields) > 4 {
		return pos, fmt.Errorf("musical position %q has too many fields", s)
	}
	dst := []*int{&pos.Bar, &pos.Beat, &pos.Sixteenth, &pos.Tick}
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return pos, fmt.Errorf("musical position %q: %w", s, err)
		}
		*dst[i] = v
	}
	return pos, nil
}

func convert(m *tempo.Map, u unit, input string) (Row, error) {
	var ticks float64
	switch u {
	case unitMusical:
		pos, err := parseMusical(input)
		if err != nil {
			return Row{}, err
		}
		ticks = float64(m.MusicalPositionToTick(pos))
	default:
		v, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return Row{}, fmt.Errorf("could not parse %q as a number: %w", input, err)
		}
		switch u {
		case unitSecond:
			ticks = m.SecondsToTick(v)
		case unitSample:
			ticks = m.SamplesToTick(v)
		default:
			ticks = v
		}
	}
	ticks = max(ticks, 0)
	return Row{
		Input:         input,
		Ticks:         ticks,
		Seconds:       m.TickToSeconds(ticks),
		Samples:       zrythm.RoundSamples(m.TickToSamples(ticks)),
		Musical:       m.TickToMusicalPosition(int64(ticks)),
		BPM:           m.TempoAtTick(ticks),
		TimeSignature: m.TimeSignatureAtTick(int64(ticks)),
	}, nil
}

func loadTemplates(custom string) (*template.Template, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("could not parse templates: %w", err)
	}
	if custom != "" {
		if _, err := tmpl.New("row.txt").Parse(custom + "\n"); err != nil {
			return nil, fmt.Errorf("could not parse the output template: %w", err)
		}
	}
	return tmpl, nil
}

func writeRow(w io.Writer, tmpl *template.Template, row Row) error {
	return tmpl.ExecuteTemplate(w, "row.txt", row)
}

func writeEvents(w io.Writer, tmpl *template.Template, m *tempo.Map) error {
	return tmpl.ExecuteTemplate(w, "events.txt", m)
}
