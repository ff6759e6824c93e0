package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/zrythm/zrythm-sub015/tempo"
)

func TestParseUnit(t *testing.T) {
	cases := map[string]unit{
		"tick":     unitTick,
		"TICKS":    unitTick,
		" Seconds": unitSecond,
		"Samples":  unitSample,
		"Musical":  unitMusical,
	}
	for s, expected := range cases {
		got, err := parseUnit(s)
		if err != nil || got != expected {
			t.Errorf("parseUnit(%q) = %v, %v; expected %v", s, got, err, expected)
		}
	}
	if _, err := parseUnit("furlongs"); err == nil {
		t.Errorf("expected an error for an unknown unit")
	}
}

func TestParseMusical(t *testing.T) {
	pos, err := parseMusical("3.2")
	if err != nil {
		t.Fatal(err)
	}
	if pos != (tempo.MusicalPosition{Bar: 3, Beat: 2, Sixteenth: 1}) {
		t.Fatalf("parseMusical(3.2) = %v", pos)
	}
	for _, bad := range []string{"1.2.3.4.5", "a.b", ""} {
		if _, err := parseMusical(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestConvert(t *testing.T) {
	m := tempo.NewMap(44100)
	row, err := convert(m, unitMusical, "2.1.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if row.Ticks != 3840 || math.Abs(row.Seconds-2) > 1e-9 || row.Samples != 88200 || row.BPM != 120 {
		t.Fatalf("unexpected row %+v", row)
	}
	row, err = convert(m, unitSecond, "0.5")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(row.Ticks-960) > 1e-9 {
		t.Fatalf("0.5 s = %v ticks, expected 960", row.Ticks)
	}
	if _, err := convert(m, unitTick, "lots"); err == nil {
		t.Fatalf("expected an error for a non-numeric value")
	}
}

func TestTemplates(t *testing.T) {
	tmpl, err := loadTemplates("")
	if err != nil {
		t.Fatal(err)
	}
	m := tempo.NewMap(44100)
	if err := m.AddTimeSignatureEvent(0, 3, 4); err != nil {
		t.Fatal(err)
	}
	if err := m.AddTempoEvent(0, 100, tempo.Linear); err != nil {
		t.Fatal(err)
	}
	if err := m.AddTempoEvent(960, 140, tempo.Constant); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeEvents(&buf, tmpl, m); err != nil {
		t.Fatal(err)
	}
	expected := "meter\t3/4\tat tick 0\ntempo\t100 BPM\tlinear\tat tick 0\ntempo\t140 BPM\tconstant\tat tick 960\n"
	if buf.String() != expected {
		t.Fatalf("events:\n%q\nexpected\n%q", buf.String(), expected)
	}
	buf.Reset()
	row, _ := convert(m, unitTick, "2880")
	if err := writeRow(&buf, tmpl, row); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "2880\t2880 ticks\t") || !strings.Contains(buf.String(), "2.1.1.000") {
		t.Fatalf("unexpected row output %q", buf.String())
	}
	custom, err := loadTemplates("{{.Musical}} {{.Input | upper}}")
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	row, _ = convert(m, unitMusical, "2")
	if err := writeRow(&buf, custom, row); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "2.1.1.000 2\n" {
		t.Fatalf("custom template output %q", buf.String())
	}
}
