package tempo

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// mapData is the persisted form of a Map.
type mapData struct {
	TimeSignatures []TimeSignature `json:"timeSignatures" yaml:"timeSignatures"`
	TempoChanges   []Event         `json:"tempoChanges" yaml:"tempoChanges"`
}

func (m *Map) data() mapData {
	d := mapData{TimeSignatures: m.TimeSignatureEvents(), TempoChanges: m.TempoEvents()}
	if d.TimeSignatures == nil {
		d.TimeSignatures = []TimeSignature{}
	}
	if d.TempoChanges == nil {
		d.TempoChanges = []Event{}
	}
	return d
}

// load replaces the events of m with d. The events are validated through the
// mutation API into a scratch map first, so m is left untouched on error.
func (m *Map) load(d mapData) error {
	scratch := Map{sampleRate: m.sampleRate}
	for i, ts := range d.TimeSignatures {
		if i > 0 && ts.Tick <= d.TimeSignatures[i-1].Tick {
			return fmt.Errorf("tempo map: time signature %d: %w: ticks must be strictly increasing", i, ErrInvalidArgument)
		}
		if err := scratch.AddTimeSignatureEvent(ts.Tick, ts.Numerator, ts.Denominator); err != nil {
			return fmt.Errorf("tempo map: time signature %d: %w", i, err)
		}
	}
	for i, e := range d.TempoChanges {
		if i > 0 && e.Tick <= d.TempoChanges[i-1].Tick {
			return fmt.Errorf("tempo map: tempo change %d: %w: ticks must be strictly increasing", i, ErrInvalidArgument)
		}
		if err := scratch.AddTempoEvent(e.Tick, e.BPM, e.Curve); err != nil {
			return fmt.Errorf("tempo map: tempo change %d: %w", i, err)
		}
	}
	*m = scratch
	return nil
}

func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.data())
}

func (m *Map) UnmarshalJSON(b []byte) error {
	var d mapData
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("tempo map: %w", err)
	}
	return m.load(d)
}

func (m *Map) MarshalYAML() (interface{}, error) {
	return m.data(), nil
}

func (m *Map) UnmarshalYAML(value *yaml.Node) error {
	var d mapData
	if err := value.Decode(&d); err != nil {
		return fmt.Errorf("tempo map: %w", err)
	}
	return m.load(d)
}

// Unmarshal decodes a tempo map from either .json or .yml contents.
func Unmarshal(b []byte, sampleRate float64) (*Map, error) {
	m := NewMap(sampleRate)
	if errJSON := json.Unmarshal(b, m); errJSON != nil {
		if errYaml := yaml.Unmarshal(b, m); errYaml != nil {
			return nil, fmt.Errorf("the tempo map could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	return m, nil
}
