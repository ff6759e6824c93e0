package position

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Data is the persisted form of a position.
type Data struct {
	Mode  Mode    `json:"mode" yaml:"mode"`
	Value float64 `json:"value" yaml:"value"`
}

// Validate reports whether the value is finite and non-negative.
func (d Data) Validate() error {
	if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) || d.Value < 0 {
		return fmt.Errorf("position value must be finite and non-negative, got %v", d.Value)
	}
	return nil
}

// Data returns a consistent snapshot of the stored mode and value.
func (a *Atomic) Data() Data {
	p := a.load()
	return Data{Mode: p.mode(), Value: p.value()}
}

// SetData stores a snapshot as is, without conversion.
func (a *Atomic) SetData(d Data) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Mode != Musical && d.Mode != Absolute {
		return fmt.Errorf("unknown position mode %d", uint64(d.Mode))
	}
	a.store(d.Value, d.Mode)
	return nil
}

func (a *Atomic) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Data())
}

func (a *Atomic) UnmarshalJSON(b []byte) error {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	return a.SetData(d)
}

func (a *Atomic) MarshalYAML() (interface{}, error) {
	return a.Data(), nil
}

func (a *Atomic) UnmarshalYAML(value *yaml.Node) error {
	var d Data
	if err := value.Decode(&d); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	return a.SetData(d)
}
