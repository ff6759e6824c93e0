package playhead

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zrythm/zrythm-sub015/position"
)

// Data returns the persisted form of the playhead. It is always saved in
// musical time.
func (p *Playhead) Data() position.Data {
	return position.Data{Mode: position.Musical, Value: p.PositionTicks()}
}

// SetData seeks the playhead to a persisted position. Absolute positions are
// converted to ticks with the playhead's tempo map.
func (p *Playhead) SetData(d position.Data) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("playhead: %w", err)
	}
	ticks := d.Value
	switch d.Mode {
	case position.Musical:
	case position.Absolute:
		ticks = p.m.SecondsToTick(d.Value)
	default:
		return fmt.Errorf("playhead: unknown position mode %d", uint64(d.Mode))
	}
	p.SetPositionTicks(ticks)
	return nil
}

func (p *Playhead) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Data())
}

func (p *Playhead) UnmarshalJSON(b []byte) error {
	var d position.Data
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("playhead: %w", err)
	}
	return p.SetData(d)
}

func (p *Playhead) MarshalYAML() (interface{}, error) {
	return p.Data(), nil
}

func (p *Playhead) UnmarshalYAML(value *yaml.Node) error {
	var d position.Data
	if err := value.Decode(&d); err != nil {
		return fmt.Errorf("playhead: %w", err)
	}
	return p.SetData(d)
}
