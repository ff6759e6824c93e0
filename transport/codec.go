package transport

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zrythm/zrythm-sub015/position"
)

// Data is the persisted form of the transport.
type Data struct {
	Playhead  position.Data `json:"playhead" yaml:"playhead"`
	Cue       position.Data `json:"cuePos" yaml:"cuePos"`
	LoopStart position.Data `json:"loopStartPos" yaml:"loopStartPos"`
	LoopEnd   position.Data `json:"loopEndPos" yaml:"loopEndPos"`
	PunchIn   position.Data `json:"punchInPos" yaml:"punchInPos"`
	PunchOut  position.Data `json:"punchOutPos" yaml:"punchOutPos"`
	Loop      bool          `json:"loopEnabled" yaml:"loopEnabled"`
	Punch     bool          `json:"punchEnabled" yaml:"punchEnabled"`
	Recording bool          `json:"recordingEnabled" yaml:"recordingEnabled"`
}

func (t *Transport) Data() Data {
	return Data{
		Playhead:  t.playhead.Data(),
		Cue:       t.cue.Data(),
		LoopStart: t.loopStart.Data(),
		LoopEnd:   t.loopEnd.Data(),
		PunchIn:   t.punchIn.Data(),
		PunchOut:  t.punchOut.Data(),
		Loop:      t.LoopEnabled(),
		Punch:     t.PunchEnabled(),
		Recording: t.RecordingEnabled(),
	}
}

// SetData restores a persisted transport. All positions are validated before
// anything is changed.
func (t *Transport) SetData(d Data) error {
	scratch := New(t.m)
	for _, p := range []struct {
		name string
		data position.Data
		dst  interface{ SetData(position.Data) error }
	}{
		{"playhead", d.Playhead, scratch.playhead},
		{"cue", d.Cue, scratch.cue},
		{"loop start", d.LoopStart, scratch.loopStart},
		{"loop end", d.LoopEnd, scratch.loopEnd},
		{"punch in", d.PunchIn, scratch.punchIn},
		{"punch out", d.PunchOut, scratch.punchOut},
	} {
		if err := p.dst.SetData(p.data); err != nil {
			return fmt.Errorf("transport %s: %w", p.name, err)
		}
	}
	if s, e := scratch.LoopRange(); e <= s {
		return fmt.Errorf("transport loop: %w: start %v, end %v", ErrInvalidRange, s, e)
	}
	if i, o := scratch.PunchRange(); o <= i {
		return fmt.Errorf("transport punch: %w: in %v, out %v", ErrInvalidRange, i, o)
	}
	t.playhead.SetData(d.Playhead)
	t.gridJump, t.markerJump = backwardJump{}, backwardJump{}
	t.cue.SetData(d.Cue)
	t.loopStart.SetData(d.LoopStart)
	t.loopEnd.SetData(d.LoopEnd)
	t.punchIn.SetData(d.PunchIn)
	t.punchOut.SetData(d.PunchOut)
	t.SetLoopEnabled(d.Loop)
	t.SetPunchEnabled(d.Punch)
	t.SetRecordingEnabled(d.Recording)
	return nil
}

func (t *Transport) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Data())
}

// UnmarshalJSON keeps the current value of fields missing from b.
func (t *Transport) UnmarshalJSON(b []byte) error {
	d := t.Data()
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	return t.SetData(d)
}

func (t *Transport) MarshalYAML() (interface{}, error) {
	return t.Data(), nil
}

func (t *Transport) UnmarshalYAML(value *yaml.Node) error {
	d := t.Data()
	if err := value.Decode(&d); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	return t.SetData(d)
}
