package transport

import zrythm "github.com/zrythm/zrythm-sub015"

type (
	// Bool is a toggleable transport flag, for binding to a GUI switch.
	Bool struct {
		BoolData
	}

	BoolData interface {
		Value() bool
		Enabled() bool
		setValue(bool)
	}

	Loop      Transport
	Punch     Transport
	Recording Transport
	Rolling   Transport
)

func (v Bool) Toggle() {
	v.Set(!v.Value())
}

func (v Bool) Set(value bool) {
	if v.Enabled() && v.Value() != value {
		v.setValue(value)
	}
}

// Transport methods

func (t *Transport) Loop() Bool      { return Bool{(*Loop)(t)} }
func (t *Transport) Punch() Bool     { return Bool{(*Punch)(t)} }
func (t *Transport) Recording() Bool { return Bool{(*Recording)(t)} }
func (t *Transport) Rolling() Bool   { return Bool{(*Rolling)(t)} }

// Loop methods

func (m *Loop) Value() bool       { return (*Transport)(m).LoopEnabled() }
func (m *Loop) setValue(val bool) { (*Transport)(m).SetLoopEnabled(val) }
func (m *Loop) Enabled() bool     { return true }

// Punch methods

func (m *Punch) Value() bool       { return (*Transport)(m).PunchEnabled() }
func (m *Punch) setValue(val bool) { (*Transport)(m).SetPunchEnabled(val) }
func (m *Punch) Enabled() bool     { return true }

// Recording methods

func (m *Recording) Value() bool       { return (*Transport)(m).RecordingEnabled() }
func (m *Recording) setValue(val bool) { (*Transport)(m).SetRecordingEnabled(val) }
func (m *Recording) Enabled() bool     { return !(*Transport)(m).Exporting() }

// Rolling methods

func (m *Rolling) Value() bool { return (*Transport)(m).PlayState() == zrythm.Rolling }
func (m *Rolling) setValue(val bool) {
	if val {
		(*Transport)(m).RequestRoll()
	} else {
		(*Transport)(m).RequestPause()
	}
}
func (m *Rolling) Enabled() bool { return !(*Transport)(m).Exporting() }
