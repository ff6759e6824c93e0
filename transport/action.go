package transport

import zrythm "github.com/zrythm/zrythm-sub015"

type (
	// Action is a transport command, for binding to a GUI button or a key.
	// Action advertises whether it is enabled, so the GUI can gray out
	// buttons when the command is not allowed.
	Action struct {
		doer Doer
	}

	Doer interface {
		Do()
	}

	Enabler interface {
		Enabled() bool
	}
)

// Action methods

func MakeAction(doer Doer) Action {
	return Action{doer: doer}
}

func (a Action) Do() {
	e, ok := a.doer.(Enabler)
	if ok && !e.Enabled() {
		return
	}
	if a.doer != nil {
		a.doer.Do()
	}
}

func (a Action) Enabled() bool {
	if a.doer == nil {
		return false // no doer, not allowed
	}
	e, ok := a.doer.(Enabler)
	if !ok {
		return true // not enabler, always allowed
	}
	return e.Enabled()
}

// roll
type roll Transport

func (t *Transport) Roll() Action { return MakeAction((*roll)(t)) }
func (m *roll) Enabled() bool {
	return !(*Transport)(m).Exporting() && (*Transport)(m).PlayState() != zrythm.Rolling
}
func (m *roll) Do() { (*Transport)(m).RequestRoll() }

// pause
type pause Transport

func (t *Transport) Pause() Action { return MakeAction((*pause)(t)) }
func (m *pause) Enabled() bool {
	return !(*Transport)(m).Exporting() && (*Transport)(m).PlayState() == zrythm.Rolling
}
func (m *pause) Do() { (*Transport)(m).RequestPause() }

// backward
type backward Transport

func (t *Transport) Backward() Action { return MakeAction((*backward)(t)) }
func (m *backward) Enabled() bool     { return !(*Transport)(m).Exporting() }
func (m *backward) Do()               { (*Transport)(m).MoveBackward() }

// forward
type forward Transport

func (t *Transport) Forward() Action { return MakeAction((*forward)(t)) }
func (m *forward) Enabled() bool     { return !(*Transport)(m).Exporting() }
func (m *forward) Do()               { (*Transport)(m).MoveForward() }

// returnToCue
type returnToCue Transport

func (t *Transport) ReturnToCue() Action { return MakeAction((*returnToCue)(t)) }
func (m *returnToCue) Enabled() bool     { return !(*Transport)(m).Exporting() }
func (m *returnToCue) Do() {
	t := (*Transport)(m)
	t.MovePlayhead(t.CuePosition(), false)
}
