package transport

import "time"

type (
	// Broker carries transport notifications to the GUI. Sends never block:
	// if the GUI is not keeping up, notifications are dropped, and the GUI
	// is expected to poll the getters to catch up.
	Broker struct {
		ToGUI chan Event
	}

	// Event is a notification of a change of the transport state, sent after
	// the change has been made.
	Event struct {
		Kind    EventKind
		Ticks   float64 // new position, for position kinds
		Value   bool    // new value, for flag kinds
		Message string  // for EventAlert
	}

	EventKind int
)

const (
	EventNone EventKind = iota
	EventPlayState
	EventPlayhead
	EventCue
	EventLoopRange
	EventPunchRange
	EventLoop
	EventPunch
	EventRecording
	EventExporting
	// EventAlert carries a message to be shown to the user.
	EventAlert
)

func NewBroker() *Broker {
	return &Broker{ToGUI: make(chan Event, 1024)}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}

func (k EventKind) String() string {
	switch k {
	case EventPlayState:
		return "PlayState"
	case EventPlayhead:
		return "Playhead"
	case EventCue:
		return "Cue"
	case EventLoopRange:
		return "LoopRange"
	case EventPunchRange:
		return "PunchRange"
	case EventLoop:
		return "Loop"
	case EventPunch:
		return "Punch"
	case EventRecording:
		return "Recording"
	case EventExporting:
		return "Exporting"
	case EventAlert:
		return "Alert"
	}
	return "None"
}
