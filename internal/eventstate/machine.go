// Package eventstate implements the event state machine (C4): it turns a
// frame-by-frame stream of detector verdicts into the high-level event
// calls the dispatcher fans out, applying the hysteresis rules (pre-capture
// ring, minimum-motion-frames arming, post-capture event-gap) from spec §4.4.
package eventstate

import (
	"motiond/internal/detector"
	"motiond/internal/event"
	"motiond/internal/frame"
)

// Mode is the machine's current phase.
type Mode int

const (
	Idle Mode = iota
	Active
	Gap
)

// Config holds the per-camera timing parameters that drive hysteresis.
type Config struct {
	MinimumMotionFrames int
	EventGap            int
	PreCapture          int
}

// Machine is one camera's event state. It is not safe for concurrent use;
// the camera pipeline owns it and calls Tick from a single goroutine.
type Machine struct {
	cameraID string
	cfg      Config
	ring     *frame.Ring

	mode         Mode
	armingCount  int
	gapRemaining int

	eventID     uint64
	nextEventID uint64
	areaFired   bool
}

// New constructs a Machine for one camera. cfg.PreCapture sizes the
// pre-capture ring to pre_capture+3 slots, per spec §3.
func New(cameraID string, cfg Config) *Machine {
	return &Machine{
		cameraID: cameraID,
		cfg:      cfg,
		ring:     frame.NewRing(cfg.PreCapture + 3),
	}
}

// Tick advances the machine by one frame and returns the EventCalls emitted
// this tick, in firing order. manualTrigger bypasses arming and transitions
// directly into Active, as spec §4.4 allows for a user-triggered event.
func (m *Machine) Tick(f *frame.Frame, v detector.Verdict, manualTrigger bool) []event.Call {
	var calls []event.Call

	switch m.mode {
	case Idle:
		m.ring.Push(f)
		switch {
		case manualTrigger:
			calls = append(calls, m.enterActive(f)...)
			calls = append(calls, m.activeFrameEvents(f, v)...)
			m.mode = Active
		case v.Motion:
			m.armingCount++
			if m.armingCount >= minArming(m.cfg.MinimumMotionFrames) {
				calls = append(calls, m.enterActive(f)...)
				calls = append(calls, m.activeFrameEvents(f, v)...)
				m.mode = Active
			}
		default:
			m.armingCount = 0
		}

	case Active:
		if v.Motion {
			calls = append(calls, m.activeFrameEvents(f, v)...)
		} else {
			m.mode = Gap
			m.gapRemaining = m.cfg.EventGap
			if m.gapRemaining <= 0 {
				calls = append(calls, m.endEvent()...)
			}
		}

	case Gap:
		calls = append(calls, event.Call{Kind: event.FfmpegPut, CameraID: m.cameraID, Image: f, EventID: m.eventID})
		if v.Motion {
			m.mode = Active
			calls = append(calls, m.activeFrameEvents(f, v)...)
			break
		}
		m.gapRemaining--
		if m.gapRemaining <= 0 {
			calls = append(calls, m.endEvent()...)
		}
	}

	return calls
}

// minArming normalizes minimum_motion_frames<=0 to 1, so motion fires on
// the first positive frame with no arming delay (spec §8 boundary case).
func minArming(configured int) int {
	if configured <= 0 {
		return 1
	}
	return configured
}

// enterActive assigns a new event_id, fires FirstMotion, and drains the
// pre-capture ring into the per-frame event set, oldest first.
func (m *Machine) enterActive(current *frame.Frame) []event.Call {
	m.nextEventID++
	m.eventID = m.nextEventID
	m.areaFired = false

	calls := []event.Call{{Kind: event.FirstMotion, CameraID: m.cameraID, Image: current, EventID: m.eventID}}
	for _, rf := range m.ring.Drain() {
		calls = append(calls, m.frameEventSet(rf)...)
	}
	return calls
}

// activeFrameEvents fires the per-motion-frame event set for the current
// frame, plus AreaDetected at most once per event.
func (m *Machine) activeFrameEvents(f *frame.Frame, v detector.Verdict) []event.Call {
	calls := m.frameEventSet(f)
	if v.AreaDetected && !m.areaFired {
		calls = append(calls, event.Call{Kind: event.AreaDetected, CameraID: m.cameraID, Image: f, EventID: m.eventID})
		m.areaFired = true
	}
	return calls
}

func (m *Machine) frameEventSet(f *frame.Frame) []event.Call {
	kinds := []event.Kind{event.ImageDetected, event.ImagemDetected, event.FfmpegPut, event.ImageFrame, event.ImagemFrame}
	calls := make([]event.Call, 0, len(kinds))
	for _, k := range kinds {
		calls = append(calls, event.Call{Kind: k, CameraID: m.cameraID, Image: f, EventID: m.eventID})
	}
	return calls
}

// endEvent fires EndMotion and FileClose for every open movie-shaped file
// type, then resets to Idle. Handlers with nothing open treat FileClose as
// a no-op.
func (m *Machine) endEvent() []event.Call {
	id := m.eventID
	calls := []event.Call{
		{Kind: event.EndMotion, CameraID: m.cameraID, EventID: id},
		{Kind: event.FileClose, CameraID: m.cameraID, FileType: event.MovieAny, EventID: id},
	}
	m.mode = Idle
	m.gapRemaining = 0
	m.armingCount = 0
	return calls
}

// Stop cascades into EndMotion+FileClose if an event was open, per spec
// §4.4's shutdown rule, then resets the machine to Idle.
func (m *Machine) Stop() []event.Call {
	calls := []event.Call{{Kind: event.Stop, CameraID: m.cameraID, EventID: m.eventID}}
	if m.mode != Idle {
		calls = append(calls, m.endEvent()...)
	}
	return calls
}

// Mode reports the machine's current phase, mainly for tests and SIGUSR1
// state dumps.
func (m *Machine) Mode() Mode {
	return m.mode
}

// EventID reports the event_id of the currently open (or most recently
// closed) event.
func (m *Machine) EventID() uint64 {
	return m.eventID
}
