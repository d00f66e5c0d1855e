// Package camerapipe implements the camera loop (C7): the per-camera
// goroutine that pulls frames from a source, applies the pure image
// primitives, runs the motion detector, advances the event state machine,
// fans calls out through the dispatcher, folds in the secondary detector's
// verdict, and watches for a stalled source to declare the camera lost.
package camerapipe

import (
	"context"
	"log"
	"time"

	"motiond/internal/detector"
	"motiond/internal/dispatch"
	"motiond/internal/event"
	"motiond/internal/eventstate"
	"motiond/internal/frame"
	"motiond/internal/imaging"
	"motiond/internal/secondary"
	"motiond/internal/source"
)

// Pipeline owns one camera's full processing chain. It is not safe for
// concurrent use; Run owns it for the camera's lifetime.
type Pipeline struct {
	Profile    Profile
	Source     source.FrameSource
	Dispatcher *dispatch.Dispatcher
	Log        *log.Logger

	Secondary *secondary.Runner

	detector      *detector.Detector
	machine       *eventstate.Machine
	scratch       *imaging.Scratch
	lastStreamTick time.Time
}

// New constructs a Pipeline ready to Run. The detector is sized from
// profile's width/height (post-rotation, if a 90/270 rotation is
// configured the dimensions swap).
func New(profile Profile, src source.FrameSource, dispatcher *dispatch.Dispatcher, logger *log.Logger) *Pipeline {
	w, h := profile.Width, profile.Height
	if profile.Rotate == 90 || profile.Rotate == 270 {
		w, h = h, w
	}
	return &Pipeline{
		Profile:    profile,
		Source:     src,
		Dispatcher: dispatcher,
		Log:        logger,
		detector:   detector.New(w, h, profile.Detector),
		machine:    eventstate.New(profile.ID, profile.EventState),
		scratch:    &imaging.Scratch{},
	}
}

// Run drives the camera loop until ctx is canceled, then fires Stop through
// the dispatcher and returns. device_tmo is the per-frame read deadline.
// The first NextFrame error of any kind, a timeout included, fires
// CameraLost; the error kind is only logged. After every error Run waits
// source.ReconnectBackoff and reads from the same source again; it does not
// reopen it. The next good frame fires CameraFound.
func (p *Pipeline) Run(ctx context.Context) {
	deadline := time.Duration(p.Profile.DeviceTimeoutSeconds) * time.Second
	if deadline <= 0 {
		deadline = 30 * time.Second
	}

	lost := false
	for {
		select {
		case <-ctx.Done():
			p.dispatchAll(p.machine.Stop())
			return
		default:
		}

		f, err := p.Source.NextFrame(ctx, deadline)
		if err != nil {
			if ctx.Err() != nil {
				p.dispatchAll(p.machine.Stop())
				return
			}
			se := source.AsSourceError(err)
			p.Log.Printf("camera_id=%s error_kind=%s error=%q", p.Profile.ID, se.Kind, se.Err)
			if !lost {
				lost = true
				p.dispatchAll([]event.Call{{Kind: event.CameraLost, CameraID: p.Profile.ID}})
			}
			select {
			case <-ctx.Done():
				p.dispatchAll(p.machine.Stop())
				return
			case <-time.After(source.ReconnectBackoff):
			}
			continue
		}

		if lost {
			lost = false
			p.dispatchAll([]event.Call{{Kind: event.CameraFound, CameraID: p.Profile.ID}})
		}

		p.processFrame(ctx, f)
	}
}

// processFrame runs one frame through rotate/flip, overlay, detection, the
// state machine and the secondary-detector fold, then dispatches every
// resulting EventCall.
func (p *Pipeline) processFrame(ctx context.Context, f *frame.Frame) {
	if p.Profile.Rotate != 0 || p.Profile.Flip != imaging.FlipNone {
		if err := imaging.Rotate(f, p.Profile.Rotate, p.Profile.Flip, p.scratch); err != nil {
			p.Log.Printf("camera_id=%s error_kind=rotate error=%q", p.Profile.ID, err)
			return
		}
	}

	verdict := p.detector.Detect(f.YPlane(), f.Width, f.Height)
	if verdict.Error {
		p.detector = detector.New(f.Width, f.Height, p.Profile.Detector)
		verdict = p.detector.Detect(f.YPlane(), f.Width, f.Height)
	}

	if p.Profile.SecondaryInterval > 0 && p.Secondary != nil {
		p.Secondary.Offer(ctx, f)
		if v, ok := p.Secondary.Mailbox.TryDrain(); ok {
			verdict.Motion = verdict.Motion && v.Confirmed
		}
	}

	if verdict.Motion && p.Profile.LocateMotionMode != "" && p.Profile.LocateMotionMode != "off" {
		box := verdict.Bbox
		imaging.OverlayText(f, imaging.Rect{X: box.MinX, Y: box.MinY, W: box.Width(), H: box.Height()}, "M", p.Profile.TextScale)
	}

	calls := p.machine.Tick(f, verdict, false)
	if verdict.Motion {
		calls = append([]event.Call{{Kind: event.MotionDetected, CameraID: p.Profile.ID, Image: f, EventID: p.machine.EventID()}}, calls...)
	}
	if p.dueForStreamTick() {
		calls = append(calls, event.Call{Kind: event.StreamTick, CameraID: p.Profile.ID, Image: f})
	}
	p.dispatchAll(calls)
}

// dueForStreamTick gates StreamTick emission by stream_maxrate, so a
// connected stream viewer gets at most StreamMaxRate JPEGs per second
// regardless of the camera's capture framerate. StreamMaxRate <= 0 means
// unlimited, matching the original's "0 = no limit" convention.
func (p *Pipeline) dueForStreamTick() bool {
	if p.Profile.StreamMaxRate <= 0 {
		p.lastStreamTick = time.Now()
		return true
	}
	now := time.Now()
	minInterval := time.Second / time.Duration(p.Profile.StreamMaxRate)
	if !p.lastStreamTick.IsZero() && now.Sub(p.lastStreamTick) < minInterval {
		return false
	}
	p.lastStreamTick = now
	return true
}

func (p *Pipeline) dispatchAll(calls []event.Call) {
	for _, c := range calls {
		p.Dispatcher.Dispatch(c)
	}
}
