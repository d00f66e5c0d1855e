package handlers

import (
	"log"
	"time"

	"motiond/internal/event"
)

// timelapseMode selects whether Timelapse sessions accumulate into one
// file or start a fresh one each rollover (spec §4.6).
type timelapseMode int

const (
	modeNew timelapseMode = iota
	modeAppend
)

// TimelapseDriver handles Timelapse (push/open) and TimelapseEnd (close)
// with its own encoder instance, distinct from MovieDriver's. Codec `mpg`
// selects APPEND mode; `swf` is accepted but silently mapped to `mpg`;
// everything else (default `mpeg4`) selects NEW mode.
type TimelapseDriver struct {
	Enabled    bool
	TargetDir  string
	Template   string
	Codec      string
	Width      int
	Height     int
	FPS        int
	NewEncoder func() MovieEncoder
	RenderName TemplateFunc
	Log        *log.Logger

	enc  MovieEncoder
	path string
}

func (d *TimelapseDriver) mode() (timelapseMode, string) {
	codec := d.Codec
	if codec == "swf" {
		codec = "mpg"
	}
	if codec == "mpg" {
		return modeAppend, codec
	}
	return modeNew, codec
}

func (d *TimelapseDriver) Handle(call event.Call) {
	if !d.Enabled {
		return
	}
	switch call.Kind {
	case event.Timelapse:
		d.push(call)
	case event.TimelapseEnd:
		d.end(call)
	}
}

func (d *TimelapseDriver) push(call event.Call) {
	mode, _ := d.mode()
	if d.enc == nil {
		name := d.RenderName(d.Template, time.Unix(0, call.Timestamp))
		d.path = d.TargetDir + "/" + name + ".avi"
		d.enc = d.NewEncoder()
		if err := d.enc.Open(d.path, d.Width, d.Height, d.FPS); err != nil {
			logger(d.Log).Printf("camera_id=%s event_kind=Timelapse error_kind=encoder error=%q", call.CameraID, err)
			d.enc = nil
			return
		}
	}
	if call.Image != nil {
		if err := d.enc.Push(call.Image); err != nil {
			logger(d.Log).Printf("camera_id=%s event_kind=Timelapse error_kind=encoder error=%q", call.CameraID, err)
		}
	}
	if mode == modeNew {
		// NEW mode still closes at rollover via TimelapseEnd; nothing
		// further to do here per push.
		return
	}
}

func (d *TimelapseDriver) end(call event.Call) {
	mode, _ := d.mode()
	if mode == modeAppend {
		// APPEND mode keeps the encoder (and file) open across sessions;
		// a rollover changes nothing.
		return
	}
	if d.enc == nil {
		return
	}
	if err := d.enc.Close(); err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=TimelapseEnd error_kind=encoder error=%q", call.CameraID, err)
	}
	d.enc = nil
}
