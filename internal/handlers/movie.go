package handlers

import (
	"log"
	"time"

	"motiond/internal/event"
)

// MovieDriver handles FirstMotion (open), ImageDetected/FfmpegPut (push)
// and EndMotion (close) for the primary movie output (spec §4.6). On open
// it fires FileCreate so downstream handlers (SQL, shell) see the new
// path, per the dispatch table in spec §6.
type MovieDriver struct {
	Enabled    bool
	TargetDir  string
	Template   string
	Width      int
	Height     int
	FPS        int
	NewEncoder func() MovieEncoder
	RenderName TemplateFunc
	Redispatch func(event.Call)
	Log        *log.Logger

	enc  MovieEncoder
	path string
}

func (d *MovieDriver) Handle(call event.Call) {
	if !d.Enabled {
		return
	}
	switch call.Kind {
	case event.FirstMotion:
		d.open(call)
	case event.FfmpegPut, event.ImageDetected:
		d.push(call)
	case event.EndMotion:
		d.close(call)
	}
}

func (d *MovieDriver) open(call event.Call) {
	name := d.RenderName(d.Template, time.Unix(0, call.Timestamp))
	d.path = d.TargetDir + "/" + name + ".mp4"
	d.enc = d.NewEncoder()
	if err := d.enc.Open(d.path, d.Width, d.Height, d.FPS); err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=FirstMotion error_kind=encoder error=%q", call.CameraID, err)
		d.enc = nil
		return
	}
	if d.Redispatch != nil {
		d.Redispatch(event.Call{
			Kind:      event.FileCreate,
			CameraID:  call.CameraID,
			Filename:  d.path,
			FileType:  event.Movie,
			EventID:   call.EventID,
			Timestamp: call.Timestamp,
		})
	}
}

func (d *MovieDriver) push(call event.Call) {
	if d.enc == nil || call.Image == nil {
		return
	}
	if err := d.enc.Push(call.Image); err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=FfmpegPut error_kind=encoder error=%q", call.CameraID, err)
	}
}

func (d *MovieDriver) close(call event.Call) {
	if d.enc == nil {
		return
	}
	if err := d.enc.Close(); err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=EndMotion error_kind=encoder error=%q", call.CameraID, err)
	}
	d.enc = nil
}
