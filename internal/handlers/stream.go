package handlers

import (
	"bytes"
	"image/jpeg"
	"log"
	"sync/atomic"

	"motiond/internal/event"
	"motiond/internal/imaging"
)

// LoopbackDevice is the v4l2loopback write seam, kept as an interface so
// the handler is testable without a real device node (spec §4.6).
type LoopbackDevice interface {
	Write(pix []byte) error
}

// LoopbackWriter pushes every ImageFrame/ImagemFrame straight to a v4l2
// loopback device, mirroring the live feed for other consumers on the
// host to read as a normal video device.
type LoopbackWriter struct {
	Enabled bool
	Device  LoopbackDevice
	Log     *log.Logger
}

func (w *LoopbackWriter) Handle(call event.Call) {
	if !w.Enabled || w.Device == nil || call.Image == nil {
		return
	}
	if call.Kind != event.ImageFrame && call.Kind != event.ImagemFrame {
		return
	}
	if err := w.Device.Write(call.Image.Pix); err != nil {
		logger(w.Log).Printf("camera_id=%s event_kind=%s error_kind=loopback error=%q", call.CameraID, call.Kind, err)
	}
}

// StreamPublisher JPEG-encodes the current frame on StreamTick and hands
// it to Publish, but only when at least one client is connected; encoding
// for no audience is wasted CPU on an embedded box. ClientCount is an
// atomic pointer so the stream server package can update it without this
// handler taking a lock.
type StreamPublisher struct {
	Enabled     bool
	ClientCount *int32
	Quality     int
	Publish     func(cameraID string, jpegBytes []byte)
	Log         *log.Logger

	stopped bool
}

func (p *StreamPublisher) Handle(call event.Call) {
	if !p.Enabled {
		return
	}
	switch call.Kind {
	case event.StreamTick:
		p.publish(call)
	case event.Stop:
		p.stopped = true
	}
}

func (p *StreamPublisher) publish(call event.Call) {
	if p.stopped || call.Image == nil || p.Publish == nil {
		return
	}
	if p.ClientCount != nil && atomic.LoadInt32(p.ClientCount) <= 0 {
		return
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, imaging.ToYCbCr(call.Image), &jpeg.Options{Quality: qualityOrDefault(p.Quality)}); err != nil {
		logger(p.Log).Printf("camera_id=%s event_kind=StreamTick error_kind=encode error=%q", call.CameraID, err)
		return
	}
	p.Publish(call.CameraID, buf.Bytes())
}

// Beep rings the terminal bell on MotionDetected unless quiet is set, the
// same audible cue the original gives an operator watching a console.
type Beep struct {
	Quiet bool
}

func (b *Beep) Handle(call event.Call) {
	if b.Quiet || call.Kind != event.MotionDetected {
		return
	}
	print("\a")
}

// Logger writes one structured line per FileCreate, grounded on the
// teacher's zerolog-style key=value log lines.
type Logger struct {
	Log *log.Logger
}

func (l *Logger) Handle(call event.Call) {
	logger(l.Log).Printf("camera_id=%s event_kind=%s filename=%q file_type=%d event_id=%d", call.CameraID, call.Kind, call.Filename, call.FileType, call.EventID)
}
