// Package handlers implements the side-effect leaves (C6): the concrete
// image/movie/snapshot/SQL/shell/loopback/stream handlers the dispatcher
// fans EventCalls out to (spec §4.6).
package handlers

import (
	"image/jpeg"
	"log"
	"os"
	"path/filepath"
	"time"

	"motiond/internal/event"
	"motiond/internal/imaging"
)

// PictureType selects the on-disk extension for written images. JPEG is
// the only in-scope encoder; WebP/PPM are external collaborators per spec
// §1 and are left as a future Type value once a library backs them.
type PictureType string

const PictureJPEG PictureType = "jpg"

func (p PictureType) ext() string {
	if p == "" {
		return string(PictureJPEG)
	}
	return string(p)
}

// TemplateFunc renders a filename template against the camera's static
// context and a timestamp, i.e. strftime_plus bound to that state; it
// carries no per-event values. Handlers never
// call imaging.StrftimePlus directly; the camera pipeline is the single
// place that assembles a TemplateContext.
type TemplateFunc func(template string, t time.Time) string

func logger(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.Default()
}

// writeJPEG encodes call.Image's YCbCr view and writes it to path, creating
// parent directories with mode 0755 per spec §6.
func writeJPEG(path string, call event.Call, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return jpeg.Encode(out, imaging.ToYCbCr(call.Image), &jpeg.Options{Quality: quality})
}

func qualityOrDefault(q int) int {
	if q <= 0 {
		return 75
	}
	return q
}

// ImageWriter handles ImageDetected: build target_dir/strftime_plus(template).ext
// and write the current frame.
type ImageWriter struct {
	Enabled    bool
	TargetDir  string
	Template   string
	Type       PictureType
	Quality    int
	RenderName TemplateFunc
	Log        *log.Logger
}

func (w *ImageWriter) Handle(call event.Call) {
	if !w.Enabled || call.Image == nil {
		return
	}
	name := w.RenderName(w.Template, time.Unix(0, call.Timestamp)) + "." + w.Type.ext()
	path := filepath.Join(w.TargetDir, name)
	if err := writeJPEG(path, call, qualityOrDefault(w.Quality)); err != nil {
		logger(w.Log).Printf("camera_id=%s event_kind=ImageDetected error_kind=storage error=%q", call.CameraID, err)
	}
}

// MotionImageWriter handles ImagemDetected: the same write, with an 'm'
// suffix inserted before the extension (spec §4.6).
type MotionImageWriter struct {
	Enabled    bool
	TargetDir  string
	Template   string
	Type       PictureType
	Quality    int
	RenderName TemplateFunc
	Log        *log.Logger
}

func (w *MotionImageWriter) Handle(call event.Call) {
	if !w.Enabled || call.Image == nil {
		return
	}
	name := w.RenderName(w.Template, time.Unix(0, call.Timestamp)) + "m." + w.Type.ext()
	path := filepath.Join(w.TargetDir, name)
	if err := writeJPEG(path, call, qualityOrDefault(w.Quality)); err != nil {
		logger(w.Log).Printf("camera_id=%s event_kind=ImagemDetected error_kind=storage error=%q", call.CameraID, err)
	}
}
