package handlers

import (
	"bufio"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"motiond/internal/event"
)

// ExtpipeDriver handles FirstMotion (popen-equivalent open),
// ImageDetected/FfmpegPut (write raw YUV) and EndMotion (flush+close,
// fires FileClose) for the external-pipe collaborator, when use_extpipe
// is configured (spec §4.6).
// Go has no popen(); the equivalent is os/exec with a StdinPipe, which the
// teacher itself uses throughout for shelling out to ffmpeg.
type ExtpipeDriver struct {
	Enabled    bool
	Command    string // strftime_plus-expanded shell command
	RenderName TemplateFunc
	Redispatch func(event.Call)
	Log        *log.Logger

	cmd   *exec.Cmd
	stdin *bufio.Writer
	raw   interface{ Close() error }
}

func (d *ExtpipeDriver) Handle(call event.Call) {
	if !d.Enabled || d.Command == "" {
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

func (d *ExtpipeDriver) open(call event.Call) {
	expanded := d.RenderName(d.Command, time.Unix(0, call.Timestamp))
	if dir := filepath.Dir(expanded); dir != "." && dir != "/" {
		_ = os.MkdirAll(dir, 0o755)
	}

	d.cmd = exec.Command("/bin/sh", "-c", expanded)
	pipe, err := d.cmd.StdinPipe()
	if err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=FirstMotion error_kind=extpipe error=%q", call.CameraID, err)
		d.cmd = nil
		return
	}
	if err := d.cmd.Start(); err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=FirstMotion error_kind=extpipe error=%q", call.CameraID, err)
		d.cmd = nil
		return
	}
	d.stdin = bufio.NewWriter(pipe)
	d.raw = pipe
}

func (d *ExtpipeDriver) push(call event.Call) {
	if d.stdin == nil || call.Image == nil {
		return
	}
	if _, err := d.stdin.Write(call.Image.Pix); err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=FfmpegPut error_kind=extpipe error=%q", call.CameraID, err)
	}
}

func (d *ExtpipeDriver) close(call event.Call) {
	if d.stdin == nil {
		return
	}
	d.stdin.Flush()
	d.raw.Close()
	if err := d.cmd.Wait(); err != nil {
		logger(d.Log).Printf("camera_id=%s event_kind=EndMotion error_kind=extpipe error=%q", call.CameraID, err)
	}
	d.stdin = nil
	d.cmd = nil

	if d.Redispatch != nil {
		d.Redispatch(event.Call{Kind: event.FileClose, CameraID: call.CameraID, EventID: call.EventID, Timestamp: call.Timestamp})
	}
}
