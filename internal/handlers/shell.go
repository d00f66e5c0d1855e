package handlers

import (
	"log"
	"os/exec"
	"time"

	"motiond/internal/event"
)

// ShellHook runs a single strftime_plus-expanded shell command for one
// EventKind, e.g. on_motion_detected or on_camera_lost. Go has no fork+
// execl; os/exec with /bin/sh -c is the idiomatic equivalent, the same
// pattern the teacher uses to shell out to ffmpeg.
//
// Each configured on_* script gets its own ShellHook instance registered
// against the one EventKind it fires for (spec §4.6), matching the
// original's one-exec_command-per-hook structure rather than a single
// handler branching on every kind.
type ShellHook struct {
	Command    string
	RenderName TemplateFunc
	FileTypeOf FileTypeMatcher // nil means the hook runs unconditionally
	Log        *log.Logger
}

// FileTypeMatcher gates a hook to only the FileType bits it cares about,
// e.g. on_picture_save firing only for ImageAny.
type FileTypeMatcher = func(event.FileType) bool

func ImageFileTypes(t event.FileType) bool { return t.Any(event.ImageAny) }
func MovieFileTypes(t event.FileType) bool { return t.Any(event.MovieAny) }

// PictureOrMovieFileTypes matches on_picture_save's FTYPE_IMAGE_ANY check
// and on_movie_start's FTYPE_MPEG_ANY check folded into the single
// shell-on-picture-or-movie slot spec §6's FileCreate entry names.
func PictureOrMovieFileTypes(t event.FileType) bool { return t.Any(event.ImageAny | event.MovieAny) }

func (h *ShellHook) Handle(call event.Call) {
	if h.Command == "" {
		return
	}
	if h.FileTypeOf != nil && !h.FileTypeOf(call.FileType) {
		return
	}
	expanded := h.RenderName(h.Command, time.Unix(0, call.Timestamp))
	cmd := exec.Command("/bin/sh", "-c", expanded)
	if err := cmd.Start(); err != nil {
		logger(h.Log).Printf("camera_id=%s event_kind=%s error_kind=shell error=%q", call.CameraID, call.Kind, err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logger(h.Log).Printf("camera_id=%s event_kind=%s error_kind=shell error=%q", call.CameraID, call.Kind, err)
		}
	}()
}
