package handlers

import (
	"motiond/internal/dispatch"
	"motiond/internal/event"
)

// Deps bundles every concrete handler a camera needs, constructed by the
// camera pipeline from its resolved config. BuildDispatcher registers them
// against the static per-kind order table from spec §6; the order within
// each kind is itself part of the contract, so Register calls below are
// never reordered for convenience.
type Deps struct {
	SQLBinder          *SQLBinder
	ShellOnPicture     *ShellHook
	Logger             *Logger
	Beep               *Beep
	ShellOnMotion      *ShellHook
	ShellOnArea        *ShellHook
	ShellOnEventStart  *ShellHook
	MovieDriver        *MovieDriver
	ExtpipeDriver      *ExtpipeDriver
	ShellOnEventEnd    *ShellHook
	ImageWriter        *ImageWriter
	MotionImageWriter  *MotionImageWriter
	SnapshotWriter     *SnapshotWriter
	LoopbackWriter     *LoopbackWriter
	ShellOnMovieEnd    *ShellHook
	TimelapseDriver    *TimelapseDriver
	StreamPublisher    *StreamPublisher
	ShellOnCameraLost  *ShellHook
	ShellOnCameraFound *ShellHook
}

// BuildDispatcher assembles the dispatcher with the exact handler order
// spec §6 specifies for every event kind. A nil field in deps is simply
// skipped, so a camera with extpipe or SQL disabled still builds the rest
// of the table unchanged.
func BuildDispatcher(deps Deps) *dispatch.Dispatcher {
	b := dispatch.NewBuilder()

	registerIf(b, event.FileCreate, "sql-binder", handlerOf(deps.SQLBinder))
	registerIf(b, event.FileCreate, "shell-on-picture-or-movie", handlerOf(deps.ShellOnPicture))
	registerIf(b, event.FileCreate, "log", handlerOf(deps.Logger))

	registerIf(b, event.MotionDetected, "beep", handlerOf(deps.Beep))
	registerIf(b, event.MotionDetected, "shell-on-motion-detected", handlerOf(deps.ShellOnMotion))

	registerIf(b, event.AreaDetected, "shell-on-area-detected", handlerOf(deps.ShellOnArea))

	registerIf(b, event.FirstMotion, "sql-start", handlerOf(deps.SQLBinder))
	registerIf(b, event.FirstMotion, "shell-on-event-start", handlerOf(deps.ShellOnEventStart))
	registerIf(b, event.FirstMotion, "movie-driver-open", handlerOf(deps.MovieDriver))
	registerIf(b, event.FirstMotion, "extpipe-open", handlerOf(deps.ExtpipeDriver))

	registerIf(b, event.EndMotion, "shell-on-event-end", handlerOf(deps.ShellOnEventEnd))
	registerIf(b, event.EndMotion, "movie-driver-close", handlerOf(deps.MovieDriver))
	registerIf(b, event.EndMotion, "extpipe-close", handlerOf(deps.ExtpipeDriver))

	registerIf(b, event.ImageDetected, "image-writer", handlerOf(deps.ImageWriter))
	registerIf(b, event.ImageDetected, "movie-pusher", handlerOf(deps.MovieDriver))
	registerIf(b, event.ImageDetected, "extpipe-pusher", handlerOf(deps.ExtpipeDriver))

	registerIf(b, event.ImagemDetected, "motion-image-writer", handlerOf(deps.MotionImageWriter))

	registerIf(b, event.ImageSnapshot, "snapshot-writer", handlerOf(deps.SnapshotWriter))

	registerIf(b, event.ImageFrame, "loopback-pusher", handlerOf(deps.LoopbackWriter))
	registerIf(b, event.ImagemFrame, "loopback-pusher", handlerOf(deps.LoopbackWriter))

	registerIf(b, event.FfmpegPut, "movie-pusher", handlerOf(deps.MovieDriver))
	registerIf(b, event.FfmpegPut, "extpipe-pusher", handlerOf(deps.ExtpipeDriver))

	registerIf(b, event.FileClose, "shell-on-movie-end", handlerOf(deps.ShellOnMovieEnd))

	registerIf(b, event.Timelapse, "timelapse-pusher", handlerOf(deps.TimelapseDriver))
	registerIf(b, event.TimelapseEnd, "timelapse-closer", handlerOf(deps.TimelapseDriver))

	registerIf(b, event.StreamTick, "stream-publisher", handlerOf(deps.StreamPublisher))

	registerIf(b, event.CameraLost, "shell-on-camera-lost", handlerOf(deps.ShellOnCameraLost))
	registerIf(b, event.CameraFound, "shell-on-camera-found", handlerOf(deps.ShellOnCameraFound))

	registerIf(b, event.Stop, "stream-stop", handlerOf(deps.StreamPublisher))

	return b.Build()
}

// handler is the subset every concrete handler type in this package
// implements; registerIf takes it as an interface so Deps can hold typed
// pointers while wiring stays generic.
type handler interface {
	Handle(event.Call)
}

// handlerOf returns h as the handler interface, or nil if h is a nil
// typed pointer. A plain `h` conversion would keep the typed-nil wrapped
// in a non-nil interface, which registerIf would then register and call.
func handlerOf[T any](h *T) handler {
	if h == nil {
		return nil
	}
	return any(h).(handler)
}

func registerIf(b *dispatch.Builder, kind event.Kind, name string, h handler) {
	if h == nil {
		return
	}
	b.Register(kind, name, h.Handle)
}
