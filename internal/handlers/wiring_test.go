package handlers

import (
	"reflect"
	"testing"

	"motiond/internal/event"
)

// TestBuildDispatcherMatchesEventTable asserts the per-kind handler order
// against spec §6's literal table, with every optional handler enabled so
// every row is exercised.
func TestBuildDispatcherMatchesEventTable(t *testing.T) {
	deps := Deps{
		SQLBinder:          &SQLBinder{},
		ShellOnPicture:     &ShellHook{},
		Logger:             &Logger{},
		Beep:               &Beep{},
		ShellOnMotion:      &ShellHook{},
		ShellOnArea:        &ShellHook{},
		ShellOnEventStart:  &ShellHook{},
		MovieDriver:        &MovieDriver{},
		ExtpipeDriver:      &ExtpipeDriver{},
		ShellOnEventEnd:    &ShellHook{},
		ImageWriter:        &ImageWriter{},
		MotionImageWriter:  &MotionImageWriter{},
		SnapshotWriter:     &SnapshotWriter{},
		LoopbackWriter:     &LoopbackWriter{},
		ShellOnMovieEnd:    &ShellHook{},
		TimelapseDriver:    &TimelapseDriver{},
		StreamPublisher:    &StreamPublisher{},
		ShellOnCameraLost:  &ShellHook{},
		ShellOnCameraFound: &ShellHook{},
	}
	d := BuildDispatcher(deps)

	want := map[event.Kind][]string{
		event.FileCreate:      {"sql-binder", "shell-on-picture-or-movie", "log"},
		event.MotionDetected:  {"beep", "shell-on-motion-detected"},
		event.AreaDetected:    {"shell-on-area-detected"},
		event.FirstMotion:     {"sql-start", "shell-on-event-start", "movie-driver-open", "extpipe-open"},
		event.EndMotion:       {"shell-on-event-end", "movie-driver-close", "extpipe-close"},
		event.ImageDetected:   {"image-writer", "movie-pusher", "extpipe-pusher"},
		event.ImagemDetected:  {"motion-image-writer"},
		event.ImageSnapshot:   {"snapshot-writer"},
		event.ImageFrame:      {"loopback-pusher"},
		event.ImagemFrame:     {"loopback-pusher"},
		event.FfmpegPut:       {"movie-pusher", "extpipe-pusher"},
		event.FileClose:       {"shell-on-movie-end"},
		event.Timelapse:       {"timelapse-pusher"},
		event.TimelapseEnd:    {"timelapse-closer"},
		event.StreamTick:      {"stream-publisher"},
		event.CameraLost:      {"shell-on-camera-lost"},
		event.CameraFound:     {"shell-on-camera-found"},
		event.Stop:            {"stream-stop"},
	}

	for kind, names := range want {
		got := d.HandlerNames(kind)
		if !reflect.DeepEqual(got, names) {
			t.Errorf("%s: got %v, want %v", kind, got, names)
		}
	}
}

// TestBuildDispatcherOmitsDisabledHandlers asserts that a nil dependency is
// simply absent from its kind's handler list rather than panicking.
func TestBuildDispatcherOmitsDisabledHandlers(t *testing.T) {
	d := BuildDispatcher(Deps{})
	for _, kind := range []event.Kind{
		event.FileCreate, event.MotionDetected, event.FirstMotion, event.EndMotion,
	} {
		if got := d.HandlerNames(kind); len(got) != 0 {
			t.Errorf("%s: want no handlers with an empty Deps, got %v", kind, got)
		}
	}
}

func TestBuildDispatcherDoesNotRegisterSQLBinderOnFileClose(t *testing.T) {
	d := BuildDispatcher(Deps{SQLBinder: &SQLBinder{}, ShellOnMovieEnd: &ShellHook{}})
	got := d.HandlerNames(event.FileClose)
	for _, name := range got {
		if name == "sql-binder" || name == "sql-stop" {
			t.Fatalf("FileClose registered a SQL handler (%q); sql_query_stop is never bound, see DESIGN.md", name)
		}
	}
}
