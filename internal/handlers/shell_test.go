package handlers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"motiond/internal/event"
)

func TestShellHookRunsExpandedCommand(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	h := &ShellHook{
		Command:    "touch " + marker,
		RenderName: func(template string, _ time.Time) string { return template },
	}

	h.Handle(event.Call{CameraID: "cam0", Kind: event.MotionDetected})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("shell command did not run within the deadline")
}

func TestShellHookEmptyCommandIsNoop(t *testing.T) {
	h := &ShellHook{RenderName: identityRender}
	h.Handle(event.Call{Kind: event.MotionDetected})
}

func TestShellHookFileTypeGate(t *testing.T) {
	ran := false
	h := &ShellHook{
		Command:    "true",
		RenderName: identityRender,
		FileTypeOf: func(t event.FileType) bool { ran = t.Any(event.ImageAny); return ran },
	}
	h.Handle(event.Call{Kind: event.FileCreate, FileType: event.Movie})
	if ran {
		t.Fatal("FileTypeOf should have rejected a Movie FileType")
	}
}

func TestPictureOrMovieFileTypesMatchesBothFamilies(t *testing.T) {
	if !PictureOrMovieFileTypes(event.Image) {
		t.Fatal("expected Image to match")
	}
	if !PictureOrMovieFileTypes(event.MovieTimelapse) {
		t.Fatal("expected MovieTimelapse to match")
	}
	if PictureOrMovieFileTypes(0) {
		t.Fatal("expected zero FileType not to match")
	}
}
