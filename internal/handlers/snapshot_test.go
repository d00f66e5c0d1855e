package handlers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"motiond/internal/event"
	"motiond/internal/frame"
)

func testFrame() *frame.Frame {
	return frame.New(16, 16)
}

func identityRender(template string, _ time.Time) string { return template }

func TestSnapshotWriterLastsnapRelinksWithoutDangling(t *testing.T) {
	dir := t.TempDir()
	var redispatched []event.Call
	w := &SnapshotWriter{
		TargetDir:  dir,
		Template:   "lastsnap",
		Type:       PictureJPEG,
		RenderName: identityRender,
		Redispatch: func(c event.Call) { redispatched = append(redispatched, c) },
	}

	w.Handle(event.Call{CameraID: "cam0", Image: testFrame(), Timestamp: 1})
	link := filepath.Join(dir, "lastsnap.jpg")
	target1, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("lastsnap.jpg is not a symlink after first write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, target1)); err != nil {
		t.Fatalf("first target missing: %v", err)
	}

	w.Handle(event.Call{CameraID: "cam0", Image: testFrame(), Timestamp: 2})
	target2, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("lastsnap.jpg is not a symlink after second write: %v", err)
	}
	if target1 == target2 {
		t.Fatal("second write did not repoint the symlink to a new file")
	}
	if _, err := os.Stat(filepath.Join(dir, target2)); err != nil {
		t.Fatalf("second target missing: %v", err)
	}

	if len(redispatched) != 2 {
		t.Fatalf("want 2 redispatched FileCreate calls, got %d", len(redispatched))
	}
	for _, c := range redispatched {
		if c.Kind != event.FileCreate || c.FileType != event.ImageSnapshot {
			t.Fatalf("redispatched call = %+v, want FileCreate/ImageSnapshot", c)
		}
	}
}

func TestSnapshotWriterNonLastsnapOverwritesDirectly(t *testing.T) {
	dir := t.TempDir()
	w := &SnapshotWriter{
		TargetDir:  dir,
		Template:   "cam0-snapshot",
		Type:       PictureJPEG,
		RenderName: identityRender,
	}

	w.Handle(event.Call{CameraID: "cam0", Image: testFrame(), Timestamp: 1})
	path := filepath.Join(dir, "cam0-snapshot.jpg")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected direct overwrite path to exist: %v", err)
	}
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		t.Fatal("non-lastsnap path should be a regular file, not a symlink")
	}
}

func TestSnapshotWriterIgnoresCallsWithoutImage(t *testing.T) {
	called := false
	w := &SnapshotWriter{
		RenderName: identityRender,
		Redispatch: func(event.Call) { called = true },
	}
	w.Handle(event.Call{CameraID: "cam0"})
	if called {
		t.Fatal("SnapshotWriter redispatched for a call with no image")
	}
}
