package handlers

import (
	"testing"

	"motiond/internal/event"
	"motiond/internal/frame"
)

type fakeEncoder struct {
	openPath               string
	openW, openH, openFPS  int
	pushed                 int
	closed                 bool
}

func (f *fakeEncoder) Open(path string, w, h, fps int) error {
	f.openPath, f.openW, f.openH, f.openFPS = path, w, h, fps
	return nil
}

func (f *fakeEncoder) Push(*frame.Frame) error {
	f.pushed++
	return nil
}

func (f *fakeEncoder) Close() error {
	f.closed = true
	return nil
}

func TestMovieDriverLifecycleOpenPushClose(t *testing.T) {
	enc := &fakeEncoder{}
	var fileCreated event.Call
	d := &MovieDriver{
		Enabled:   true,
		TargetDir: "/rec",
		Template:  "cam0",
		Width:     16, Height: 16, FPS: 15,
		NewEncoder: func() MovieEncoder { return enc },
		RenderName: identityRender,
		Redispatch: func(c event.Call) { fileCreated = c },
	}

	d.Handle(event.Call{Kind: event.FirstMotion, CameraID: "cam0", Timestamp: 1, EventID: 7})
	if fileCreated.Kind != event.FileCreate || fileCreated.FileType != event.Movie {
		t.Fatalf("open did not redispatch FileCreate/Movie: %+v", fileCreated)
	}
	if enc.openW != 16 || enc.openH != 16 || enc.openFPS != 15 {
		t.Fatalf("encoder opened with wrong dimensions: %+v", enc)
	}

	f := testFrame()
	d.Handle(event.Call{Kind: event.ImageDetected, CameraID: "cam0", Image: f})
	d.Handle(event.Call{Kind: event.FfmpegPut, CameraID: "cam0", Image: f})
	if enc.pushed != 2 {
		t.Fatalf("want 2 pushes (ImageDetected + FfmpegPut), got %d", enc.pushed)
	}

	d.Handle(event.Call{Kind: event.EndMotion, CameraID: "cam0"})
	if !enc.closed {
		t.Fatal("EndMotion did not close the encoder")
	}
}

func TestMovieDriverDisabledIgnoresEverything(t *testing.T) {
	enc := &fakeEncoder{}
	d := &MovieDriver{
		Enabled:    false,
		NewEncoder: func() MovieEncoder { return enc },
		RenderName: identityRender,
	}
	d.Handle(event.Call{Kind: event.FirstMotion})
	if enc.openPath != "" {
		t.Fatal("disabled MovieDriver opened an encoder")
	}
}

func TestMovieDriverPushBeforeOpenIsANoop(t *testing.T) {
	enc := &fakeEncoder{}
	d := &MovieDriver{
		Enabled:    true,
		NewEncoder: func() MovieEncoder { return enc },
		RenderName: identityRender,
	}
	d.Handle(event.Call{Kind: event.FfmpegPut, Image: testFrame()})
	if enc.pushed != 0 {
		t.Fatal("push before open should be a no-op")
	}
}
