package camerapipe

import (
	"os"

	"motiond/internal/dispatch"
	"motiond/internal/event"
	"motiond/internal/handlers"
	"motiond/internal/runtime"
)

// BuildHandlers constructs every concrete handler a camera's profile
// enables and assembles them into handlers.Deps, ready for
// handlers.BuildDispatcher. rt may have a nil DB, in which case the SQL
// binder is left disabled.
func BuildHandlers(p Profile, rt *runtime.Runtime, publish func(cameraID string, jpegBytes []byte)) handlers.Deps {
	render := RenderNameFunc(p)
	logger := rt.Log

	deps := handlers.Deps{
		Logger: &handlers.Logger{Log: logger},
		Beep:   &handlers.Beep{Quiet: p.Quiet},

		ImageWriter: &handlers.ImageWriter{
			Enabled:    true,
			TargetDir:  p.TargetDir,
			Template:   p.PictureFilename,
			Type:       handlers.PictureType(p.PictureType),
			RenderName: render,
			Log:        logger,
		},
		MotionImageWriter: &handlers.MotionImageWriter{
			Enabled:    true,
			TargetDir:  p.TargetDir,
			Template:   p.PictureFilename,
			Type:       handlers.PictureType(p.PictureType),
			RenderName: render,
			Log:        logger,
		},
		SnapshotWriter: &handlers.SnapshotWriter{
			TargetDir:  p.TargetDir,
			Template:   p.SnapshotFilename,
			Type:       handlers.PictureType(p.PictureType),
			RenderName: render,
			Log:        logger,
		},
	}

	var clientCount int32
	streamPublisher := &handlers.StreamPublisher{
		Enabled:     true,
		ClientCount: &clientCount,
		Quality:     p.StreamQuality,
		Publish:     publish,
		Log:         logger,
	}
	deps.StreamPublisher = streamPublisher

	deps.MovieDriver = &handlers.MovieDriver{
		Enabled:    true,
		TargetDir:  p.TargetDir,
		Template:   p.MovieFilename,
		Width:      p.Width,
		Height:     p.Height,
		FPS:        p.Framerate,
		NewEncoder: func() handlers.MovieEncoder { return &handlers.FfmpegEncoder{Codec: p.MovieCodec} },
		RenderName: render,
		Redispatch: nil,
		Log:        logger,
	}

	if p.UseExtpipe && p.Extpipe != "" {
		deps.ExtpipeDriver = &handlers.ExtpipeDriver{
			Enabled:    true,
			Command:    p.Extpipe,
			RenderName: render,
			Log:        logger,
		}
	}

	if p.TimelapseInterval > 0 {
		deps.TimelapseDriver = &handlers.TimelapseDriver{
			Enabled:    true,
			TargetDir:  p.TargetDir,
			Template:   p.TimelapseFilename,
			Codec:      p.TimelapseCodec,
			Width:      p.Width,
			Height:     p.Height,
			FPS:        p.Framerate,
			NewEncoder: func() handlers.MovieEncoder { return &handlers.FfmpegEncoder{Codec: p.TimelapseCodec} },
			RenderName: render,
			Log:        logger,
		}
	}

	if rt.DB != nil {
		mask := sqlMask(p)
		deps.SQLBinder = &handlers.SQLBinder{
			Enabled:    mask != 0 || p.SQLQueryStart != "",
			DB:         rt.DB,
			Mask:       mask,
			QueryStart: p.SQLQueryStart,
			Query:      p.SQLQuery,
			RenderName: render,
			Log:        logger,
		}
	}

	if p.LoopbackDevice != "" {
		deps.LoopbackWriter = &handlers.LoopbackWriter{
			Enabled: true,
			Device:  &fileLoopbackDevice{path: p.LoopbackDevice},
			Log:     logger,
		}
	}

	if p.OnPictureSave != "" {
		deps.ShellOnPicture = &handlers.ShellHook{Command: p.OnPictureSave, RenderName: render, FileTypeOf: handlers.PictureOrMovieFileTypes, Log: logger}
	}
	if p.OnMotionDetected != "" {
		deps.ShellOnMotion = &handlers.ShellHook{Command: p.OnMotionDetected, RenderName: render, Log: logger}
	}
	if p.OnAreaDetected != "" {
		deps.ShellOnArea = &handlers.ShellHook{Command: p.OnAreaDetected, RenderName: render, Log: logger}
	}
	if p.OnEventStart != "" {
		deps.ShellOnEventStart = &handlers.ShellHook{Command: p.OnEventStart, RenderName: render, Log: logger}
	}
	if p.OnEventEnd != "" {
		deps.ShellOnEventEnd = &handlers.ShellHook{Command: p.OnEventEnd, RenderName: render, Log: logger}
	}
	if p.OnMovieEnd != "" {
		deps.ShellOnMovieEnd = &handlers.ShellHook{Command: p.OnMovieEnd, RenderName: render, Log: logger}
	}
	if p.OnCameraLost != "" {
		deps.ShellOnCameraLost = &handlers.ShellHook{Command: p.OnCameraLost, RenderName: render, Log: logger}
	}
	if p.OnCameraFound != "" {
		deps.ShellOnCameraFound = &handlers.ShellHook{Command: p.OnCameraFound, RenderName: render, Log: logger}
	}

	return deps
}

// Wire builds a camera's handler set and its dispatcher together, then
// patches each handler's Redispatch hook to point at the dispatcher it was
// just registered into — MovieDriver, ExtpipeDriver and SnapshotWriter all
// re-fire FileCreate/FileClose calls of their own accord (spec §6), which
// requires a reference to the dispatcher that does not exist until after
// BuildHandlers returns.
func Wire(p Profile, rt *runtime.Runtime, publish func(cameraID string, jpegBytes []byte)) (*dispatch.Dispatcher, handlers.Deps) {
	deps := BuildHandlers(p, rt, publish)
	d := handlers.BuildDispatcher(deps)

	if deps.MovieDriver != nil {
		deps.MovieDriver.Redispatch = d.Dispatch
	}
	if deps.ExtpipeDriver != nil {
		deps.ExtpipeDriver.Redispatch = d.Dispatch
	}
	if deps.SnapshotWriter != nil {
		deps.SnapshotWriter.Redispatch = d.Dispatch
	}

	return d, deps
}

// sqlMask folds sql_log_picture/snapshot/movie/timelapse into the FileType
// bitmask the SQL binder gates FileCreate calls against.
func sqlMask(p Profile) event.FileType {
	var mask event.FileType
	if p.SQLLogPicture {
		mask |= event.Image
	}
	if p.SQLLogSnapshot {
		mask |= event.ImageSnapshot
	}
	if p.SQLLogMovie {
		mask |= event.Movie | event.MovieMotion
	}
	if p.SQLLogTimelapse {
		mask |= event.MovieTimelapse
	}
	return mask
}

// fileLoopbackDevice writes raw YUV420p frames to a v4l2loopback device
// node opened once and kept for the camera's lifetime.
type fileLoopbackDevice struct {
	path string
	f    *os.File
}

func (d *fileLoopbackDevice) Write(pix []byte) error {
	if d.f == nil {
		f, err := os.OpenFile(d.path, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		d.f = f
	}
	_, err := d.f.Write(pix)
	return err
}
