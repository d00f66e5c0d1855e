package handlers

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"motiond/internal/frame"
)

// MovieEncoder is the "open movie / push frame / close movie" contract
// spec §1 treats as an external collaborator: codec choice, container
// muxing and PTS arithmetic are opaque to the movie/timelapse handlers.
type MovieEncoder interface {
	Open(path string, width, height, fps int) error
	Push(f *frame.Frame) error
	Close() error
}

// FfmpegEncoder drives an external `ffmpeg` process over a raw-YUV stdin
// pipe, the same os/exec pattern the teacher's capture path uses for its
// own ffmpeg invocations (internal/camera/camera.go, the now-removed
// internal/pipeline/frame_provider.go), turned around from decode to
// encode.
type FfmpegEncoder struct {
	Codec string // e.g. "mp4", "mpeg4", "mpg"

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	width  int
	height int
}

func (e *FfmpegEncoder) Open(path string, width, height, fps int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-an",
		path,
	}
	e.cmd = exec.Command("ffmpeg", args...)
	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("handlers: ffmpeg stdin pipe: %w", err)
	}
	e.stdin = stdin
	e.width, e.height = width, height
	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("handlers: ffmpeg start: %w", err)
	}
	return nil
}

func (e *FfmpegEncoder) Push(f *frame.Frame) error {
	if e.stdin == nil {
		return fmt.Errorf("handlers: encoder not open")
	}
	if f.Width != e.width || f.Height != e.height {
		return fmt.Errorf("handlers: frame dimensions %dx%d do not match open movie %dx%d", f.Width, f.Height, e.width, e.height)
	}
	_, err := e.stdin.Write(f.Pix)
	return err
}

func (e *FfmpegEncoder) Close() error {
	if e.stdin == nil {
		return nil
	}
	e.stdin.Close()
	err := e.cmd.Wait()
	e.stdin = nil
	e.cmd = nil
	return err
}
