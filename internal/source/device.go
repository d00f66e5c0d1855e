package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"motiond/internal/frame"
)

// DeviceBackend is the V4L2 read seam: Open starts capture against a device
// node and returns a reader of raw YUV420p frames. It is an interface
// rather than a direct ioctl binding so tests can run on hosts without a
// camera, matching the teacher's own deviceExists-then-shell-out pattern.
type DeviceBackend interface {
	Open(devicePath string, width, height, fps int) (io.ReadCloser, error)
}

// FfmpegDeviceBackend captures from a V4L2 node by shelling out to ffmpeg,
// the same approach the teacher uses for its camera capture path rather
// than binding libv4l2 directly.
type FfmpegDeviceBackend struct{}

type ffmpegDeviceReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (r *ffmpegDeviceReader) Read(p []byte) (int, error) { return r.stdout.Read(p) }

func (r *ffmpegDeviceReader) Close() error {
	r.stdout.Close()
	return r.cmd.Wait()
}

func (FfmpegDeviceBackend) Open(devicePath string, width, height, fps int) (io.ReadCloser, error) {
	if _, err := os.Stat(devicePath); err != nil {
		return nil, fmt.Errorf("source: device %s does not exist: %w", devicePath, err)
	}
	cmd := exec.Command("ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", devicePath,
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("source: ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("source: ffmpeg start: %w", err)
	}
	return &ffmpegDeviceReader{cmd: cmd, stdout: stdout}, nil
}

// LocalSource reads raw YUV420p frames from a DeviceBackend at a fixed
// size, one frame per NextFrame call.
type LocalSource struct {
	backend DeviceBackend
	reader  io.ReadCloser
	width   int
	height  int
	seq     uint64
}

// OpenLocalSource starts capture against devicePath via backend.
func OpenLocalSource(backend DeviceBackend, devicePath string, width, height, fps int) (*LocalSource, error) {
	reader, err := backend.Open(devicePath, width, height, fps)
	if err != nil {
		return nil, &SourceError{Kind: TransientIO, Err: err}
	}
	return &LocalSource{backend: backend, reader: reader, width: width, height: height}, nil
}

func (s *LocalSource) Width() int  { return s.width }
func (s *LocalSource) Height() int { return s.height }

func (s *LocalSource) NextFrame(ctx context.Context, deadline time.Duration) (*frame.Frame, error) {
	f := frame.New(s.width, s.height)
	type result struct {
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, err := io.ReadFull(s.reader, f.Pix)
		done <- result{err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &SourceError{Kind: Lost, Err: ctx.Err()}
	case <-time.After(deadline):
		return nil, &SourceError{Kind: Timeout, Err: fmt.Errorf("no frame within %s", deadline)}
	case r := <-done:
		if r.err != nil {
			if r.err == io.EOF || r.err == io.ErrUnexpectedEOF {
				return nil, &SourceError{Kind: Lost, Err: r.err}
			}
			return nil, &SourceError{Kind: DecodeFailure, Err: r.err}
		}
		s.seq++
		f.Seq = s.seq
		f.Captured = time.Now()
		return f, nil
	}
}

func (s *LocalSource) Close() error {
	return s.reader.Close()
}
