package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"motiond/internal/frame"
)

// NetcamSource pulls frames from an MJPEG multipart/x-mixed-replace HTTP
// stream, double-buffering the most recently decoded frame behind a mutex
// so NextFrame never blocks on the network reader goroutine for longer
// than the caller's deadline (spec §4.1).
type NetcamSource struct {
	url    string
	client *http.Client

	width, height int

	mu      sync.Mutex
	latest  *frame.Frame
	updated chan struct{} // closed and replaced every time latest or err changes
	err     error
	closed  bool
	seq     uint64
	closeCh chan struct{}
	resp    *http.Response
}

// OpenNetcamSource connects to url and starts the background reader
// goroutine. width/height are what Width and Height report; decoded frames
// take the JPEG's own dimensions and are not checked against them.
func OpenNetcamSource(url string, width, height int, readTimeout time.Duration) (*NetcamSource, error) {
	client := &http.Client{Timeout: 0}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &SourceError{Kind: Protocol, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &SourceError{Kind: TransientIO, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &SourceError{Kind: Protocol, Code: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	boundary, err := multipartBoundary(resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		return nil, &SourceError{Kind: Protocol, Err: err}
	}

	s := &NetcamSource{
		url:     url,
		client:  client,
		width:   width,
		height:  height,
		resp:    resp,
		closeCh: make(chan struct{}),
		updated: make(chan struct{}),
	}
	go s.readLoop(bufio.NewReader(resp.Body), boundary)
	return s, nil
}

// multipartBoundary extracts and de-quotes the boundary token from a
// "multipart/x-mixed-replace; boundary=..." Content-Type header.
func multipartBoundary(contentType string) (string, error) {
	parts := strings.Split(contentType, ";")
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if !strings.HasPrefix(p, "boundary=") {
			continue
		}
		b := strings.TrimPrefix(p, "boundary=")
		b = strings.Trim(b, `"`)
		return b, nil
	}
	return "", fmt.Errorf("no multipart boundary in Content-Type %q", contentType)
}

func (s *NetcamSource) readLoop(r *bufio.Reader, boundary string) {
	delim := []byte("--" + boundary)
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		if err := skipToBoundary(r, delim); err != nil {
			s.setErr(&SourceError{Kind: Lost, Err: err})
			return
		}
		length, err := readPartHeaders(r)
		if err != nil {
			s.setErr(&SourceError{Kind: Protocol, Err: err})
			return
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			s.setErr(&SourceError{Kind: TransientIO, Err: err})
			return
		}
		img, err := jpeg.Decode(bytes.NewReader(body))
		if err != nil {
			s.setErr(&SourceError{Kind: DecodeFailure, Err: err})
			continue
		}
		s.publish(img, body)
	}
}

// skipToBoundary advances r past the next occurrence of delim followed by
// CRLF, matching the original's SOI/boundary scanning approach.
func skipToBoundary(r *bufio.Reader, delim []byte) error {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return err
		}
		if bytes.Contains(line, delim) {
			return nil
		}
	}
}

// readPartHeaders reads one MIME part's headers up to the blank line and
// returns Content-Length.
func readPartHeaders(r *bufio.Reader) (int, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		if k, v, ok := strings.Cut(trimmed, ":"); ok && strings.EqualFold(strings.TrimSpace(k), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return 0, fmt.Errorf("bad Content-Length %q: %w", v, err)
			}
			length = n
		}
	}
	if length < 0 {
		return 0, fmt.Errorf("multipart part missing Content-Length")
	}
	return length, nil
}

func (s *NetcamSource) publish(img image.Image, raw []byte) {
	b := img.Bounds()
	f := frame.New(b.Dx(), b.Dy())
	fillYUV420FromImage(f, img)
	f.Packet = raw

	s.mu.Lock()
	s.seq++
	f.Seq = s.seq
	f.Captured = time.Now()
	s.latest = f
	s.err = nil
	s.notifyLocked()
	s.mu.Unlock()
}

// notifyLocked wakes every NextFrame caller blocked waiting for an update.
// Must be called with s.mu held.
func (s *NetcamSource) notifyLocked() {
	close(s.updated)
	s.updated = make(chan struct{})
}

// fillYUV420FromImage converts any image.Image into f's planar YUV420p
// buffer via the standard BT.601 RGB->YCbCr conversion.
func fillYUV420FromImage(f *frame.Frame, img image.Image) {
	b := img.Bounds()
	yp, up, vp := f.YPlane(), f.UPlane(), f.VPlane()
	cw := f.Width / 2

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			yv, cb, cr := rgbToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			yp[y*f.Width+x] = yv
			if x%2 == 0 && y%2 == 0 {
				ci := (y/2)*cw + x/2
				up[ci] = cb
				vp[ci] = cr
			}
		}
	}
}

func rgbToYCbCr(r, g, b uint8) (y, cb, cr uint8) {
	ri, gi, bi := int(r), int(g), int(b)
	yy := (19595*ri + 38470*gi + 7471*bi + 32768) >> 16
	cbv := (-11059*ri - 21709*gi + 32768*bi + 8421375) >> 16
	crv := (32768*ri - 27439*gi - 5329*bi + 8421375) >> 16
	return clampByte(yy), clampByte(cbv), clampByte(crv)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (s *NetcamSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *NetcamSource) Width() int  { return s.width }
func (s *NetcamSource) Height() int { return s.height }

// NextFrame returns the most recently decoded frame once it is newer than
// the one last returned, blocking up to deadline. The double-buffer (latest
// plus an err slot, both guarded by mu) means the reader goroutine is never
// blocked on a slow consumer (spec §4.1).
func (s *NetcamSource) NextFrame(ctx context.Context, deadline time.Duration) (*frame.Frame, error) {
	s.mu.Lock()
	if s.err != nil {
		defer s.mu.Unlock()
		return nil, s.err
	}
	waitCh := s.updated
	s.mu.Unlock()

	select {
	case <-waitCh:
	case <-ctx.Done():
		return nil, &SourceError{Kind: Lost, Err: ctx.Err()}
	case <-time.After(deadline):
		return nil, &SourceError{Kind: Timeout, Err: fmt.Errorf("no frame within %s", deadline)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.latest, nil
}

func (s *NetcamSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	s.mu.Unlock()
	return s.resp.Body.Close()
}
