// Package imaging implements the pure pixel-arithmetic primitives (C2):
// rotate/flip, half-scale downsampling and ASCII text overlay, operating
// directly on a Frame's planar YUV420p buffer.
package imaging

import (
	"fmt"

	"motiond/internal/frame"
)

// Flip is the caller-requested mirroring applied together with a rotation.
type Flip int

const (
	FlipNone Flip = iota
	FlipHorizontal
	FlipVertical
)

// Scratch is a reusable buffer for the 90/270 degree rotation paths, which
// cannot be done in place because they transpose rows and columns. It lives
// for the camera's lifetime and is grown on demand.
type Scratch struct {
	buf []byte
}

func (s *Scratch) get(n int) []byte {
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	return s.buf[:n]
}

// Rotate rotates f in place by degrees (0, 90, 180 or 270) and applies flip,
// using scratch as working memory for the 90/270 paths. 0, 180 and a
// horizontal flip never allocate; a vertical flip allocates one row buffer
// per plane; 90/270 copy through scratch once.
func Rotate(f *frame.Frame, degrees int, flip Flip, scratch *Scratch) error {
	degrees = ((degrees % 360) + 360) % 360
	switch degrees {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("imaging: unsupported rotation %d", degrees)
	}

	if degrees == 90 || degrees == 270 {
		rotatePlane90(f, scratch, degrees == 270)
	} else if degrees == 180 {
		rotatePlane180(f)
	}

	switch flip {
	case FlipHorizontal:
		flipH(f)
	case FlipVertical:
		flipV(f)
	}
	return nil
}

// rotatePlane180 reverses each plane end-to-end; this is the in-place path.
func rotatePlane180(f *frame.Frame) {
	for _, plane := range [][]byte{f.YPlane(), f.UPlane(), f.VPlane()} {
		reverse(plane)
	}
}

func reverse(p []byte) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// flipH mirrors every row left-to-right, per plane.
func flipH(f *frame.Frame) {
	flipPlaneH(f.YPlane(), f.Width, f.Height)
	flipPlaneH(f.UPlane(), f.Width/2, f.Height/2)
	flipPlaneH(f.VPlane(), f.Width/2, f.Height/2)
}

func flipPlaneH(p []byte, w, h int) {
	for y := 0; y < h; y++ {
		row := p[y*w : y*w+w]
		for i, j := 0, w-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}

// flipV mirrors row order top-to-bottom, per plane.
func flipV(f *frame.Frame) {
	flipPlaneV(f.YPlane(), f.Width, f.Height)
	flipPlaneV(f.UPlane(), f.Width/2, f.Height/2)
	flipPlaneV(f.VPlane(), f.Width/2, f.Height/2)
}

func flipPlaneV(p []byte, w, h int) {
	tmp := make([]byte, w)
	for y, j := 0, h-1; y < j; y, j = y+1, j-1 {
		a := p[y*w : y*w+w]
		b := p[j*w : j*w+w]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// rotatePlane90 rotates all three planes 90 degrees clockwise (or
// counter-clockwise when ccw is true), via scratch then copy-back.
func rotatePlane90(f *frame.Frame, scratch *Scratch, ccw bool) {
	rotateOnePlane90(f.YPlane(), f.Width, f.Height, scratch, ccw)
	// After a 90/270 rotation width and height swap; U/V are half of the Y
	// plane's *pre-rotation* dimensions in both directions, so they rotate
	// the same way independently.
	rotateOnePlane90(f.UPlane(), f.Width/2, f.Height/2, scratch, ccw)
	rotateOnePlane90(f.VPlane(), f.Width/2, f.Height/2, scratch, ccw)
	f.Width, f.Height = f.Height, f.Width
}

func rotateOnePlane90(p []byte, w, h int, scratch *Scratch, ccw bool) {
	out := scratch.get(w * h)
	// Destination has dimensions h x w.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			if ccw {
				dx, dy = y, w-1-x
			} else {
				dx, dy = h-1-y, x
			}
			out[dy*h+dx] = p[y*w+x]
		}
	}
	copy(p, out)
}
