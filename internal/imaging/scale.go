package imaging

import (
	"fmt"

	"motiond/internal/frame"
)

// ScaleHalf performs a bilinear 2:1 downscale of src into dst for substream
// output. Precondition: src's width and height are both multiples of 16; the
// caller is responsible for skipping substream generation otherwise (the
// main path's modulo-8 check is independent of this one, see spec §9).
func ScaleHalf(src *frame.Frame, dst *frame.Frame) error {
	if src.Width%16 != 0 || src.Height%16 != 0 {
		return fmt.Errorf("imaging: scale_half requires modulo-16 dimensions, got %dx%d", src.Width, src.Height)
	}
	if dst.Width != src.Width/2 || dst.Height != src.Height/2 {
		return fmt.Errorf("imaging: dst must be half of src (%dx%d), got %dx%d", src.Width/2, src.Height/2, dst.Width, dst.Height)
	}

	scalePlaneHalf(src.YPlane(), src.Width, src.Height, dst.YPlane())
	scalePlaneHalf(src.UPlane(), src.Width/2, src.Height/2, dst.UPlane())
	scalePlaneHalf(src.VPlane(), src.Width/2, src.Height/2, dst.VPlane())
	dst.Captured = src.Captured
	dst.Seq = src.Seq
	return nil
}

// scalePlaneHalf averages each 2x2 block of src into one dst pixel. Plane
// dimensions below 2 are left as a direct copy of the first pixel.
func scalePlaneHalf(src []byte, w, h int, dst []byte) {
	dw, dh := w/2, h/2
	if dw == 0 || dh == 0 {
		if len(dst) > 0 && len(src) > 0 {
			dst[0] = src[0]
		}
		return
	}
	for y := 0; y < dh; y++ {
		sy0 := 2 * y
		sy1 := sy0 + 1
		for x := 0; x < dw; x++ {
			sx0 := 2 * x
			sx1 := sx0 + 1
			sum := int(src[sy0*w+sx0]) + int(src[sy0*w+sx1]) + int(src[sy1*w+sx0]) + int(src[sy1*w+sx1])
			dst[y*dw+x] = byte(sum / 4)
		}
	}
}
