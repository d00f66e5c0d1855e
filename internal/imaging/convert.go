package imaging

import (
	"image"

	"motiond/internal/frame"
)

// ToYCbCr wraps f's planes in a stdlib image.YCbCr without copying, for
// handoff to image/jpeg. YUV420p is exactly image.YCbCrSubsampleRatio420.
func ToYCbCr(f *frame.Frame) *image.YCbCr {
	return &image.YCbCr{
		Y:              f.YPlane(),
		Cb:             f.UPlane(),
		Cr:             f.VPlane(),
		YStride:        f.Width,
		CStride:        f.Width / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}
