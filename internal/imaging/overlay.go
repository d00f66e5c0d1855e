package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"motiond/internal/frame"
)

// Rect is a pixel rectangle used both for overlay placement and for the
// detector's bounding boxes.
type Rect struct {
	X, Y, W, H int
}

// OverlayText rasterizes an ASCII string onto a Frame's Y plane at the given
// rectangle's top-left corner, scaled by repeating the 7x13 bitmap font
// scale times in both dimensions. No external font file is ever loaded:
// basicfont.Face7x13 is compiled into the binary, matching spec §4.2's "no
// external font" requirement.
func OverlayText(f *frame.Frame, rect Rect, text string, scale int) {
	if text == "" {
		return
	}
	if scale < 1 {
		scale = 1
	}

	gray := &image.Gray{
		Pix:    f.YPlane(),
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}

	if scale == 1 {
		drawLabel(gray, rect.X, rect.Y, text, color.Gray{Y: 235})
		return
	}

	// Render at 1x into scratch, then nearest-neighbor blow it up scale
	// times before compositing onto the Y plane, since basicfont has a
	// single fixed size.
	tmp := image.NewGray(image.Rect(0, 0, len(text)*7+2, 13+2))
	drawLabel(tmp, 1, 1, text, color.Gray{Y: 235})

	for y := 0; y < tmp.Bounds().Dy(); y++ {
		for x := 0; x < tmp.Bounds().Dx(); x++ {
			v := tmp.GrayAt(x, y)
			if v.Y == 0 {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					px, py := rect.X+x*scale+dx, rect.Y+y*scale+dy
					if px >= 0 && px < f.Width && py >= 0 && py < f.Height {
						gray.SetGray(px, py, v)
					}
				}
			}
		}
	}
}

func drawLabel(dst draw.Image, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + 10)},
	}
	d.DrawString(text)
}
