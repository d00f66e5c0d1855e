package detector

// plane is a binary change plane addressed row-major, width w height h.
type plane struct {
	w, h int
	bits []bool
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, bits: make([]bool, w*h)}
}

func (p *plane) at(x, y int) bool {
	if x < 0 || x >= p.w || y < 0 || y >= p.h {
		return false
	}
	return p.bits[y*p.w+x]
}

// erode3x3 clears any set pixel that has at least one unset 8-neighbor.
func erode3x3(p *plane) *plane {
	out := newPlane(p.w, p.h)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			if !p.at(x, y) {
				continue
			}
			keep := true
			for dy := -1; dy <= 1 && keep; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if !p.at(x+dx, y+dy) {
						keep = false
						break
					}
				}
			}
			out.bits[y*p.w+x] = keep
		}
	}
	return out
}

// erode5xCross clears a set pixel unless its cross-shaped 5x5 neighborhood
// (the four cardinal arms out to distance 2, plus itself) is entirely set.
func erode5xCross(p *plane) *plane {
	out := newPlane(p.w, p.h)
	offsets := [][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-2, 0}, {2, 0}, {0, -2}, {0, 2}}
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			if !p.at(x, y) {
				continue
			}
			keep := true
			for _, o := range offsets {
				if !p.at(x+o[0], y+o[1]) {
					keep = false
					break
				}
			}
			out.bits[y*p.w+x] = keep
		}
	}
	return out
}

// dilate3x3 sets a pixel if any of its 8-neighbors (or itself) is set.
func dilate3x3(p *plane) *plane {
	out := newPlane(p.w, p.h)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			set := false
			for dy := -1; dy <= 1 && !set; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if p.at(x+dx, y+dy) {
						set = true
						break
					}
				}
			}
			out.bits[y*p.w+x] = set
		}
	}
	return out
}

// dilate5xCross sets a pixel if its cross-shaped 5x5 neighborhood contains
// any set pixel.
func dilate5xCross(p *plane) *plane {
	out := newPlane(p.w, p.h)
	offsets := [][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-2, 0}, {2, 0}, {0, -2}, {0, 2}}
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			set := false
			for _, o := range offsets {
				if p.at(x+o[0], y+o[1]) {
					set = true
					break
				}
			}
			out.bits[y*p.w+x] = set
		}
	}
	return out
}

// applyDespeckle runs the letter-code pipeline in order against p, returning
// the final labeling result if an 'l' op ran (nil otherwise, meaning the
// caller must still label the plane once itself).
func applyDespeckle(p *plane, code string, minPixels int) (*plane, *labelResult) {
	var lastLabel *labelResult
	for _, c := range code {
		switch c {
		case 'E':
			p = erode3x3(p)
		case 'e':
			p = erode5xCross(p)
		case 'D':
			p = dilate3x3(p)
		case 'd':
			p = dilate5xCross(p)
		case 'l':
			res := label(p)
			zeroNonLargest(p, res, minPixels)
			lastLabel = res
		default:
			// Unknown letters are ignored; the despeckle string is
			// user-supplied and Motion itself tolerates stray characters.
		}
	}
	return p, lastLabel
}

// zeroNonLargest clears every blob from p except the largest one, and drops
// the largest itself if it is smaller than minPixels.
func zeroNonLargest(p *plane, res *labelResult, minPixels int) {
	if res.count == 0 {
		return
	}
	keep := res.largestLabel
	if res.largestPixels < minPixels {
		keep = 0 // no label is ever 0, so nothing survives
	}
	for i, lbl := range res.labels {
		if lbl != keep {
			p.bits[i] = false
		}
	}
}
