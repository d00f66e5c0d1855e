package detector

// ReferenceModel is the running background used for diffing (spec §3). It is
// created lazily on the first accepted frame and rebuilt whenever frame
// dimensions change underneath it.
type ReferenceModel struct {
	Width, Height int
	Ref           []byte // Y-plane shaped background, 8-bit per pixel
	SmartMask     []byte // per-pixel learning-rate accumulator
	FixedMask     []byte // optional; nil means "no mask", else 0 = excluded

	initialized bool
}

// NewReferenceModel allocates a reference shaped for a w x h Y plane.
func NewReferenceModel(w, h int) *ReferenceModel {
	return &ReferenceModel{
		Width:     w,
		Height:    h,
		Ref:       make([]byte, w*h),
		SmartMask: make([]byte, w*h),
	}
}

// Matches reports whether the model's shape still matches a w x h frame.
func (r *ReferenceModel) Matches(w, h int) bool {
	return r.Width == w && r.Height == h
}

// Seed copies cur whole into the reference, as happens on first frame and
// on lightswitch re-seed (spec §4.3).
func (r *ReferenceModel) Seed(cur []byte) {
	copy(r.Ref, cur)
	for i := range r.SmartMask {
		r.SmartMask[i] = 0
	}
	r.initialized = true
}

// Initialized reports whether Seed has run at least once.
func (r *ReferenceModel) Initialized() bool {
	return r.initialized
}

// SetFixedMask installs a PGM-derived binary mask; nil clears it.
func (r *ReferenceModel) SetFixedMask(mask []byte) {
	r.FixedMask = mask
}

// smartMaskAgeLimit is how many consecutive in-motion frames a pixel can
// accumulate in SmartMask before it is forced back into the background,
// per the "age the smart-mask entry" rule in spec §4.3.
const smartMaskAgeLimit = 255

// blend applies the weighted background update `ref[i] = (ref[i]*15+cur[i])/16`
// for every pixel not part of the largest blob, and ages the smart-mask
// counter for pixels that are part of it, forcing stale motion pixels back
// into the background once they've aged out.
func (r *ReferenceModel) blend(cur []byte, inLargestBlob []bool) {
	for i, c := range cur {
		if inLargestBlob != nil && inLargestBlob[i] {
			if r.SmartMask[i] < smartMaskAgeLimit {
				r.SmartMask[i]++
			}
			if r.SmartMask[i] >= smartMaskAgeLimit {
				r.Ref[i] = c
				r.SmartMask[i] = 0
			}
			continue
		}
		r.SmartMask[i] = 0
		r.Ref[i] = byte((int(r.Ref[i])*15 + int(c)) / 16)
	}
}
