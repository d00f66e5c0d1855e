package detector

import "math"

// Detector holds the per-camera state that makes the verdict computation
// stateful across frames: the reference model, the current noise level,
// lightswitch recovery countdown, and the previous positive blob's shape
// (for the ratio-change shape filter).
type Detector struct {
	cfg Config
	ref *ReferenceModel

	noiseLevel int
	framesSeen int

	lightswitchCountdown int // frames remaining in lightswitch suppression

	prevRatio     float64
	havePrevRatio bool
}

// New constructs a Detector for a w x h Y plane using cfg.
func New(w, h int, cfg Config) *Detector {
	return &Detector{
		cfg:        cfg,
		ref:        NewReferenceModel(w, h),
		noiseLevel: cfg.NoiseLevel,
	}
}

// SetFixedMask installs or clears the fixed mask on the underlying
// reference model.
func (d *Detector) SetFixedMask(mask []byte) {
	d.ref.SetFixedMask(mask)
}

// Detect computes a verdict for yPlane (a w*h luma plane) against the
// detector's running reference, per spec §4.3. It is a pure function of
// (yPlane, d.ref snapshot, d.cfg) except for the stateful bookkeeping
// (noise level, lightswitch countdown, reference blend) that Detect itself
// advances as its one side effect — repeated calls with frozen state and the
// same input reproduce the same verdict (spec §8 invariant 6).
func (d *Detector) Detect(yPlane []byte, w, h int) Verdict {
	if !d.ref.Matches(w, h) {
		return Verdict{Error: true}
	}
	if !d.ref.Initialized() {
		d.ref.Seed(yPlane)
		d.framesSeen++
		return Verdict{Noise: uint8(clamp(d.noiseLevel, 0, 255))}
	}

	change := newPlane(w, h)
	var changed uint32
	var inMask uint32
	var sumAbsDiffUnchanged int64
	var countUnchanged int64

	for i, cur := range yPlane {
		if d.ref.FixedMask != nil && d.ref.FixedMask[i] == 0 {
			inMask++
			continue
		}
		diff := int(cur) - int(d.ref.Ref[i])
		if diff < 0 {
			diff = -diff
		}
		isChanged := diff > d.noiseLevel
		if isChanged {
			change.bits[i] = true
			changed++
		} else {
			sumAbsDiffUnchanged += int64(diff)
			countUnchanged++
		}
	}

	d.framesSeen++

	if d.cfg.NoiseTune && countUnchanged > 0 {
		mad := float64(sumAbsDiffUnchanged) / float64(countUnchanged)
		d.noiseLevel = clamp(int(mad*2), 0, 255)
	}

	totalPixels := w * h
	changedPercent := 0
	if totalPixels > 0 {
		changedPercent = int(changed * 100 / uint32(totalPixels))
	}

	lightswitch := d.lightswitchCountdown == 0 && d.cfg.LightswitchPercent > 0 && changedPercent > d.cfg.LightswitchPercent
	if lightswitch {
		d.lightswitchCountdown = d.cfg.LightswitchFrames
	}
	inLightswitchWindow := d.lightswitchCountdown > 0
	if inLightswitchWindow {
		d.lightswitchCountdown--
		// Recovery window: reference does not update; once it elapses
		// the next frame re-seeds from scratch.
		if d.lightswitchCountdown == 0 {
			d.ref.initialized = false
		}
		if !lightswitch {
			return Verdict{
				ChangedPixels: 0,
				Noise:         uint8(clamp(d.noiseLevel, 0, 255)),
				InMask:        inMask,
				Lightswitch:   true,
			}
		}
		return Verdict{
			ChangedPixels: 0,
			Noise:         uint8(clamp(d.noiseLevel, 0, 255)),
			InMask:        inMask,
			Lightswitch:   true,
		}
	}

	finalPlane, labelRes := applyDespeckle(change, d.cfg.Despeckle, d.cfg.LabelMinPixels)
	if labelRes == nil {
		labelRes = label(finalPlane)
	}

	verdict := Verdict{
		ChangedPixels:      changed,
		Noise:              uint8(clamp(d.noiseLevel, 0, 255)),
		Labels:             uint16(labelRes.count),
		LargestLabelPixels: uint32(labelRes.largestPixels),
		Bbox:               labelRes.bbox,
		InMask:             inMask,
	}

	verdict.AreaDetected = d.areaDetect(finalPlane, labelRes)
	verdict.Motion = d.thresholdTest(labelRes)

	inLargest := make([]bool, len(finalPlane.bits))
	for i, lbl := range labelRes.labels {
		if lbl != 0 && lbl == labelRes.largestLabel {
			inLargest[i] = true
		}
	}
	d.ref.blend(yPlane, inLargest)

	return verdict
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// areaDetect partitions the frame into a 3x3 grid and reports whether the
// largest blob touches any of the configured cells.
func (d *Detector) areaDetect(p *plane, res *labelResult) bool {
	if len(d.cfg.AreaDetect) == 0 || res.largestLabel == 0 {
		return false
	}
	cellW := p.w / 3
	cellH := p.h / 3
	if cellW == 0 || cellH == 0 {
		return false
	}
	for i, lbl := range res.labels {
		if lbl != res.largestLabel {
			continue
		}
		x := i % p.w
		y := i / p.w
		col := x / cellW
		if col > 2 {
			col = 2
		}
		row := y / cellH
		if row > 2 {
			row = 2
		}
		cell := row*3 + col + 1
		if d.cfg.AreaDetect[cell] {
			return true
		}
	}
	return false
}

// thresholdTest implements spec §4.3's threshold test and shape filters.
func (d *Detector) thresholdTest(res *labelResult) bool {
	if res.largestPixels <= d.cfg.Threshold {
		d.havePrevRatio = false
		return false
	}
	if d.cfg.ThresholdMaximum != 0 && res.largestPixels >= d.cfg.ThresholdMaximum {
		d.havePrevRatio = false
		return false
	}

	w, h := float64(res.bbox.Width()), float64(res.bbox.Height())
	if w == 0 || h == 0 {
		d.havePrevRatio = false
		return false
	}

	if d.cfg.ThresholdSdevX != 0 && w < d.cfg.ThresholdSdevX {
		return false
	}
	if d.cfg.ThresholdSdevY != 0 && h < d.cfg.ThresholdSdevY {
		return false
	}
	if d.cfg.ThresholdSdevXY != 0 && (w+h) < d.cfg.ThresholdSdevXY {
		return false
	}

	ratio := w / h
	if d.cfg.ThresholdRatio != 0 {
		inv := 1 / d.cfg.ThresholdRatio
		if ratio > d.cfg.ThresholdRatio || ratio < inv {
			return false
		}
	}
	if d.cfg.ThresholdRatioChange != 0 && d.havePrevRatio {
		if math.Abs(ratio-d.prevRatio) > d.cfg.ThresholdRatioChange {
			d.prevRatio = ratio
			return false
		}
	}
	d.prevRatio = ratio
	d.havePrevRatio = true

	return true
}
