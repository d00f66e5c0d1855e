// Package detector implements the motion detector (C3): reference-frame
// differencing, noise auto-tune, despeckle morphology, connected-component
// labeling, lightswitch suppression and the threshold/shape-filter test that
// turns a diff into a motion/no-motion verdict.
package detector

// Rect is a pixel bounding box, inclusive on Min, exclusive on Max.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

func (r Rect) Width() int  { return r.MaxX - r.MinX }
func (r Rect) Height() int { return r.MaxY - r.MinY }
func (r Rect) CenterX() int { return (r.MinX + r.MaxX) / 2 }
func (r Rect) CenterY() int { return (r.MinY + r.MaxY) / 2 }

// Config holds the tunables that govern one camera's detector instance.
// Zero values are valid (despeckle = "" runs no morphology, area_detect
// empty disables area-detect, threshold_maximum = 0 disables the upper
// bound, etc.), matching spec semantics for an all-defaults camera.
type Config struct {
	Threshold        int
	ThresholdMaximum int // 0 disables upper bound

	ThresholdSdevX        float64 // 0 disables
	ThresholdSdevY        float64
	ThresholdSdevXY       float64
	ThresholdRatio        float64 // 0 disables
	ThresholdRatioChange  float64 // 0 disables

	NoiseLevel int // initial noise_level, [0,255]
	NoiseTune  bool

	Despeckle string // letter-code pipeline, e.g. "EedD l"

	AreaDetect map[int]bool // cells 1..9 that trigger AreaDetected

	LightswitchPercent int // 0-100
	LightswitchFrames  int

	LabelMinPixels int // blobs below this are dropped by the 'l' op
}

// DefaultConfig mirrors the factory defaults a freshly-parsed camera with no
// overrides would carry.
func DefaultConfig() Config {
	return Config{
		Threshold:          1500,
		ThresholdMaximum:   0,
		NoiseLevel:         32,
		NoiseTune:          true,
		Despeckle:          "",
		AreaDetect:         nil,
		LightswitchPercent: 0,
		LightswitchFrames:  5,
		LabelMinPixels:     10,
	}
}

// Verdict is the pure per-frame output described in spec §3. It never
// outlives the frame it was computed for.
type Verdict struct {
	ChangedPixels      uint32
	Noise              uint8
	Labels             uint16
	LargestLabelPixels uint32
	Bbox               Rect
	Lightswitch        bool
	InMask             uint32
	AreaDetected       bool
	Motion             bool
	Error              bool // dimension mismatch; caller should rebuild the detector
}
