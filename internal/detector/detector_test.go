package detector

import "testing"

func flatFrame(w, h int, v byte) []byte {
	p := make([]byte, w*h)
	for i := range p {
		p[i] = v
	}
	return p
}

func TestFirstFrameSeedsReferenceWithZeroChange(t *testing.T) {
	d := New(16, 16, DefaultConfig())
	v := d.Detect(flatFrame(16, 16, 100), 16, 16)
	if v.ChangedPixels != 0 || v.Motion {
		t.Fatalf("expected zero-change verdict on seed frame, got %+v", v)
	}
}

func TestDimensionMismatchReturnsError(t *testing.T) {
	d := New(16, 16, DefaultConfig())
	d.Detect(flatFrame(16, 16, 100), 16, 16)
	v := d.Detect(flatFrame(8, 8, 100), 8, 8)
	if !v.Error {
		t.Fatalf("expected Error=true on dimension mismatch")
	}
}

func TestMaskZeroCoverageNeverReportsChange(t *testing.T) {
	cfg := DefaultConfig()
	d := New(16, 16, cfg)
	d.Detect(flatFrame(16, 16, 100), 16, 16)
	mask := make([]byte, 16*16) // all zero => fully masked out
	d.SetFixedMask(mask)

	for i := 0; i < 5; i++ {
		noisy := flatFrame(16, 16, byte(100+i*50))
		v := d.Detect(noisy, 16, 16)
		if v.ChangedPixels != 0 || v.Motion {
			t.Fatalf("frame %d: expected zero change under full mask, got %+v", i, v)
		}
	}
}

func TestThresholdTestRequiresAboveThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 100
	cfg.NoiseTune = false
	cfg.LightswitchPercent = 0
	d := New(32, 32, cfg)
	d.Detect(flatFrame(32, 32, 0), 32, 32)

	cur := flatFrame(32, 32, 0)
	// Flip a 12x12 block far above noise_level so it survives the diff.
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			cur[y*32+x] = 255
		}
	}
	v := d.Detect(cur, 32, 32)
	if v.LargestLabelPixels < 140 {
		t.Fatalf("expected a ~144px blob, got %d", v.LargestLabelPixels)
	}
	if !v.Motion {
		t.Fatalf("expected motion=true for a blob above threshold 100, got %+v", v)
	}
}

func TestLightswitchSuppressesMotionAndWithholdsRefUpdate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LightswitchPercent = 50
	cfg.LightswitchFrames = 3
	cfg.NoiseTune = false
	cfg.Threshold = 1
	d := New(8, 8, cfg)
	d.Detect(flatFrame(8, 8, 0), 8, 8)

	bright := flatFrame(8, 8, 255)
	v := d.Detect(bright, 8, 8)
	if !v.Lightswitch || v.Motion {
		t.Fatalf("expected lightswitch=true, motion=false, got %+v", v)
	}

	for i := 0; i < 2; i++ {
		v = d.Detect(flatFrame(8, 8, 255), 8, 8)
		if v.ChangedPixels != 0 {
			t.Fatalf("expected changed_pixels=0 during lightswitch recovery window, got %d", v.ChangedPixels)
		}
	}
}

func TestAreaDetectFlagsConfiguredCell(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 10
	cfg.NoiseTune = false
	cfg.AreaDetect = map[int]bool{1: true} // top-left cell
	d := New(30, 30, cfg)
	d.Detect(flatFrame(30, 30, 0), 30, 30)

	cur := flatFrame(30, 30, 0)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			cur[y*30+x] = 255
		}
	}
	v := d.Detect(cur, 30, 30)
	if !v.AreaDetected {
		t.Fatalf("expected area_detected=true for a blob in cell 1, got %+v", v)
	}
}

func TestDespeckleErodeRemovesIsolatedSpeckle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0
	cfg.NoiseTune = false
	cfg.Despeckle = "E"
	d := New(16, 16, cfg)
	d.Detect(flatFrame(16, 16, 0), 16, 16)

	cur := flatFrame(16, 16, 0)
	cur[5*16+5] = 255 // single isolated pixel
	v := d.Detect(cur, 16, 16)
	if v.LargestLabelPixels != 0 {
		t.Fatalf("expected erode to remove an isolated speckle, got %d surviving pixels", v.LargestLabelPixels)
	}
}

func TestLabelTwoBlobsPicksLargest(t *testing.T) {
	p := newPlane(10, 10)
	// small blob: 2 pixels
	p.bits[0] = true
	p.bits[1] = true
	// large blob: 3x3 = 9 pixels, far away
	for y := 5; y < 8; y++ {
		for x := 5; x < 8; x++ {
			p.bits[y*10+x] = true
		}
	}
	res := label(p)
	if res.count != 2 {
		t.Fatalf("expected 2 blobs, got %d", res.count)
	}
	if res.largestPixels != 9 {
		t.Fatalf("expected largest blob of 9 pixels, got %d", res.largestPixels)
	}
}
