package camerapipe

import (
	"testing"

	"motiond/internal/config"
	"motiond/internal/imaging"
)

func TestProfileFromRegistryFlattensCoreFields(t *testing.T) {
	reg := config.New()
	reg.EditSet("width", "640")
	reg.EditSet("height", "480")
	reg.EditSet("framerate", "15")
	reg.EditSet("threshold", "2000")
	reg.EditSet("flip_axis", "v")
	reg.EditSet("sql_log_movie", "on")
	reg.EditSet("area_detect", "1,4,9")

	p := ProfileFromRegistry("cam0", "front-door", reg)

	if p.ID != "cam0" || p.Name != "front-door" {
		t.Fatalf("got id=%q name=%q", p.ID, p.Name)
	}
	if p.Width != 640 || p.Height != 480 || p.Framerate != 15 {
		t.Fatalf("got %dx%d@%d", p.Width, p.Height, p.Framerate)
	}
	if p.Detector.Threshold != 2000 {
		t.Fatalf("got threshold %d, want 2000", p.Detector.Threshold)
	}
	if p.Flip != imaging.FlipVertical {
		t.Fatalf("got flip %v, want FlipVertical", p.Flip)
	}
	if !p.SQLLogMovie {
		t.Fatal("want SQLLogMovie true")
	}
	if !p.Detector.AreaDetect[1] || !p.Detector.AreaDetect[4] || !p.Detector.AreaDetect[9] {
		t.Fatalf("got AreaDetect %v, want 1,4,9 set", p.Detector.AreaDetect)
	}
}

func TestFlipFromString(t *testing.T) {
	cases := map[string]imaging.Flip{
		"h":          imaging.FlipHorizontal,
		"horizontal": imaging.FlipHorizontal,
		"H":          imaging.FlipHorizontal,
		"v":          imaging.FlipVertical,
		"vertical":   imaging.FlipVertical,
		"":           imaging.FlipNone,
		"garbage":    imaging.FlipNone,
	}
	for in, want := range cases {
		if got := flipFromString(in); got != want {
			t.Errorf("flipFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseAreaDetect(t *testing.T) {
	got := parseAreaDetect(" 1, 3 ,5")
	want := map[int]bool{1: true, 3: true, 5: true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k := range want {
		if !got[k] {
			t.Errorf("missing cell %d in %v", k, got)
		}
	}
}

func TestParseAreaDetectEmptyReturnsNil(t *testing.T) {
	if got := parseAreaDetect(""); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestParseAreaDetectIgnoresGarbageTokens(t *testing.T) {
	got := parseAreaDetect("2,x,4")
	if len(got) != 2 || !got[2] || !got[4] {
		t.Fatalf("got %v, want {2,4}", got)
	}
}
