package camerapipe

import (
	"strconv"
	"strings"

	"motiond/internal/config"
	"motiond/internal/detector"
	"motiond/internal/eventstate"
	"motiond/internal/imaging"
)

// Profile is the static, per-camera configuration snapshot handed to the
// camera loop on (re)start, flattened out of the shared config.Registry
// (spec §3's CameraProfile).
type Profile struct {
	ID   string
	Name string

	Width, Height, Framerate int
	NetcamURL                string
	VideoDevice               string
	ReadTimeoutSeconds        int
	DeviceTimeoutSeconds      int

	Rotate           int
	Flip             imaging.Flip
	TextScale        int
	LocateMotionMode string

	StreamMaxRate int

	Detector detector.Config

	EventState eventstate.Config

	TargetDir         string
	PictureFilename   string
	PictureType       string
	SnapshotFilename  string
	SnapshotInterval  int

	MovieFilename string
	MovieCodec    string

	TimelapseFilename string
	TimelapseCodec    string
	TimelapseInterval int

	UseExtpipe bool
	Extpipe    string

	StreamQuality int

	SQLLogPicture   bool
	SQLLogSnapshot  bool
	SQLLogMovie     bool
	SQLLogTimelapse bool
	SQLQueryStart   string
	SQLQuery        string

	LoopbackDevice string

	SecondaryInterval int
	SecondaryURL      string

	OnPictureSave     string
	OnMotionDetected  string
	OnAreaDetected    string
	OnEventStart      string
	OnEventEnd        string
	OnMovieEnd        string
	OnCameraLost      string
	OnCameraFound     string
	Quiet             bool
}

// ProfileFromRegistry flattens reg's current values into a Profile for one
// camera. The camera id/name are supplied separately since they are
// per-camera keys the shared registry doesn't carry.
func ProfileFromRegistry(id, name string, reg *config.Registry) Profile {
	p := Profile{
		ID:                   id,
		Name:                 name,
		Width:                reg.GetInt("width"),
		Height:               reg.GetInt("height"),
		Framerate:            reg.GetInt("framerate"),
		NetcamURL:            reg.GetString("netcam_url"),
		VideoDevice:          reg.GetString("videodevice"),
		ReadTimeoutSeconds:   reg.GetInt("read_timeout"),
		DeviceTimeoutSeconds: reg.GetInt("device_tmo"),
		Rotate:               reg.GetInt("rotate"),
		Flip:                 flipFromString(reg.GetString("flip_axis")),
		TextScale:            reg.GetInt("text_scale"),
		LocateMotionMode:     reg.GetString("locate_motion_mode"),

		StreamMaxRate: reg.GetInt("stream_maxrate"),

		Detector: detector.Config{
			Threshold:            reg.GetInt("threshold"),
			ThresholdMaximum:     reg.GetInt("threshold_maximum"),
			ThresholdSdevX:       float64(reg.GetInt("threshold_sdevx")),
			ThresholdSdevY:       float64(reg.GetInt("threshold_sdevy")),
			ThresholdSdevXY:      float64(reg.GetInt("threshold_sdevxy")),
			ThresholdRatio:       float64(reg.GetInt("threshold_ratio")),
			ThresholdRatioChange: float64(reg.GetInt("threshold_ratio_change")),
			NoiseLevel:           reg.GetInt("noise_level"),
			NoiseTune:            reg.GetBool("noise_tune"),
			Despeckle:            reg.GetString("despeckle_filter"),
			AreaDetect:           parseAreaDetect(reg.GetString("area_detect")),
			LightswitchPercent:   reg.GetInt("lightswitch_percent"),
			LightswitchFrames:    reg.GetInt("lightswitch_frames"),
			LabelMinPixels:       10,
		},

		EventState: eventstate.Config{
			MinimumMotionFrames: reg.GetInt("minimum_motion_frames"),
			EventGap:            reg.GetInt("event_gap"),
			PreCapture:          reg.GetInt("pre_capture"),
		},

		TargetDir:        reg.GetString("target_dir"),
		PictureFilename:  reg.GetString("picture_filename"),
		PictureType:      reg.GetString("picture_type"),
		SnapshotFilename: reg.GetString("snapshot_filename"),
		SnapshotInterval: reg.GetInt("snapshot_interval"),

		MovieFilename: reg.GetString("movie_filename"),
		MovieCodec:    reg.GetString("movie_codec"),

		TimelapseFilename: reg.GetString("timelapse_filename"),
		TimelapseCodec:    reg.GetString("timelapse_codec"),
		TimelapseInterval: reg.GetInt("timelapse_interval"),

		UseExtpipe: reg.GetBool("use_extpipe"),
		Extpipe:    reg.GetString("extpipe"),

		StreamQuality: reg.GetInt("stream_quality"),

		SQLLogPicture:   reg.GetBool("sql_log_picture"),
		SQLLogSnapshot:  reg.GetBool("sql_log_snapshot"),
		SQLLogMovie:     reg.GetBool("sql_log_movie"),
		SQLLogTimelapse: reg.GetBool("sql_log_timelapse"),
		SQLQueryStart:   reg.GetString("sql_query_start"),
		SQLQuery:        reg.GetString("sql_query"),

		LoopbackDevice: reg.GetString("loopback_device"),

		SecondaryInterval: reg.GetInt("secondary_interval"),
		SecondaryURL:      reg.GetString("secondary_url"),

		OnPictureSave:    reg.GetString("on_picture_save"),
		OnMotionDetected: reg.GetString("on_motion_detected"),
		OnAreaDetected:   reg.GetString("on_area_detected"),
		OnEventStart:     reg.GetString("on_event_start"),
		OnEventEnd:       reg.GetString("on_event_end"),
		OnMovieEnd:       reg.GetString("on_movie_end"),
		OnCameraLost:     reg.GetString("on_camera_lost"),
		OnCameraFound:    reg.GetString("on_camera_found"),
		Quiet:            reg.GetBool("quiet"),
	}
	return p
}

func flipFromString(s string) imaging.Flip {
	switch strings.ToLower(s) {
	case "h", "horizontal":
		return imaging.FlipHorizontal
	case "v", "vertical":
		return imaging.FlipVertical
	default:
		return imaging.FlipNone
	}
}

// parseAreaDetect parses a comma-separated list of 1..9 grid cells, e.g.
// "3,5,9", into the set areaDetect's Config field needs.
func parseAreaDetect(s string) map[int]bool {
	if s == "" {
		return nil
	}
	out := make(map[int]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			out[n] = true
		}
	}
	return out
}
