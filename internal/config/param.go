// Package config implements the flattened parameter registry (spec §3, §6):
// typed Param metadata, a config-file parser, a deprecated-key rewrite
// table, and the thread-safe edit_set validator the (out-of-scope) web
// control surface calls into.
package config

// Type tags a Param's value representation.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeBool
	TypeList
	TypeArray
)

// Category groups Params the way spec §3 groups them for the web UI.
type Category string

const (
	CategorySystem  Category = "system"
	CategorySource  Category = "source"
	CategoryImage   Category = "image"
	CategoryDetect  Category = "detect"
	CategoryScripts Category = "scripts"
	CategoryPicture Category = "picture"
	CategoryMovie   Category = "movie"
	CategoryTimelapse Category = "timelapse"
	CategoryPipe    Category = "pipe"
	CategoryWeb     Category = "web"
	CategoryDB      Category = "db"
	CategorySQL     Category = "sql"
	CategoryTrack   Category = "track"
)

// WebVisibility controls whether and how a Param is exposed to the
// (out-of-scope) web control surface.
type WebVisibility int

const (
	WebHidden WebVisibility = iota
	WebReadOnly
	WebReadWrite
)

// Param is one registry entry's metadata.
type Param struct {
	Name            string
	Type            Type
	Category        Category
	WebVisibility   WebVisibility
	RestartRequired bool
	Default         string
}

// Spec is the full set of parameters this daemon understands. It mirrors
// the subset of Motion's parameter space that the in-scope components
// (C1-C7) actually consume; anything belonging only to the out-of-scope
// web UI/auth surface is omitted.
var Spec = []Param{
	{Name: "width", Type: TypeInt, Category: CategorySource, RestartRequired: true, Default: "640"},
	{Name: "height", Type: TypeInt, Category: CategorySource, RestartRequired: true, Default: "480"},
	{Name: "framerate", Type: TypeInt, Category: CategorySource, RestartRequired: true, Default: "15"},
	{Name: "netcam_url", Type: TypeString, Category: CategorySource, RestartRequired: true},
	{Name: "videodevice", Type: TypeString, Category: CategorySource, RestartRequired: true, Default: "/dev/video0"},
	{Name: "read_timeout", Type: TypeInt, Category: CategorySource, Default: "10"},
	{Name: "device_tmo", Type: TypeInt, Category: CategorySource, Default: "30"},

	{Name: "rotate", Type: TypeInt, Category: CategoryImage, Default: "0"},
	{Name: "flip_axis", Type: TypeString, Category: CategoryImage, Default: "none"},
	{Name: "text_scale", Type: TypeInt, Category: CategoryImage, Default: "1"},
	{Name: "locate_motion_mode", Type: TypeString, Category: CategoryImage, Default: "off"},

	{Name: "threshold", Type: TypeInt, Category: CategoryDetect, WebVisibility: WebReadWrite, Default: "1500"},
	{Name: "threshold_maximum", Type: TypeInt, Category: CategoryDetect, WebVisibility: WebReadWrite, Default: "0"},
	{Name: "threshold_sdevx", Type: TypeInt, Category: CategoryDetect, Default: "0"},
	{Name: "threshold_sdevy", Type: TypeInt, Category: CategoryDetect, Default: "0"},
	{Name: "threshold_sdevxy", Type: TypeInt, Category: CategoryDetect, Default: "0"},
	{Name: "threshold_ratio", Type: TypeInt, Category: CategoryDetect, Default: "0"},
	{Name: "threshold_ratio_change", Type: TypeInt, Category: CategoryDetect, Default: "0"},
	{Name: "noise_level", Type: TypeInt, Category: CategoryDetect, WebVisibility: WebReadWrite, Default: "32"},
	{Name: "noise_tune", Type: TypeBool, Category: CategoryDetect, WebVisibility: WebReadWrite, Default: "on"},
	{Name: "despeckle_filter", Type: TypeString, Category: CategoryDetect, Default: ""},
	{Name: "area_detect", Type: TypeList, Category: CategoryDetect, Default: ""},
	{Name: "lightswitch_percent", Type: TypeInt, Category: CategoryDetect, Default: "0"},
	{Name: "lightswitch_frames", Type: TypeInt, Category: CategoryDetect, Default: "5"},
	{Name: "minimum_motion_frames", Type: TypeInt, Category: CategoryDetect, WebVisibility: WebReadWrite, Default: "1"},
	{Name: "event_gap", Type: TypeInt, Category: CategoryDetect, WebVisibility: WebReadWrite, Default: "60"},
	{Name: "pre_capture", Type: TypeInt, Category: CategoryDetect, Default: "1"},
	{Name: "mask_file", Type: TypeString, Category: CategoryDetect, Default: ""},

	{Name: "on_picture_save", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "on_motion_detected", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "on_area_detected", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "on_event_start", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "on_event_end", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "on_movie_end", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "on_camera_lost", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "on_camera_found", Type: TypeString, Category: CategoryScripts, Default: ""},
	{Name: "quiet", Type: TypeBool, Category: CategoryScripts, Default: "off"},

	{Name: "target_dir", Type: TypeString, Category: CategoryPicture, Default: "."},
	{Name: "picture_filename", Type: TypeString, Category: CategoryPicture, Default: "%v-%Y%m%d%H%M%S-%q"},
	{Name: "picture_type", Type: TypeString, Category: CategoryPicture, Default: "jpg"},
	{Name: "snapshot_filename", Type: TypeString, Category: CategoryPicture, Default: "%v-%Y%m%d%H%M%S-snapshot"},
	{Name: "snapshot_interval", Type: TypeInt, Category: CategoryPicture, WebVisibility: WebReadWrite, Default: "0"},
	{Name: "snappath", Type: TypeString, Category: CategoryPicture, Default: ""},

	{Name: "movie_filename", Type: TypeString, Category: CategoryMovie, Default: "%v-%Y%m%d%H%M%S"},
	{Name: "movie_codec", Type: TypeString, Category: CategoryMovie, Default: "mp4"},

	{Name: "timelapse_filename", Type: TypeString, Category: CategoryTimelapse, Default: "%Y%m%d-timelapse"},
	{Name: "timelapse_codec", Type: TypeString, Category: CategoryTimelapse, Default: "mpeg4"},
	{Name: "timelapse_mode", Type: TypeString, Category: CategoryTimelapse, Default: "daily"},
	{Name: "timelapse_interval", Type: TypeInt, Category: CategoryTimelapse, Default: "0"},

	{Name: "use_extpipe", Type: TypeBool, Category: CategoryPipe, Default: "off"},
	{Name: "extpipe", Type: TypeString, Category: CategoryPipe, Default: ""},

	{Name: "stream_maxrate", Type: TypeInt, Category: CategoryWeb, WebVisibility: WebReadWrite, Default: "1"},
	{Name: "stream_quality", Type: TypeInt, Category: CategoryWeb, WebVisibility: WebReadWrite, Default: "50"},

	{Name: "database_type", Type: TypeString, Category: CategoryDB, RestartRequired: true, Default: ""},
	{Name: "database_dbname", Type: TypeString, Category: CategoryDB, RestartRequired: true, Default: "motiond.db"},
	{Name: "sql_log_picture", Type: TypeBool, Category: CategorySQL, Default: "off"},
	{Name: "sql_log_snapshot", Type: TypeBool, Category: CategorySQL, Default: "off"},
	{Name: "sql_log_movie", Type: TypeBool, Category: CategorySQL, Default: "off"},
	{Name: "sql_log_timelapse", Type: TypeBool, Category: CategorySQL, Default: "off"},
	{Name: "sql_query_start", Type: TypeString, Category: CategorySQL, Default: ""},
	{Name: "sql_query", Type: TypeString, Category: CategorySQL, Default: ""},
	{Name: "sql_query_stop", Type: TypeString, Category: CategorySQL, Default: ""},

	{Name: "loopback_device", Type: TypeString, Category: CategoryTrack, RestartRequired: true, Default: ""},

	{Name: "secondary_interval", Type: TypeInt, Category: CategoryDetect, Default: "0"},
	{Name: "secondary_url", Type: TypeString, Category: CategoryDetect, RestartRequired: true, Default: ""},
}

// byName indexes Spec for O(1) lookup.
var byName = func() map[string]Param {
	m := make(map[string]Param, len(Spec))
	for _, p := range Spec {
		m[p.Name] = p
	}
	return m
}()

// Lookup returns a Param's metadata and whether it is a known name.
func Lookup(name string) (Param, bool) {
	p, ok := byName[name]
	return p, ok
}
