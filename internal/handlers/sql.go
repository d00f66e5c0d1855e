package handlers

import (
	"log"
	"time"

	"github.com/google/uuid"

	"motiond/internal/database"
	"motiond/internal/event"
)

// sqlExecer is the subset of *database.Database the binder needs, seamed
// for testing without a real SQLite file.
type sqlExecer interface {
	ExecTemplate(query string) (int64, error)
	Reconnect(dbPath string) error
	InsertEvent(rec database.EventLogRecord) (int64, error)
}

// SQLBinder runs strftime_plus-expanded SQL statements against the event
// log on FirstMotion (sql_query_start) and on FileCreate when the file's
// type matches the camera's sql_mask (sql_query), per spec §4.6 and the
// dispatch order in spec §6. The original never bound a statement to
// event end (there is no sql_query_stop call site in its event table),
// so sql_query_stop is parsed as a config parameter but never executed
// by this binder — see DESIGN.md.
//
// sql_mask is derived once from sql_log_picture/sql_log_snapshot/
// sql_log_movie/sql_log_timelapse: each enabled flag ORs in the matching
// FileType bits, and FileCreate calls are only bound when their FileType
// intersects the mask.
type SQLBinder struct {
	Enabled bool
	DB      sqlExecer
	DBPath  string // used to reconnect after a dropped connection
	Mask    event.FileType

	QueryStart string // sql_query_start template
	Query      string // sql_query template

	RenderName TemplateFunc

	// DBEventID receives the rowid captured from sql_query_start so later
	// %{dbeventid} expansions for the same event can use it.
	DBEventID func(cameraID string, eventID uint64, id int64)

	Log *log.Logger
}

func (b *SQLBinder) Handle(call event.Call) {
	if !b.Enabled || b.DB == nil {
		return
	}
	switch call.Kind {
	case event.FirstMotion:
		b.run(call, b.QueryStart, true)
	case event.FileCreate:
		if call.FileType.Any(b.Mask) {
			b.run(call, b.Query, false)
			b.logEvent(call)
		}
	}
}

// logEvent materializes the matched FileCreate call as an EventLogRecord,
// independent of whatever sql_query itself does (spec §3's EventLogRecord
// is the binder's own audit trail, not a side effect of the user's
// templated statement).
func (b *SQLBinder) logEvent(call event.Call) {
	rec := database.EventLogRecord{
		ID:        uuid.NewString(),
		CameraID:  call.CameraID,
		Kind:      call.Kind.String(),
		EventID:   call.EventID,
		FilePath:  call.Filename,
		FileType:  int(call.FileType),
		Timestamp: time.Unix(0, call.Timestamp),
	}
	if _, err := b.DB.InsertEvent(rec); err != nil {
		logger(b.Log).Printf("camera_id=%s event_kind=%s error_kind=sql error=%q", call.CameraID, call.Kind, err)
	}
}

func (b *SQLBinder) run(call event.Call, template string, captureID bool) {
	if template == "" {
		return
	}
	query := b.RenderName(template, time.Unix(0, call.Timestamp))
	id, err := b.DB.ExecTemplate(query)
	if err != nil {
		// One reconnect-then-drop retry: a dropped SQLite connection is
		// rare but not impossible if the db file lives on a network mount.
		if rerr := b.DB.Reconnect(b.DBPath); rerr != nil {
			logger(b.Log).Printf("camera_id=%s event_kind=%s error_kind=sql error=%q reconnect_error=%q", call.CameraID, call.Kind, err, rerr)
			return
		}
		id, err = b.DB.ExecTemplate(query)
		if err != nil {
			logger(b.Log).Printf("camera_id=%s event_kind=%s error_kind=sql error=%q", call.CameraID, call.Kind, err)
			return
		}
	}
	if captureID && b.DBEventID != nil {
		b.DBEventID(call.CameraID, call.EventID, id)
	}
}
