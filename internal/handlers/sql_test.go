package handlers

import (
	"errors"
	"testing"

	"motiond/internal/database"
	"motiond/internal/event"
)

type fakeSQL struct {
	execCalls      []string
	execErrOnce    error
	reconnectCalls int
	reconnectErr   error
	inserted       []database.EventLogRecord
}

func (f *fakeSQL) ExecTemplate(query string) (int64, error) {
	f.execCalls = append(f.execCalls, query)
	if f.execErrOnce != nil {
		err := f.execErrOnce
		f.execErrOnce = nil
		return 0, err
	}
	return 42, nil
}

func (f *fakeSQL) Reconnect(dbPath string) error {
	f.reconnectCalls++
	return f.reconnectErr
}

func (f *fakeSQL) InsertEvent(rec database.EventLogRecord) (int64, error) {
	f.inserted = append(f.inserted, rec)
	return 1, nil
}

func TestSQLBinderRunsQueryStartOnFirstMotionAndCapturesDBEventID(t *testing.T) {
	db := &fakeSQL{}
	var gotCamera string
	var gotEventID uint64
	var gotID int64
	b := &SQLBinder{
		Enabled:    true,
		DB:         db,
		QueryStart: "insert into x values (%v)",
		RenderName: identityRender,
		DBEventID: func(camera string, eventID uint64, id int64) {
			gotCamera, gotEventID, gotID = camera, eventID, id
		},
	}

	b.Handle(event.Call{Kind: event.FirstMotion, CameraID: "cam0", EventID: 3})

	if len(db.execCalls) != 1 {
		t.Fatalf("want 1 exec call, got %d", len(db.execCalls))
	}
	if gotCamera != "cam0" || gotEventID != 3 || gotID != 42 {
		t.Fatalf("DBEventID callback got (%q, %d, %d)", gotCamera, gotEventID, gotID)
	}
}

func TestSQLBinderGatesFileCreateByMask(t *testing.T) {
	db := &fakeSQL{}
	b := &SQLBinder{
		Enabled:    true,
		DB:         db,
		Mask:       event.ImageSnapshot,
		Query:      "insert into x values (%v)",
		RenderName: identityRender,
	}

	b.Handle(event.Call{Kind: event.FileCreate, FileType: event.Movie})
	if len(db.execCalls) != 0 {
		t.Fatal("FileCreate with a FileType outside the mask ran the query")
	}

	b.Handle(event.Call{Kind: event.FileCreate, FileType: event.ImageSnapshot})
	if len(db.execCalls) != 1 {
		t.Fatal("FileCreate matching the mask did not run the query")
	}
	if len(db.inserted) != 1 {
		t.Fatal("matched FileCreate did not write an EventLogRecord")
	}
}

func TestSQLBinderReconnectsOnceThenDrops(t *testing.T) {
	db := &fakeSQL{execErrOnce: errors.New("connection reset")}
	b := &SQLBinder{
		Enabled:    true,
		DB:         db,
		QueryStart: "insert into x values (1)",
		RenderName: identityRender,
	}

	b.Handle(event.Call{Kind: event.FirstMotion})

	if db.reconnectCalls != 1 {
		t.Fatalf("want 1 reconnect attempt, got %d", db.reconnectCalls)
	}
	if len(db.execCalls) != 2 {
		t.Fatalf("want exec retried once after reconnect, got %d calls", len(db.execCalls))
	}
}

func TestSQLBinderDisabledDoesNothing(t *testing.T) {
	db := &fakeSQL{}
	b := &SQLBinder{Enabled: false, DB: db, QueryStart: "x", RenderName: identityRender}
	b.Handle(event.Call{Kind: event.FirstMotion})
	if len(db.execCalls) != 0 {
		t.Fatal("disabled binder ran a query")
	}
}

func TestSQLBinderIgnoresEventKindsItDoesNotBindTo(t *testing.T) {
	db := &fakeSQL{}
	b := &SQLBinder{Enabled: true, DB: db, QueryStart: "x", Query: "y", RenderName: identityRender}
	b.Handle(event.Call{Kind: event.FileClose})
	if len(db.execCalls) != 0 {
		t.Fatal("SQLBinder ran a query for FileClose; sql_query_stop is never bound, see DESIGN.md")
	}
}
