package handlers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"motiond/internal/event"
)

// SnapshotWriter handles ImageSnapshot. When the resolved path's basename is
// the literal token "lastsnap", it writes a timestamped file and keeps a
// stable "lastsnap.<ext>" symlink pointing at it, using the
// write-then-relink dance from spec §4.6 so the link is never dangling.
// Otherwise it overwrites the resolved path directly. Either way it
// unconditionally re-fires FileCreate with FileType::ImageSnapshot.
type SnapshotWriter struct {
	TargetDir   string
	Template    string // e.g. "events/%Y/lastsnap"
	Type        PictureType
	Quality     int
	RenderName  TemplateFunc
	Redispatch  func(event.Call)
	Log         *log.Logger
}

func (w *SnapshotWriter) Handle(call event.Call) {
	if call.Image == nil {
		return
	}
	rendered := w.RenderName(w.Template, time.Unix(0, call.Timestamp))
	ext := w.Type.ext()

	var finalPath string
	if strings.EqualFold(filepath.Base(rendered), "lastsnap") {
		finalPath = w.writeLastsnap(rendered, ext, call)
	} else {
		finalPath = filepath.Join(w.TargetDir, rendered+"."+ext)
		if err := writeJPEG(finalPath, call, qualityOrDefault(w.Quality)); err != nil {
			logger(w.Log).Printf("camera_id=%s event_kind=ImageSnapshot error_kind=storage error=%q", call.CameraID, err)
		}
	}

	if w.Redispatch != nil {
		w.Redispatch(event.Call{
			Kind:      event.FileCreate,
			CameraID:  call.CameraID,
			Image:     call.Image,
			Filename:  finalPath,
			FileType:  event.ImageSnapshot,
			EventID:   call.EventID,
			Timestamp: call.Timestamp,
		})
	}
}

// writeLastsnap writes a uniquely-named real file, then repoints the
// lastsnap.<ext> symlink at it: write new file, unlink old symlink, symlink
// new target. The link never points at a missing file; between the unlink
// and the symlink it is briefly absent (spec §8 scenario 5).
func (w *SnapshotWriter) writeLastsnap(rendered, ext string, call event.Call) string {
	dir := filepath.Join(w.TargetDir, filepath.Dir(rendered))
	realName := fmt.Sprintf("%s-%d.%s", filepath.Base(rendered), call.Timestamp, ext)
	realPath := filepath.Join(dir, realName)
	linkPath := filepath.Join(dir, "lastsnap."+ext)

	if err := writeJPEG(realPath, call, qualityOrDefault(w.Quality)); err != nil {
		logger(w.Log).Printf("camera_id=%s event_kind=ImageSnapshot error_kind=storage error=%q", call.CameraID, err)
		return realPath
	}

	_ = os.Remove(linkPath)
	if err := os.Symlink(realName, linkPath); err != nil {
		logger(w.Log).Printf("camera_id=%s event_kind=ImageSnapshot error_kind=storage error=%q", call.CameraID, err)
	}
	return realPath
}
