// Package runtime hoists the process-scoped collaborators every camera
// pipeline shares: the SQLite event log, the structured logger and the
// config registry, matching the teacher's "global libav init, global SQL
// init, per-camera lazy reconfiguration" hoisting note (spec §9).
package runtime

import (
	"log"

	"motiond/internal/config"
	"motiond/internal/database"
)

// Runtime is constructed once in cmd/motiond/main.go and passed by
// reference into every camera's pipeline.
type Runtime struct {
	DB     *database.Database
	Log    *log.Logger
	Config *config.Registry
}

// New wires the three process-scoped collaborators together. dbPath may be
// empty, in which case DB is nil and the SQL binder handler stays disabled
// for every camera.
func New(dbPath string, logger *log.Logger) (*Runtime, error) {
	rt := &Runtime{Log: logger, Config: config.New()}

	if dbPath == "" {
		return rt, nil
	}
	db, err := database.New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	rt.DB = db
	return rt, nil
}

// Close releases every owned resource. Safe to call on a Runtime whose DB
// is nil.
func (rt *Runtime) Close() error {
	if rt.DB == nil {
		return nil
	}
	return rt.DB.Close()
}
