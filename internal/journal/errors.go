package journal

import "errors"

var (
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrAmbiguousRun is returned when a run id prefix matches more than one run.
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
	// ErrLocked is returned when another process holds the run lock.
	ErrLocked = errors.New("another import is already running")
)
