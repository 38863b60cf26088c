package database

import "errors"

var (
	// ErrNoDocument is returned by a Backend when nothing has been stored yet.
	ErrNoDocument = errors.New("document does not exist")
	// ErrRevisionConflict is returned by Backend.Save when the stored revision
	// no longer matches the one the caller read.
	ErrRevisionConflict = errors.New("document revision conflict")
	// ErrConcurrentModification is returned by the Store once conflict
	// retries are exhausted.
	ErrConcurrentModification = errors.New("document was modified concurrently")
	ErrCorruptDocument        = errors.New("stored document is not valid JSON")
	ErrClosed                 = errors.New("store is closed")
)
