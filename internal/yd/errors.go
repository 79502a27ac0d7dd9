package yd

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no drawing record matches an id.
	ErrNotFound = errors.New("drawing not found")

	// ErrQuotaExceeded is returned by a Storage when a write would exceed
	// its capacity. The Library reacts to it by stripping thumbnails.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// ImportError reports content that is neither a YRD envelope nor a bare
// scene dump. The scene being imported into is left untouched.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import failed: %s: %v", e.Reason, e.Err)
	}
	return "import failed: " + e.Reason
}

func (e *ImportError) Unwrap() error { return e.Err }

// PersistError reports a storage write that failed even after the
// thumbnail-stripping retry. The record returned alongside it is still
// valid in memory; it just did not reach storage.
type PersistError struct {
	DrawingID string
	Err       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting drawing %s: %v", e.DrawingID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
