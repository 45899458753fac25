package pipeline

import "fmt"

// FetchError covers network failures, non-success statuses and malformed
// payloads from a bulletin endpoint. It fails one source for one pass; the
// next scheduled pass retries naturally.
type FetchError struct {
	SourceID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError aborts the current source's remaining items. The
// watermark keeps whatever was committed before the failure.
type PersistenceError struct {
	SourceID string
	Op       string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.SourceID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
