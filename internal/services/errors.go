package services

import (
	"errors"
	"fmt"
)

// ErrSubmitInFlight is returned when a second submit is triggered for a draft
// that already has an upload workflow running. At most one workflow may be in
// flight per draft.
var ErrSubmitInFlight = errors.New("a submit for this draft is already in progress")

// ValidationError reports a required draft field that was missing at submit
// time. Validation runs before any upload, so a validation failure has no
// side effects.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// UploadError reports the failure of a single asset upload. Index is the
// asset's position in pick order. One failed upload aborts the whole submit;
// images that finished before the failure stay behind in blob storage.
type UploadError struct {
	Index int
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image %d upload failed: %v", e.Index+1, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// RecordWriteError reports a failed journal write after every upload
// succeeded. The uploaded images are orphaned; the user has to re-submit.
type RecordWriteError struct {
	Err error
}

func (e *RecordWriteError) Error() string {
	return fmt.Sprintf("failed to save journal entry: %v", e.Err)
}

func (e *RecordWriteError) Unwrap() error { return e.Err }

// RemoteServiceError is a well-formed error response from the summarization
// service. Its message is surfaced to the user as-is.
type RemoteServiceError struct {
	Message string
}

func (e *RemoteServiceError) Error() string { return e.Message }
