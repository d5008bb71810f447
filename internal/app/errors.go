package app

import "errors"

var (
	// ErrRosterFull rejects an admission at capacity before any mutation.
	ErrRosterFull = errors.New("session is full")
	// ErrUploadConflict rejects a second upload while one is in flight.
	ErrUploadConflict = errors.New("another upload is in progress")
	// ErrQuotaExceeded rejects an upload that would overflow aggregate storage.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrFileTooLarge rejects a single file above the per-file cap.
	ErrFileTooLarge = errors.New("file size limit exceeded")
	// ErrInvalidAsset rejects an upload whose content is not a supported video.
	ErrInvalidAsset = errors.New("unsupported video format")
)

// CallError is an expected call-signaling rejection, reported back to the
// initiating connection rather than logged as a failure.
type CallError struct {
	Reason string
}

func (e *CallError) Error() string { return "call error: " + e.Reason }

func newCallError(reason string) *CallError { return &CallError{Reason: reason} }
