package server

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed submission.
type ErrorKind string

const (
	NoFilesProvided             ErrorKind = "no_files_provided"
	TooManyFiles                ErrorKind = "too_many_files"
	PayloadTooLarge             ErrorKind = "payload_too_large"
	MalformedUpload             ErrorKind = "malformed_upload"
	ArchiveBuildFailure         ErrorKind = "archive_build_failure"
	LogStoreFailure             ErrorKind = "log_store_failure"
	NotificationDispatchFailure ErrorKind = "notification_dispatch_failure"
)

// Status is the HTTP status reported for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case NoFilesProvided, TooManyFiles, MalformedUpload:
		return http.StatusBadRequest
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Message is the text shown to the client.
func (k ErrorKind) Message() string {
	switch k {
	case NoFilesProvided:
		return "No files uploaded"
	case TooManyFiles:
		return "Too many files"
	case PayloadTooLarge:
		return "Upload too large"
	case MalformedUpload:
		return "Malformed upload"
	case ArchiveBuildFailure:
		return "Failed to build archive."
	case LogStoreFailure:
		return "Failed to record submission."
	case NotificationDispatchFailure:
		return "Email sending failed."
	default:
		return "Internal server error"
	}
}

// PipelineError is a failed submission, tagged with the last state the
// pipeline reached before failing.
type PipelineError struct {
	Kind  ErrorKind
	State State
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (after %s)", e.Kind, e.State)
	}
	return fmt.Sprintf("%s (after %s): %v", e.Kind, e.State, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

func pipelineErr(kind ErrorKind, state State, err error) *PipelineError {
	return &PipelineError{Kind: kind, State: state, Err: err}
}

// writePipelineError reports err to the client: client errors as plain text,
// server errors as a JSON object with an "error" key.
func writePipelineError(w http.ResponseWriter, err error) {
	var pe *PipelineError
	if !errors.As(err, &pe) {
		pe = pipelineErr("", StateFailed, err)
	}

	status := pe.Kind.Status()
	if status >= http.StatusInternalServerError {
		writeJSON(w, status, map[string]string{"error": pe.Kind.Message()})
		return
	}
	http.Error(w, pe.Kind.Message(), status)
}
