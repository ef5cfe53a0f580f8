package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below wrap them so callers can use errors.Is.
var (
	// ErrUploadFailed is fatal to a run: no analysis is attempted.
	ErrUploadFailed = errors.New("upload failed")

	// ErrAnalysisFailed marks one analysis that produced no payload. Never fatal.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrRenderUnavailable means a view has no data yet. It is shown as a
	// placeholder and is never reported as an error to the user.
	ErrRenderUnavailable = errors.New("render unavailable")

	ErrRunInProgress   = errors.New("run already in progress for this session")
	ErrTooManyRuns     = errors.New("too many concurrent runs, please try again later")
	ErrRunNotFound     = errors.New("run not found")
	ErrRunCancelled    = errors.New("run cancelled")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownAnalysis = errors.New("unknown analysis")
	ErrNoFile          = errors.New("no file provided")
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
)

// UploadError reports a failed upload step. Message is the human readable
// text returned by the analysis service, if any.
type UploadError struct {
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("upload failed: %s: %v", e.Message, e.Err)
	case e.Message != "":
		return "upload failed: " + e.Message
	case e.Err != nil:
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
	return "upload failed"
}

func (e *UploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUploadFailed}
	}
	return []error{ErrUploadFailed, e.Err}
}

// AnalysisError reports one failed analysis call.
type AnalysisError struct {
	Name    AnalysisName
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return fmt.Sprintf("analysis failed: %s", e.Name)
	}
	return fmt.Sprintf("analysis failed: %s: %s", e.Name, msg)
}

func (e *AnalysisError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAnalysisFailed}
	}
	return []error{ErrAnalysisFailed, e.Err}
}
