package core

// # Error Codes Reference
//
// User-facing errors carry a code that users can quote to support staff.
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Upload rejected: the analysis service could not process the file
//	         Action: Check the file and upload it again
//	         Patterns: "upload failed"
//
//	UPL002 - No file: no file was selected
//	         Action: Please select a CSV file
//	         Patterns: "no file provided"
//
//	UPL003 - Empty file: the uploaded file is empty
//	         Patterns: "empty file"
//
//	UPL004 - File too large: file exceeds the configured limit
//	         Patterns: "file too large", "request body too large"
//
// # Analysis Errors (ANL001-ANL099)
//
//	ANL001 - Unexpected result: an analysis returned data in an unknown shape
//	         Patterns: "decode"
//
//	ANL002 - Analysis failed: one analysis could not be computed
//	         Patterns: "analysis failed"
//
//	ANL003 - Unknown analysis
//	         Patterns: "unknown analysis"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Run in progress: a report is already being generated
//	         Patterns: "run already in progress"
//
//	RUN002 - System busy: too many reports are being generated
//	         Patterns: "too many concurrent runs"
//
//	RUN003 - Run not found: the run finished long ago or never existed
//	         Patterns: "run not found", "session not found"
//
//	RUN004 - Cancelled: the run or request was cancelled
//	         Patterns: "run cancelled", "context canceled"
//
// # View and Export Errors (VIEW001-VIEW099, EXP001-EXP099)
//
//	VIEW001 - No data yet: the view has nothing to render
//	          Patterns: "render unavailable"
//
//	VIEW002 - Unknown view
//	          Patterns: "unknown surface"
//
//	EXP001 - Chart export failed
//	         Patterns: "render chart"
//
//	EXP002 - Table export failed
//	         Patterns: "write csv"
//
// # Network Errors (NET001-NET099)
//
//	NET001 - Service unreachable: the analysis service is down
//	         Patterns: "connection refused", "no such host"
//
//	NET002 - Timeout: the analysis service did not answer in time
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Patterns are matched case-insensitively using strings.Contains and the
// first match wins, so transport patterns come before the generic upload
// and analysis ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Run lifecycle
	{"run already in progress", UserMessage{
		Message: "A report is already being generated",
		Action:  "Wait for the current report to finish before uploading again",
		Code:    "RUN001",
	}},
	{"too many concurrent runs", UserMessage{
		Message: "The system is busy generating other reports",
		Action:  "Please wait a moment and try again",
		Code:    "RUN002",
	}},
	{"run not found", UserMessage{
		Message: "Report run not found",
		Action:  "The run may have expired. Please upload the file again",
		Code:    "RUN003",
	}},
	{"run cancelled", UserMessage{
		Message: "Report generation was cancelled",
		Action:  "Upload the file again to generate a new report",
		Code:    "RUN004",
	}},
	{"session not found", UserMessage{
		Message: "Your session has expired",
		Action:  "Reload the page and upload the file again",
		Code:    "RUN003",
	}},

	// Transport
	{"connection refused", UserMessage{
		Message: "The analysis service is unreachable",
		Action:  "Please try again in a few moments",
		Code:    "NET001",
	}},
	{"no such host", UserMessage{
		Message: "The analysis service is unreachable",
		Action:  "Check ANALYSIS_BASE_URL or try again later",
		Code:    "NET001",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "The analysis service did not answer in time",
		Action:  "Try a smaller file or try again later",
		Code:    "NET002",
	}},
	{"timeout", UserMessage{
		Message: "The analysis service did not answer in time",
		Action:  "Try a smaller file or try again later",
		Code:    "NET002",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "RUN004",
	}},

	// File
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file.",
		Code:    "UPL002",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with data rows",
		Code:    "UPL003",
	}},
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "UPL004",
	}},
	{"request body too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "UPL004",
	}},
	{"upload failed", UserMessage{
		Message: "Error processing file.",
		Action:  "Check the file contents and upload it again",
		Code:    "UPL001",
	}},

	// Analysis
	{"decode", UserMessage{
		Message: "An analysis returned data in an unexpected format",
		Action:  "The rest of the report is still available",
		Code:    "ANL001",
	}},
	{"analysis failed", UserMessage{
		Message: "An analysis could not be computed",
		Action:  "The rest of the report is still available",
		Code:    "ANL002",
	}},
	{"unknown analysis", UserMessage{
		Message: "Unknown analysis",
		Action:  "This analysis is not configured",
		Code:    "ANL003",
	}},

	// Views and exports
	{"render unavailable", UserMessage{
		Message: "No data available yet",
		Action:  "Upload a file to generate a report",
		Code:    "VIEW001",
	}},
	{"unknown surface", UserMessage{
		Message: "Unknown view",
		Action:  "Verify the chart or table name is correct",
		Code:    "VIEW002",
	}},
	{"render chart", UserMessage{
		Message: "The chart could not be exported",
		Action:  "Change the filter or try again",
		Code:    "EXP001",
	}},
	{"write csv", UserMessage{
		Message: "The table could not be exported",
		Action:  "Please try again",
		Code:    "EXP002",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first pattern contained in the lowercased error text wins; ERR000 is
// returned when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown to users.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

// FailureSummary is the single message shown for all failed analyses of a run.
// It returns "" when nothing failed.
func FailureSummary(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}
	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = string(f.Name)
	}
	return "Failed to fetch data from: " + strings.Join(names, ", ")
}
