package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "upload rejected by service",
			err:         &UploadError{Message: "Invalid file type"},
			wantCode:    "UPL001",
			wantMessage: "Error processing file.",
		},
		{
			name:        "no file selected",
			err:         ErrNoFile,
			wantCode:    "UPL002",
			wantMessage: "No file was selected",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("%w: 200MB exceeds limit", ErrFileTooLarge),
			wantCode:    "UPL004",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "transport beats upload",
			err:         &UploadError{Err: errors.New("dial tcp 127.0.0.1:5000: connection refused")},
			wantCode:    "NET001",
			wantMessage: "The analysis service is unreachable",
		},
		{
			name:        "timeout",
			err:         errors.New("context deadline exceeded"),
			wantCode:    "NET002",
			wantMessage: "The analysis service did not answer in time",
		},
		{
			name:        "run in progress",
			err:         ErrRunInProgress,
			wantCode:    "RUN001",
			wantMessage: "A report is already being generated",
		},
		{
			name:        "too many runs",
			err:         ErrTooManyRuns,
			wantCode:    "RUN002",
			wantMessage: "The system is busy generating other reports",
		},
		{
			name:        "run cancelled during upload",
			err:         fmt.Errorf("%w: %w", ErrRunCancelled, &UploadError{Err: context.Canceled}),
			wantCode:    "RUN004",
			wantMessage: "Report generation was cancelled",
		},
		{
			name:        "decode failure",
			err:         errors.New("decode clv payload: json: cannot unmarshal"),
			wantCode:    "ANL001",
			wantMessage: "An analysis returned data in an unexpected format",
		},
		{
			name:        "analysis failure",
			err:         &AnalysisError{Name: AnalysisChurn, Message: "not enough data"},
			wantCode:    "ANL002",
			wantMessage: "An analysis could not be computed",
		},
		{
			name:        "render unavailable",
			err:         ErrRenderUnavailable,
			wantCode:    "VIEW001",
			wantMessage: "No data available yet",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("UPLOAD FAILED: bad csv"),
			wantCode:    "UPL001",
			wantMessage: "Error processing file.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoFile)

	expected := "No file was selected (Code: UPL002). Please select a CSV file."
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrRunInProgress,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &UploadError{Message: "bad header"}
		userErr := NewUserError(techErr)

		if userErr.Error() != "Error processing file." {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, ErrUploadFailed) {
			t.Error("Unwrap() should reach the upload sentinel")
		}
	})
}
