// Package core contains the report orchestration logic.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"context"
	"net/url"
	"time"
)

// AnalysisName is the stable key of one analysis.
type AnalysisName string

// AnalysisRequestSpec identifies one remote analysis call.
// Specs are registered at init time and never mutated afterwards.
type AnalysisRequestSpec struct {
	Name     AnalysisName // Unique key: "churn"
	Endpoint string       // Remote endpoint: "churn_prediction"
	Query    url.Values   // Optional query parameters
}

// WithQuery returns a copy of the spec with key=value added to its query.
func (s AnalysisRequestSpec) WithQuery(key, value string) AnalysisRequestSpec {
	q := url.Values{}
	for k, v := range s.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(key, value)
	s.Query = q
	return s
}

// UploadSession is the file handed to one orchestration run.
// It is owned by the run and dropped when the run settles.
type UploadSession struct {
	FileName    string
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}

// Backend is the remote analysis service boundary.
//
// Upload returns the service's confirmation message. Analyze returns the raw
// JSON body produced for spec. Both receive the same UploadSession.
type Backend interface {
	Upload(ctx context.Context, file UploadSession) (string, error)
	Analyze(ctx context.Context, spec AnalysisRequestSpec, file UploadSession) ([]byte, error)
}

// OutcomeStatus reports whether an analysis call produced a payload.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailed  OutcomeStatus = "failed"
)

// AnalysisOutcome is the settled result of one analysis call in a run.
type AnalysisOutcome struct {
	Name     AnalysisName  `json:"name"`
	Status   OutcomeStatus `json:"status"`
	Payload  Payload       `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// Failure names an analysis that did not produce a payload.
type Failure struct {
	Name    AnalysisName `json:"name"`
	Message string       `json:"message"`
}

// RunOptions tweak the request set of a single run.
type RunOptions struct {
	// ScaledRevenue requests revenue per customer from the geography analysis.
	ScaledRevenue bool
}

// RunPhase represents the current stage of a run.
type RunPhase string

const (
	PhaseQueued    RunPhase = "queued"
	PhaseUploading RunPhase = "uploading"
	PhaseAnalyzing RunPhase = "analyzing"
	PhaseComplete  RunPhase = "complete"
	PhaseFailed    RunPhase = "failed"
)

// RunProgress is broadcast to subscribers while a run is in flight.
// It never carries payloads, only counters.
type RunProgress struct {
	RunID    string   `json:"runId"`
	FileName string   `json:"fileName"`
	Phase    RunPhase `json:"phase"`
	Total    int      `json:"total"`
	Settled  int      `json:"settled"`
	Failed   int      `json:"failed"`
	Message  string   `json:"message,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Done reports whether the run has settled.
func (p RunProgress) Done() bool {
	return p.Phase == PhaseComplete || p.Phase == PhaseFailed
}
