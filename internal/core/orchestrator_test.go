package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllSucceed(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{bodies: testBodies}

	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "sales.csv", report.FileName)
	assert.Equal(t, "File uploaded successfully", report.Message)
	assert.Equal(t, []AnalysisName{AnalysisRFM, AnalysisChurn, AnalysisCLV}, report.Populated())
	assert.Empty(t, report.Failures)
	assert.False(t, report.Partial())
	assert.Equal(t, "All 3 analyses succeeded", report.Summary())
	assert.EqualValues(t, 1, backend.uploads.Load())
	assert.EqualValues(t, 3, backend.analyses.Load())
}

func TestRun_KOfNFailures(t *testing.T) {
	defs := testDefs(t)
	names := []AnalysisName{AnalysisRFM, AnalysisChurn, AnalysisCLV}

	for k := 0; k <= len(names); k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			errs := map[AnalysisName]error{}
			for _, n := range names[:k] {
				errs[n] = &AnalysisError{Name: n, Message: "service error"}
			}
			backend := &fakeBackend{bodies: testBodies, errs: errs}

			report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})
			require.NoError(t, err)

			assert.Len(t, report.Populated(), len(names)-k)
			assert.Len(t, report.Failures, k)
			assert.Len(t, report.Outcomes, len(names))
			for _, n := range names[:k] {
				assert.True(t, report.Failed(n), n)
				assert.False(t, report.Succeeded(n), n)
			}
		})
	}
}

func TestRun_UploadFailureIssuesNoAnalyses(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{
		bodies:    testBodies,
		uploadErr: &UploadError{Message: "Invalid file type"},
	}
	var phases []RunPhase

	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{
		File:     testFile(),
		Progress: func(p RunProgress) { phases = append(phases, p.Phase) },
	})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, ErrUploadFailed))
	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Invalid file type", ue.Message)

	assert.EqualValues(t, 1, backend.uploads.Load())
	assert.EqualValues(t, 0, backend.analyses.Load(), "no analysis may be issued after a failed upload")
	assert.Equal(t, []RunPhase{PhaseUploading, PhaseFailed}, phases)
}

func TestRun_UploadTransportErrorIsWrapped(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{uploadErr: errors.New("dial tcp: connection refused")}

	_, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, "NET001", MapError(err).Code)
	assert.EqualValues(t, 0, backend.analyses.Load())
}

func TestRun_ChurnRejected(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{
		bodies: testBodies,
		errs:   map[AnalysisName]error{AnalysisChurn: &AnalysisError{Name: AnalysisChurn, Message: "Not enough data"}},
	}

	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})
	require.NoError(t, err)

	assert.Len(t, report.CLV().Rows, 2)
	assert.Len(t, report.RFM().Segments, 2)

	churn := report.Churn()
	assert.NotNil(t, churn.Predictions, "placeholder is an empty list, not nil")
	assert.Empty(t, churn.Predictions)

	assert.Equal(t, []Failure{{Name: AnalysisChurn, Message: "Not enough data"}}, report.Failures)
	assert.Equal(t, "Partially succeeded (2 of 3). Failed to fetch data from: churn", report.Summary())
}

func TestRun_DecodeFailureIsAnalysisFailure(t *testing.T) {
	defs := testDefs(t)
	bodies := map[AnalysisName]string{
		AnalysisRFM:   testBodies[AnalysisRFM],
		AnalysisChurn: testBodies[AnalysisChurn],
		AnalysisCLV:   `{"clv": {"oops": true}}`,
	}
	backend := &fakeBackend{bodies: bodies}

	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, AnalysisCLV, report.Failures[0].Name)
	assert.Contains(t, report.Failures[0].Message, "decode clv payload")
	assert.Empty(t, report.CLV().Rows)
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{bodies: testBodies, panics: map[AnalysisName]bool{AnalysisRFM: true}}

	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})
	require.NoError(t, err)

	require.True(t, report.Failed(AnalysisRFM))
	assert.Contains(t, report.Failures[0].Message, "panic")
	assert.True(t, report.Succeeded(AnalysisChurn))
	assert.True(t, report.Succeeded(AnalysisCLV))
}

func TestRun_ScaledRevenueQuery(t *testing.T) {
	defs := []AnalysisDefinition{geographyDef(), clvDef()}

	tests := []struct {
		name   string
		scaled bool
		want   string
	}{
		{"raw revenue", false, ""},
		{"revenue per customer", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{bodies: testBodies}
			_, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{
				File:    testFile(),
				Options: RunOptions{ScaledRevenue: tt.scaled},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.want, backend.query(AnalysisGeography).Get("scaled"))
			assert.Empty(t, backend.query(AnalysisCLV).Get("scaled"))
		})
	}

	assert.Empty(t, defs[0].Spec.Query, "registered spec is not mutated")
}

func TestRun_IssuesAllAtOnce(t *testing.T) {
	defs := testDefs(t)
	block := make(chan struct{})
	backend := &fakeBackend{bodies: testBodies, block: block}

	done := make(chan *Report)
	go func() {
		r, _ := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})
		done <- r
	}()

	require.Eventually(t, func() bool { return backend.inFlight.Load() == 3 }, time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("run completed before all analyses settled")
	default:
	}

	close(block)
	report := <-done
	assert.Len(t, report.Populated(), 3)
}

func TestRun_MaxParallel(t *testing.T) {
	defs := []AnalysisDefinition{rfmDef(), churnDef(), clvDef(), geographyDef(), monthlyDef()}
	backend := &fakeBackend{bodies: testBodies, delay: 20 * time.Millisecond}

	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{MaxParallel: 2}).Run(context.Background(), RunRequest{File: testFile()})
	require.NoError(t, err)

	assert.LessOrEqual(t, backend.peak.Load(), int32(2))
	assert.EqualValues(t, 5, backend.analyses.Load())
	assert.Len(t, report.Outcomes, 5)
}

func TestRun_CallTimeout(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{bodies: testBodies, block: make(chan struct{})}

	start := time.Now()
	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{CallTimeout: 30 * time.Millisecond}).
		Run(context.Background(), RunRequest{File: testFile()})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, report.Failures, 3)
	for _, f := range report.Failures {
		assert.Contains(t, f.Message, "deadline exceeded")
	}
}

func TestRun_Progress(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{bodies: testBodies, errs: map[AnalysisName]error{AnalysisCLV: errors.New("status 500")}}

	var mu sync.Mutex
	var updates []RunProgress
	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{
		ID:   "run-1",
		File: testFile(),
		Progress: func(p RunProgress) {
			mu.Lock()
			updates = append(updates, p)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.ID)

	require.NotEmpty(t, updates)
	assert.Equal(t, PhaseUploading, updates[0].Phase)
	last := updates[len(updates)-1]
	assert.Equal(t, PhaseComplete, last.Phase)
	assert.True(t, last.Done())
	assert.Equal(t, 3, last.Total)
	assert.Equal(t, 3, last.Settled)
	assert.Equal(t, 1, last.Failed)
	assert.Equal(t, report.Summary(), last.Message)

	for i := 1; i < len(updates); i++ {
		assert.GreaterOrEqual(t, updates[i].Settled, updates[i-1].Settled)
	}
}

func TestRun_OutcomesKeepRequestOrder(t *testing.T) {
	defs := testDefs(t)
	backend := &fakeBackend{bodies: testBodies}

	report, err := NewOrchestrator(backend, defs, OrchestratorConfig{}).Run(context.Background(), RunRequest{File: testFile()})
	require.NoError(t, err)

	for i, def := range defs {
		assert.Equal(t, def.Spec.Name, report.Outcomes[i].Name)
		assert.Equal(t, StatusSuccess, report.Outcomes[i].Status)
	}
}
