package core

// orchestrator.go implements the upload-and-fan-out run.
//
// A run uploads the file once, then issues every analysis request at the same
// time and waits until all of them have settled. Analyses never cancel each
// other: each goroutine writes only its own outcome slot and always returns a
// nil error to the group, so one failure cannot stop the rest. Only a failed
// upload aborts the run, and then no analysis is requested at all.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/insights/internal/logging"
)

// DefaultCallTimeout bounds a single upload or analysis call.
const DefaultCallTimeout = 5 * time.Minute

// OrchestratorConfig tunes a run.
type OrchestratorConfig struct {
	CallTimeout time.Duration // Upper bound per remote call (default: 5m)
	MaxParallel int           // In-flight analysis calls, 0 means all at once
}

// Orchestrator fans one uploaded file out to a fixed set of analyses.
type Orchestrator struct {
	backend     Backend
	defs        []AnalysisDefinition
	callTimeout time.Duration
	maxParallel int
}

// NewOrchestrator creates an orchestrator for defs. Pass All() to run every
// registered analysis.
func NewOrchestrator(backend Backend, defs []AnalysisDefinition, cfg OrchestratorConfig) *Orchestrator {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MaxParallel < 0 {
		cfg.MaxParallel = 0
	}
	return &Orchestrator{
		backend:     backend,
		defs:        append([]AnalysisDefinition(nil), defs...),
		callTimeout: cfg.CallTimeout,
		maxParallel: cfg.MaxParallel,
	}
}

// Analyses returns the number of analyses issued per run.
func (o *Orchestrator) Analyses() int {
	return len(o.defs)
}

// Definitions returns the analyses issued per run, in request order.
func (o *Orchestrator) Definitions() []AnalysisDefinition {
	return append([]AnalysisDefinition(nil), o.defs...)
}

// RunRequest describes one run.
type RunRequest struct {
	ID       string // Run id; generated when empty
	File     UploadSession
	Options  RunOptions
	Progress func(RunProgress) // Optional; calls are serialized
}

// Run uploads the file and fans out every analysis. It returns an
// *UploadError (matching ErrUploadFailed) when the upload fails; otherwise it
// always returns a report, with failed analyses listed in Report.Failures.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*Report, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	started := time.Now()
	ctx = logging.ContextWith(ctx, "run_id", req.ID)
	logger := logging.FromContext(ctx)

	tracker := &progressTracker{
		fn: req.Progress,
		state: RunProgress{
			RunID:    req.ID,
			FileName: req.File.FileName,
			Total:    len(o.defs),
		},
	}

	logger.Info("run started", "file", req.File.FileName, "bytes", len(req.File.Data), "analyses", len(o.defs))
	tracker.phase(PhaseUploading, "")

	message, err := o.upload(ctx, req.File)
	if err != nil {
		logger.Warn("upload failed, no analyses issued", "error", err)
		tracker.fail(err)
		return nil, err
	}

	tracker.phase(PhaseAnalyzing, message)

	outcomes := make([]AnalysisOutcome, len(o.defs))
	var g errgroup.Group
	if o.maxParallel > 0 {
		g.SetLimit(o.maxParallel)
	}
	for i, def := range o.defs {
		spec := specFor(def.Spec, req.Options)
		g.Go(func() error {
			outcomes[i] = o.analyze(ctx, def, spec, req.File)
			tracker.settle(outcomes[i].Status == StatusFailed)
			return nil
		})
	}
	_ = g.Wait()

	report := newReport(req.ID, req.File.FileName, message, started, outcomes)
	report.Options = req.Options
	for _, f := range report.Failures {
		logger.Warn("analysis failed", "analysis", f.Name, "error", f.Message)
	}
	logger.Info("run completed",
		"succeeded", len(report.Populated()),
		"failed", len(report.Failures),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	tracker.phase(PhaseComplete, report.Summary())

	return report, nil
}

// upload performs the single upload call and normalizes its error.
func (o *Orchestrator) upload(ctx context.Context, file UploadSession) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	message, err := o.backend.Upload(callCtx, file)
	if err != nil {
		var ue *UploadError
		if errors.As(err, &ue) {
			return "", ue
		}
		return "", &UploadError{Err: err}
	}
	return message, nil
}

// analyze performs one analysis call. It never panics and never returns an
// error: every failure becomes a Failed outcome.
func (o *Orchestrator) analyze(ctx context.Context, def AnalysisDefinition, spec AnalysisRequestSpec, file UploadSession) (out AnalysisOutcome) {
	start := time.Now()
	out = AnalysisOutcome{Name: spec.Name}

	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Payload = nil
			out.Error = fmt.Sprintf("panic: %v", r)
		}
		out.Duration = time.Since(start)
	}()

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	body, err := o.backend.Analyze(callCtx, spec, file)
	if err != nil {
		out.Status = StatusFailed
		out.Error = failureMessage(err)
		return out
	}

	payload, err := def.Decode(body)
	if err != nil {
		out.Status = StatusFailed
		out.Error = err.Error()
		return out
	}

	out.Status = StatusSuccess
	out.Payload = payload
	return out
}

// specFor applies run options to a registered spec.
func specFor(spec AnalysisRequestSpec, opts RunOptions) AnalysisRequestSpec {
	if spec.Name == AnalysisGeography && opts.ScaledRevenue {
		return spec.WithQuery("scaled", "true")
	}
	return spec
}

// failureMessage prefers the service's own message over the wrapped error text.
func failureMessage(err error) string {
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

// progressTracker serializes progress callbacks from analysis goroutines.
type progressTracker struct {
	mu    sync.Mutex
	fn    func(RunProgress)
	state RunProgress
}

func (t *progressTracker) phase(p RunPhase, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = p
	t.state.Message = message
	t.emit()
}

func (t *progressTracker) settle(failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Settled++
	if failed {
		t.state.Failed++
	}
	t.emit()
}

func (t *progressTracker) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Phase = PhaseFailed
	t.state.Error = err.Error()
	t.emit()
}

func (t *progressTracker) emit() {
	if t.fn != nil {
		t.fn(t.state)
	}
}
