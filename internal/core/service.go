package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/insights/internal/logging"
)

// RunTimeout is the default upper bound for a whole run.
var RunTimeout = 10 * time.Minute

// RunRetention is how long a finished run stays queryable by id.
var RunRetention = 5 * time.Minute

// historyTimeout bounds a single history write.
const historyTimeout = 5 * time.Second

// ServiceConfig configures a Service. Zero values use the defaults.
type ServiceConfig struct {
	Orchestrator      OrchestratorConfig
	MaxConcurrentRuns int
	MaxWait           time.Duration
	RunTimeout        time.Duration
	SessionTTL        time.Duration
}

// Service runs orchestrations on behalf of sessions.
//
// A run is started with StartRun and proceeds in the background. Its
// progress can be followed with SubscribeProgress and its result collected
// with WaitRun. When a run produces a report, the report replaces the
// session's current one and every view surface of the session is reset.
type Service struct {
	orch       *Orchestrator
	limiter    *RunLimiter
	sessions   *SessionStore
	history    RunHistory
	runTimeout time.Duration

	mu   sync.RWMutex
	runs map[string]*activeRun
	wg   sync.WaitGroup
}

type activeRun struct {
	ID        string
	SessionID string
	FileName  string
	Cancel    context.CancelFunc
	Done      chan struct{}

	// Set before Done is closed.
	Report *Report
	Err    error

	ListenerMu sync.Mutex
	Progress   RunProgress
	Listeners  []chan RunProgress
	closed     bool
}

// NewService creates a Service. history may be nil, in which case runs are
// kept in a MemoryRunHistory.
func NewService(backend Backend, defs []AnalysisDefinition, history RunHistory, cfg ServiceConfig) *Service {
	if history == nil {
		history = NewMemoryRunHistory(0)
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = RunTimeout
	}
	return &Service{
		orch:       NewOrchestrator(backend, defs, cfg.Orchestrator),
		limiter:    NewRunLimiter(cfg.MaxConcurrentRuns, cfg.MaxWait),
		sessions:   NewSessionStore(cfg.SessionTTL),
		history:    history,
		runTimeout: cfg.RunTimeout,
		runs:       make(map[string]*activeRun),
	}
}

// Sessions returns the session store.
func (s *Service) Sessions() *SessionStore { return s.sessions }

// Catalog returns the analyses issued by every run, in request order.
func (s *Service) Catalog() []AnalysisDefinition { return s.orch.Definitions() }

// LimiterStatus reports global run slot usage.
func (s *Service) LimiterStatus() RunLimiterStatus { return s.limiter.Status() }

// History returns up to limit recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]RunRecord, error) {
	return s.history.Recent(ctx, limit)
}

// StartRun begins an asynchronous run for a session and returns its id.
// It fails with ErrRunInProgress while the session already has a run in
// flight. The run outlives ctx but keeps its values.
func (s *Service) StartRun(ctx context.Context, sessionID string, file UploadSession, opts RunOptions) (string, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	runID := uuid.New().String()
	if err := sess.gate.Enter(runID); err != nil {
		return "", err
	}

	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now()
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout)
	runCtx = logging.ContextWith(runCtx, "session_id", sess.ID)

	run := &activeRun{
		ID:        runID,
		SessionID: sess.ID,
		FileName:  file.FileName,
		Cancel:    cancel,
		Done:      make(chan struct{}),
		Progress: RunProgress{
			RunID:    runID,
			FileName: file.FileName,
			Phase:    PhaseQueued,
			Total:    s.orch.Analyses(),
		},
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	s.wg.Add(1)
	go s.processRun(runCtx, run, sess, file, opts)

	return runID, nil
}

// RunSync starts a run and waits for it to settle.
func (s *Service) RunSync(ctx context.Context, sessionID string, file UploadSession, opts RunOptions) (*Report, error) {
	runID, err := s.StartRun(ctx, sessionID, file, opts)
	if err != nil {
		return nil, err
	}
	return s.WaitRun(ctx, runID)
}

func (s *Service) processRun(ctx context.Context, run *activeRun, sess *Session, file UploadSession, opts RunOptions) {
	defer s.wg.Done()
	defer run.Cancel()

	logger := logging.FromContext(ctx)
	var final RunProgress

	defer func() {
		sess.gate.Leave(run.ID)
		run.setProgress(final)
		close(run.Done)
		run.closeListeners()
		s.cleanup(run.ID, RunRetention)
	}()

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("run rejected", "run_id", run.ID, "error", err)
		run.Err = err
		final = run.snapshot()
		final.Phase = PhaseFailed
		final.Error = err.Error()
		s.record(ctx, RunRecord{
			ID:          run.ID,
			SessionID:   sess.ID,
			FileName:    file.FileName,
			Status:      RunAborted,
			Total:       s.orch.Analyses(),
			Message:     err.Error(),
			StartedAt:   file.UploadedAt,
			CompletedAt: time.Now(),
		})
		return
	}
	defer s.limiter.Release()

	report, err := s.orch.Run(ctx, RunRequest{
		ID:      run.ID,
		File:    file,
		Options: opts,
		Progress: func(p RunProgress) {
			// The terminal update is held back until the report is published.
			if p.Done() {
				final = p
				return
			}
			run.setProgress(p)
		},
	})
	if err != nil {
		status := RunUploadFailed
		if errors.Is(ctx.Err(), context.Canceled) {
			err = fmt.Errorf("%w: %w", ErrRunCancelled, err)
			status = RunAborted
		}
		run.Err = err
		s.record(ctx, RunRecord{
			ID:          run.ID,
			SessionID:   sess.ID,
			FileName:    file.FileName,
			Status:      status,
			Total:       s.orch.Analyses(),
			Message:     err.Error(),
			StartedAt:   file.UploadedAt,
			CompletedAt: time.Now(),
		})
		return
	}

	run.Report = report
	rec := recordFromReport(sess.ID, report)

	// A cancelled run keeps the session's previous report. Timeouts still
	// publish whatever settled.
	if errors.Is(ctx.Err(), context.Canceled) {
		run.Err = fmt.Errorf("%w: %w", ErrRunCancelled, ctx.Err())
		final.Phase = PhaseFailed
		final.Error = run.Err.Error()
		rec.Status = RunAborted
		rec.Message = run.Err.Error()
		logger.Info("run cancelled, previous report kept", "run_id", run.ID)
		s.record(ctx, rec)
		return
	}

	sess.publish(report)
	s.record(ctx, rec)
}

// record writes a history entry. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, rec RunRecord) {
	client := ClientFromContext(ctx)
	rec.IPAddress, rec.UserAgent = client.IPAddress, client.UserAgent

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := s.history.Record(hctx, rec); err != nil {
		slog.Error("record run history", "run_id", rec.ID, "error", err)
	}
}

// SubscribeProgress returns a channel that receives progress updates.
// The current progress is sent immediately and the channel is closed when
// the run settles.
func (s *Service) SubscribeProgress(runID string) (<-chan RunProgress, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan RunProgress, 10)

	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()

	ch <- run.Progress
	if run.closed {
		close(ch)
		return ch, nil
	}
	run.Listeners = append(run.Listeners, ch)
	return ch, nil
}

// GetRunProgress returns the current progress without blocking.
func (s *Service) GetRunProgress(runID string) (RunProgress, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return RunProgress{}, err
	}
	return run.snapshot(), nil
}

// RunSessionID returns the id of the session that started the run.
func (s *Service) RunSessionID(runID string) (string, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return "", err
	}
	return run.SessionID, nil
}

// WaitRun blocks until the run settles or ctx is done. It returns the
// run's report, or the error that stopped the run.
func (s *Service) WaitRun(ctx context.Context, runID string) (*Report, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-run.Done:
		return run.Report, run.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CancelRun cancels an in-flight run. Its report is not published: WaitRun
// returns it together with ErrRunCancelled and the session keeps its
// previous report.
func (s *Service) CancelRun(runID string) error {
	run, err := s.getRun(runID)
	if err != nil {
		return err
	}
	run.Cancel()
	return nil
}

// WaitForRuns blocks until every started run has settled or ctx is done.
// Used for graceful shutdown.
func (s *Service) WaitForRuns(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for runs: %w", ctx.Err())
	}
}

func (s *Service) getRun(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// cleanup removes the run from tracking after a delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

func (run *activeRun) snapshot() RunProgress {
	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()
	return run.Progress
}

// setProgress stores p and sends it to all listeners.
func (run *activeRun) setProgress(p RunProgress) {
	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()

	run.Progress = p
	for _, ch := range run.Listeners {
		select {
		case ch <- p:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (run *activeRun) closeListeners() {
	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()

	for _, ch := range run.Listeners {
		close(ch)
	}
	run.Listeners = nil
	run.closed = true
}

// IsRunRejected reports whether err means the run was never started or was
// refused a slot, as opposed to failing during its upload.
func IsRunRejected(err error) bool {
	return errors.Is(err, ErrRunInProgress) || errors.Is(err, ErrTooManyRuns) || errors.Is(err, ErrSessionNotFound)
}
