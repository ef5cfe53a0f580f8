package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/insights/internal/core"
)

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// defaultResultWait is how long GET /api/runs/{id} blocks when no wait
// parameter is given.
const defaultResultWait = 25 * time.Second

// readUpload reads the "file" form field into an UploadSession.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (core.UploadSession, error) {
	maxSize := s.cfg.Run.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return core.UploadSession{}, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return core.UploadSession{}, core.ErrNoFile
		}
		return core.UploadSession{}, fmt.Errorf("parse upload form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.UploadSession{}, core.ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.UploadSession{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return core.UploadSession{}, core.ErrEmptyFile
	}

	return core.UploadSession{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		UploadedAt:  time.Now(),
	}, nil
}

// runOptions reads per-run options from the form, falling back to the
// configured defaults.
func (s *Server) runOptions(r *http.Request) core.RunOptions {
	opts := core.RunOptions{ScaledRevenue: s.cfg.Analysis.ScaledRevenue}
	if v := r.FormValue("scaled"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.ScaledRevenue = b
		}
	}
	return opts
}

// uploadStatus maps a readUpload error to an HTTP status.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrEmptyFile):
		return http.StatusBadRequest
	}
	return http.StatusBadRequest
}

// startStatus maps a StartRun error to an HTTP status.
func startStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// StartRunResponse is returned when a run is accepted.
type StartRunResponse struct {
	RunID     string `json:"runId"`
	SessionID string `json:"sessionId"`
}

// handleStartRun accepts a CSV upload and starts a run in the background.
// Progress is available over SSE and the result via GET /api/runs/{id}.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, uploadStatus(err))
		return
	}

	sess, r := s.startSession(w, r)
	runID, err := s.service.StartRun(r.Context(), sess.ID, file, s.runOptions(r))
	if err != nil {
		s.respondError(w, r, err, startStatus(err))
		return
	}

	w.Header().Set("Location", "/api/runs/"+runID)
	writeJSON(w, http.StatusAccepted, StartRunResponse{RunID: runID, SessionID: sess.ID})
}

// ownedRun returns the run id from the URL when it belongs to the caller's
// session. Runs of other sessions read as not found.
func (s *Server) ownedRun(w http.ResponseWriter, r *http.Request) (string, bool) {
	runID := chi.URLParam(r, "runID")
	owner, err := s.service.RunSessionID(runID)
	if err == nil && owner != sessionFrom(r.Context()).ID {
		err = fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return "", false
	}
	return runID, true
}

// handleRunProgress streams run progress via Server-Sent Events.
// The event id is the number of settled analyses; a reconnecting client
// sending Last-Event-ID (or ?lastEventId=) skips updates it already has.
func (s *Server) handleRunProgress(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.ownedRun(w, r)
	if !ok {
		return
	}

	lastEventIDStr := r.Header.Get("Last-Event-ID")
	if lastEventIDStr == "" {
		lastEventIDStr = r.URL.Query().Get("lastEventId")
	}
	lastEventID, resumed := -1, false
	if n, err := strconv.Atoi(lastEventIDStr); err == nil {
		lastEventID, resumed = n, true
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last core.RunProgress
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed: the run settled
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}
			last = progress

			if resumed && progress.Settled <= lastEventID && !progress.Done() {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Settled, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleRunResult waits for a run to settle and returns its report.
// While the run is still going after the wait (?wait=10s, default 25s) the
// current progress is returned with 202. A run that never started or was
// refused a slot yields 503, a cancelled one 409 and a failed upload 502.
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.ownedRun(w, r)
	if !ok {
		return
	}

	wait := defaultResultWait
	if v := r.URL.Query().Get("wait"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			wait = d
		}
	}
	if limit := s.cfg.Server.RequestTimeout; limit > 0 && wait >= limit {
		wait = limit - time.Second
	}

	ctx, cancel := context.WithTimeout(r.Context(), max(wait, 0))
	defer cancel()

	report, err := s.service.WaitRun(ctx, runID)
	if err != nil && ctx.Err() != nil {
		if progress, perr := s.service.GetRunProgress(runID); perr == nil && !progress.Done() {
			writeJSON(w, http.StatusAccepted, progress)
			return
		}
		// The run settled while the wait expired
		report, err = s.service.WaitRun(context.WithoutCancel(r.Context()), runID)
	}
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, core.ErrRunCancelled):
			status = http.StatusConflict
		case core.IsRunRejected(err):
			status = http.StatusServiceUnavailable
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusOK, newReportResponse(report))
}

// handleCancelRun cancels an in-flight run. Analyses already settled are
// kept in the report.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.ownedRun(w, r)
	if !ok {
		return
	}

	if err := s.service.CancelRun(runID); err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling", "runId": runID})
}
