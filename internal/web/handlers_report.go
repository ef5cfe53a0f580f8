package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/dashboard"
)

// ReportResponse is the JSON form of a report. Payloads are not included;
// they are read through the table and chart routes.
type ReportResponse struct {
	ID          string                 `json:"id"`
	FileName    string                 `json:"fileName"`
	Message     string                 `json:"message"`
	Summary     string                 `json:"summary"`
	Partial     bool                   `json:"partial"`
	Scaled      bool                   `json:"scaledRevenue"`
	Populated   []core.AnalysisName    `json:"populated"`
	Outcomes    []core.AnalysisOutcome `json:"outcomes"`
	Failures    []core.Failure         `json:"failures"`
	Insights    core.Insights          `json:"insights"`
	StartedAt   time.Time              `json:"startedAt"`
	CompletedAt time.Time              `json:"completedAt"`
	Duration    string                 `json:"duration"`
}

func newReportResponse(r *core.Report) *ReportResponse {
	if r == nil {
		return nil
	}
	failures := r.Failures
	if failures == nil {
		failures = []core.Failure{}
	}
	return &ReportResponse{
		ID:          r.ID,
		FileName:    r.FileName,
		Message:     r.Message,
		Summary:     r.Summary(),
		Partial:     r.Partial(),
		Scaled:      r.Options.ScaledRevenue,
		Populated:   r.Populated(),
		Outcomes:    r.Outcomes,
		Failures:    failures,
		Insights:    core.ComputeInsights(r),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Duration:    r.CompletedAt.Sub(r.StartedAt).String(),
	}
}

// SessionReportResponse is the current state of the caller's session.
type SessionReportResponse struct {
	SessionID   string            `json:"sessionId,omitempty"`
	Report      *ReportResponse   `json:"report"`
	RunInFlight string            `json:"runInFlight,omitempty"`
	Progress    *core.RunProgress `json:"progress,omitempty"`
}

// handleReport returns the session's current report, or a null report
// before the first run.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	resp := SessionReportResponse{
		SessionID:   sess.ID,
		Report:      newReportResponse(sess.Report()),
		RunInFlight: sess.RunInFlight(),
	}
	if resp.RunInFlight != "" {
		if p, err := s.service.GetRunProgress(resp.RunInFlight); err == nil {
			resp.Progress = &p
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// AnalysisInfo describes one analysis issued by every run.
type AnalysisInfo struct {
	Name     core.AnalysisName `json:"name"`
	Label    string            `json:"label"`
	Group    string            `json:"group"`
	Endpoint string            `json:"endpoint"`
	Query    string            `json:"query,omitempty"`
}

// handleAnalyses lists the analyses in request order.
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Catalog()
	out := make([]AnalysisInfo, len(defs))
	for i, d := range defs {
		out[i] = AnalysisInfo{
			Name:     d.Spec.Name,
			Label:    d.Label,
			Group:    d.Group,
			Endpoint: d.Spec.Endpoint,
			Query:    d.Spec.Query.Encode(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// SurfaceInfo describes one table or chart on a dashboard tab.
type SurfaceInfo struct {
	Key      string            `json:"key"`
	Title    string            `json:"title"`
	Analysis core.AnalysisName `json:"analysis"`
	Kind     string            `json:"kind"`
	Faceted  bool              `json:"faceted,omitempty"`
}

// TabInfo lists the surfaces of one dashboard tab.
type TabInfo struct {
	Key    dashboard.Tab `json:"key"`
	Label  string        `json:"label"`
	Tables []SurfaceInfo `json:"tables"`
	Charts []SurfaceInfo `json:"charts"`
}

// handleSurfaces lists the dashboard tabs with their tables and charts.
func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	out := make([]TabInfo, 0, len(dashboard.Tabs))
	for _, tab := range dashboard.Tabs {
		info := TabInfo{Key: tab, Label: tab.Label(), Tables: []SurfaceInfo{}, Charts: []SurfaceInfo{}}
		for _, t := range dashboard.TablesIn(tab) {
			info.Tables = append(info.Tables, SurfaceInfo{Key: t.Key, Title: t.Title, Analysis: t.Analysis, Kind: "table"})
		}
		for _, c := range dashboard.ChartsIn(tab) {
			info.Charts = append(info.Charts, SurfaceInfo{Key: c.Key, Title: c.Title, Analysis: c.Analysis, Kind: string(c.Kind), Faceted: c.Faceted})
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHistory returns recent runs, newest first (?limit=, default 20).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, s.cfg.Database.HistoryLimit)
	}

	records, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []core.RunRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HealthResponse reports liveness and run slot usage.
type HealthResponse struct {
	Status   string                `json:"status"`
	Sessions int                   `json:"sessions"`
	Runs     core.RunLimiterStatus `json:"runs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.service.Sessions().Len(),
		Runs:     s.service.LimiterStatus(),
	})
}
