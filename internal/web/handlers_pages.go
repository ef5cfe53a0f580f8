package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/dashboard"
	"github.com/JonMunkholm/insights/internal/view"
	"github.com/JonMunkholm/insights/internal/web/templates"
)

// handleDashboard renders the first tab.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, dashboard.Tabs[0], http.StatusOK, nil)
}

// handleTab renders one dashboard tab. ?table=key or ?chart=key applies the
// remaining parameters to that surface before rendering, the same way the
// JSON view routes do.
func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	tab, ok := dashboard.ParseTab(chi.URLParam(r, "tab"))
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: tab %q", errUnknownSurface, chi.URLParam(r, "tab")), http.StatusNotFound)
		return
	}
	sess := sessionFrom(r.Context())
	q := r.URL.Query()

	sess.Snapshot(func(_ *core.Report, views *view.StateSet) {
		if t, ok := dashboard.Table(q.Get("table")); ok {
			views.Update(t.StateKey(), func(st *view.State) { applyTableQuery(st, q) })
		}
		if c, ok := dashboard.Chart(q.Get("chart")); ok {
			views.Update(c.StateKey(), func(st *view.State) { applyChartQuery(st, q) })
		}
	})

	s.renderDashboard(w, r, tab, http.StatusOK, nil)
}

// handleRunForm starts a run from the upload form and redirects back to
// the tab it was submitted from.
func (s *Server) handleRunForm(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(w, r)
	tab, ok := dashboard.ParseTab(r.FormValue("tab"))
	if !ok {
		tab = dashboard.Tabs[0]
	}
	if err != nil {
		s.renderDashboard(w, r, tab, uploadStatus(err), err)
		return
	}

	sess, r := s.startSession(w, r)
	if _, err := s.service.StartRun(r.Context(), sess.ID, file, s.runOptions(r)); err != nil {
		s.renderDashboard(w, r, tab, startStatus(err), err)
		return
	}

	http.Redirect(w, r, "/tabs/"+string(tab), http.StatusSeeOther)
}

// renderDashboard renders tab for the caller's session. A non-nil pageErr
// is logged and shown above the upload form.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, tab dashboard.Tab, status int, pageErr error) {
	sess := sessionFrom(r.Context())

	page := templates.DashboardPage{Tab: tab}
	sess.Snapshot(func(report *core.Report, views *view.StateSet) {
		page.Report = report
		page.Insights = core.ComputeInsights(report)
		for _, c := range dashboard.ChartsIn(tab) {
			page.Charts = append(page.Charts, c.View(report, views.Get(c.StateKey()), sess.Facets()))
		}
		for _, t := range dashboard.TablesIn(tab) {
			page.Tables = append(page.Tables, t.View(report, views.Get(t.StateKey()), s.cfg.View.PageSize))
		}
	})
	if pageErr != nil {
		page.Error = core.MapError(pageErr)
		s.logPageError(r, pageErr, status)
	}
	if runID := sess.RunInFlight(); runID != "" {
		if p, err := s.service.GetRunProgress(runID); err == nil {
			page.Progress = &p
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Dashboard(page).Render(r.Context(), w); err != nil {
		s.logPageError(r, err, http.StatusInternalServerError)
	}
}
