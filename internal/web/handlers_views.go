package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/dashboard"
	"github.com/JonMunkholm/insights/internal/export"
	"github.com/JonMunkholm/insights/internal/view"
)

var errUnknownSurface = errors.New("unknown surface")

// applyTableQuery updates a table state from query parameters:
// q sets the search (returning to the first page when it changes), sort
// toggles the sort column unless dir gives an explicit direction, and page
// selects a page.
func applyTableQuery(st *view.State, q url.Values) {
	if q.Has("q") {
		st.SetSearch(q.Get("q"))
	}
	if key := q.Get("sort"); key != "" {
		if dir := q.Get("dir"); dir != "" {
			st.SetSort(key, view.SortDir(dir))
		} else {
			st.ToggleSort(key)
		}
	}
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			st.SetPage(p)
		}
	}
}

// applyChartQuery updates a chart state from the year and month query
// parameters. A missing parameter keeps the current selection.
func applyChartQuery(st *view.State, q url.Values) {
	if !q.Has("year") && !q.Has("month") {
		return
	}
	year, month := st.Year, st.Month
	if q.Has("year") {
		year = q.Get("year")
	}
	if q.Has("month") {
		month = q.Get("month")
	}
	st.SetFacet(year, month)
}

func (s *Server) tableSurface(w http.ResponseWriter, r *http.Request) (*dashboard.TableSurface, bool) {
	key := chi.URLParam(r, "surface")
	t, ok := dashboard.Table(key)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: table %q", errUnknownSurface, key), http.StatusNotFound)
	}
	return t, ok
}

func (s *Server) chartSurface(w http.ResponseWriter, r *http.Request) (*dashboard.ChartSurface, bool) {
	key := chi.URLParam(r, "surface")
	c, ok := dashboard.Chart(key)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: chart %q", errUnknownSurface, key), http.StatusNotFound)
	}
	return c, ok
}

// handleTable applies the query to the table's state and returns the
// selected page.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tableSurface(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())

	var tv dashboard.TableView
	sess.Snapshot(func(report *core.Report, views *view.StateSet) {
		state := views.Update(t.StateKey(), func(st *view.State) {
			applyTableQuery(st, r.URL.Query())
		})
		tv = t.View(report, state, s.cfg.View.PageSize)
	})

	writeJSON(w, http.StatusOK, tv)
}

// handleTableExport downloads every row matching the table's current
// search as CSV.
func (s *Server) handleTableExport(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tableSurface(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())

	var (
		columns []view.Column
		rows    []view.Record
		ready   bool
	)
	sess.Snapshot(func(report *core.Report, views *view.StateSet) {
		if report == nil || !report.Succeeded(t.Analysis) {
			return
		}
		ready = true
		columns, rows = t.Filtered(report, views.Get(t.StateKey()))
	})
	if !ready {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrRenderUnavailable, t.Key), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, columns, rows); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(t.Filename, ".csv")))
	_, _ = w.Write(buf.Bytes())
}

// handleChart applies the year/month selection and returns the chart's
// facets and series.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chartSurface(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())

	writeJSON(w, http.StatusOK, s.chartView(sess, c, r))
}

// handleChartExport renders the chart's current selection as PNG. It
// answers 204 when the chart has nothing to draw. ?download=1 serves it as
// an attachment.
func (s *Server) handleChartExport(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chartSurface(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())

	cv := s.chartView(sess, c, r)
	if cv.Status != dashboard.StatusReady {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	err := export.WritePNG(&buf, cv.Kind, cv.Series, export.ImageOptions{
		Title:  cv.Title,
		Width:  s.cfg.View.ChartWidth,
		Height: s.cfg.View.ChartHeight,
	})
	if errors.Is(err, export.ErrSurfaceDetached) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(c.Filename, ".png")))
	}
	_, _ = w.Write(buf.Bytes())
}

// chartView applies the request's facet selection and returns the chart
// for the session's current report.
func (s *Server) chartView(sess *core.Session, c *dashboard.ChartSurface, r *http.Request) dashboard.ChartView {
	var cv dashboard.ChartView
	sess.Snapshot(func(report *core.Report, views *view.StateSet) {
		state := views.Update(c.StateKey(), func(st *view.State) {
			applyChartQuery(st, r.URL.Query())
		})
		cv = c.View(report, state, sess.Facets())
	})
	return cv
}
