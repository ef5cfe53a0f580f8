package dashboard

import (
	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/view"
)

// ChartSurface is one chart, optionally filterable by year and month.
type ChartSurface struct {
	Key         string
	Title       string
	Description string
	Tab         Tab
	Analysis    core.AnalysisName
	Kind        view.ChartKind
	Filename    string // PNG download name

	// Faceted charts offer year/month selection derived from their rows.
	// Strategies overrides view.DefaultStrategies for date extraction.
	Faceted    bool
	Strategies []view.DateStrategy

	Rows func(r *core.Report) []view.Record

	// Hint maps rows to points. Build, when set, replaces it for charts that
	// aggregate rows (histograms, counts).
	Hint  view.SeriesHint
	Build func(rows []view.Record) view.Series
}

// StateKey is the key of this surface's state in a session StateSet.
func (c *ChartSurface) StateKey() string { return "chart:" + c.Key }

// ChartView is a chart surface ready to draw.
type ChartView struct {
	Surface     string          `json:"surface"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Kind        view.ChartKind  `json:"kind"`
	Status      Status          `json:"status"`
	Placeholder string          `json:"placeholder,omitempty"`
	Facets      view.TimeFacets `json:"facets"`
	Year        string          `json:"year"`
	Month       string          `json:"month"`
	Series      view.Series     `json:"series"`
}

// View derives facets and the series for the selection in state. Facets are
// memoized per surface and report, so a new report always recomputes them.
func (c *ChartSurface) View(r *core.Report, state view.State, memo *view.FacetMemo) ChartView {
	var rows []view.Record
	if r != nil {
		rows = c.Rows(r)
	}

	year, month := state.Year, state.Month
	if year == "" {
		year = view.All
	}
	if month == "" {
		month = view.All
	}

	facets := view.TimeFacets{Years: []string{view.All}, Months: []string{view.All}}
	filtered := rows
	if c.Faceted && r != nil {
		derive := func() view.TimeFacets { return view.DeriveTimeFacets(rows, c.Strategies) }
		if memo != nil {
			facets = memo.Get(c.StateKey(), r.ID, derive)
		} else {
			facets = derive()
		}
		filtered = view.FilterByFacet(rows, year, month, c.Strategies)
	}

	var series view.Series
	if c.Build != nil {
		series = c.Build(filtered)
	} else {
		series = view.ToSeries(filtered, c.Hint)
	}
	if series.Name == "" {
		series.Name = c.Title
	}

	status := statusOf(r, c.Analysis, len(rows))
	return ChartView{
		Surface:     c.Key,
		Title:       c.Title,
		Description: c.Description,
		Kind:        c.Kind,
		Status:      status,
		Placeholder: status.placeholder(c.Title),
		Facets:      facets,
		Year:        year,
		Month:       month,
		Series:      series,
	}
}
