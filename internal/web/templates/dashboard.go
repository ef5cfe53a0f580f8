package templates

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/dashboard"
	"github.com/JonMunkholm/insights/internal/view"
)

// DashboardPage is everything one tab of the dashboard shows.
type DashboardPage struct {
	Tab      dashboard.Tab
	Report   *core.Report
	Insights core.Insights
	Progress *core.RunProgress // non-nil while a run is in flight
	Error    core.UserMessage
	Tables   []dashboard.TableView
	Charts   []dashboard.ChartView
}

// RefreshSeconds is how often the page reloads while a run is in flight.
const RefreshSeconds = 2

// Dashboard renders a full dashboard page.
func Dashboard(p DashboardPage) templ.Component {
	refresh := 0
	if p.Progress != nil {
		refresh = RefreshSeconds
	}
	return Layout("Customer Insights Dashboard", refresh, render(func(h *writer) {
		if p.Error.Message != "" {
			h.component(ErrorAlert(p.Error.Message, p.Error.Action, p.Error.Code))
		}
		h.component(uploadForm(p))
		h.component(runStatus(p))
		h.component(insights(p.Insights))
		h.component(tabNav(p.Tab))
		for _, c := range p.Charts {
			h.component(ChartPanel(p.Tab, c))
		}
		for _, t := range p.Tables {
			h.component(TablePanel(p.Tab, t))
		}
	}))
}

func uploadForm(p DashboardPage) templ.Component {
	return render(func(h *writer) {
		h.raw(`<section class="panel"><form method="post" action="/runs" enctype="multipart/form-data">`)
		h.raw(`<input type="hidden" name="tab" value="`)
		h.text(string(p.Tab))
		h.raw(`"><input type="file" name="file" accept=".csv,text/csv"> `)
		h.raw(`<label><input type="checkbox" name="scaled" value="true"> Revenue per customer</label> `)
		if p.Progress != nil {
			h.raw(`<button type="submit" disabled>Generating report…</button>`)
		} else {
			h.raw(`<button type="submit">Upload and analyze</button>`)
		}
		h.raw(`</form></section>`)
	})
}

func runStatus(p DashboardPage) templ.Component {
	return render(func(h *writer) {
		if pr := p.Progress; pr != nil {
			h.raw(`<div class="alert alert-info">Analyzing `)
			h.text(pr.FileName)
			h.raw(`: `, itoa(pr.Settled), ` of `, itoa(pr.Total), ` analyses settled</div>`)
		}
		r := p.Report
		if r == nil {
			return
		}
		class := "alert-info"
		if r.Partial() {
			class = "alert-warn"
		}
		h.raw(`<div class="alert `, class, `">`)
		if r.Message != "" {
			h.text(r.Message)
			h.raw(`<br>`)
		}
		h.text(r.Summary())
		h.raw(`</div>`)
	})
}

func insights(in core.Insights) templ.Component {
	return render(func(h *writer) {
		h.raw(`<section class="insights">`)
		stat := func(label, value string) {
			h.raw(`<div><strong>`)
			h.text(value)
			h.raw(`</strong>`)
			h.text(label)
			h.raw(`</div>`)
		}
		stat("Total customers", itoa(in.TotalCustomers))
		stat("Top segment", in.TopSegment)
		stat("High CLV customers", itoa(in.HighCLVCount))
		stat("Total revenue", view.Money(in.TotalRevenue))
		stat("High churn risk", itoa(in.HighChurnRisk))
		h.raw(`</section>`)
	})
}

func tabNav(active dashboard.Tab) templ.Component {
	return render(func(h *writer) {
		h.raw(`<nav class="tabs">`)
		for _, t := range dashboard.Tabs {
			class := ""
			if t == active {
				class = ` class="active"`
			}
			h.raw(`<a href="/tabs/`, string(t), `"`, class, `>`)
			h.text(t.Label())
			h.raw(`</a>`)
		}
		h.raw(`</nav>`)
	})
}

// ChartPanel renders a chart as an image served by the PNG export route,
// with year and month selectors for faceted charts.
func ChartPanel(tab dashboard.Tab, c dashboard.ChartView) templ.Component {
	return render(func(h *writer) {
		page := "/tabs/" + string(tab)
		h.raw(`<section class="panel" id="chart-`)
		h.text(c.Surface)
		h.raw(`"><h2>`)
		h.text(c.Title)
		h.raw(`</h2>`)
		if c.Description != "" {
			h.raw(`<p>`)
			h.text(c.Description)
			h.raw(`</p>`)
		}
		if c.Status != dashboard.StatusReady {
			h.raw(`<p class="placeholder">`)
			h.text(c.Placeholder)
			h.raw(`</p></section>`)
			return
		}
		if len(c.Facets.Years) > 1 || len(c.Facets.Months) > 1 {
			h.raw(`<form method="get" action="`, page, `"><input type="hidden" name="chart" value="`)
			h.text(c.Surface)
			h.raw(`">`)
			facetSelect(h, "year", "Year", c.Facets.Years, c.Year)
			facetSelect(h, "month", "Month", c.Facets.Months, c.Month)
			h.raw(` <button type="submit">Apply</button></form>`)
		}
		src := link("/api/charts/"+c.Surface+"/export.png", "year", c.Year, "month", c.Month)
		h.raw(`<img class="chart" alt="`)
		h.text(c.Title)
		h.raw(`" src="`)
		h.text(src)
		h.raw(`"> <p><a href="`)
		h.text(link("/api/charts/"+c.Surface+"/export.png", "year", c.Year, "month", c.Month, "download", "1"))
		h.raw(`">Download PNG</a></p></section>`)
	})
}

func facetSelect(h *writer, name, label string, options []string, selected string) {
	h.raw(`<label>`, label, ` <select name="`, name, `">`)
	for _, o := range options {
		sel := ""
		if o == selected {
			sel = " selected"
		}
		h.raw(`<option`, sel, ` value="`)
		h.text(o)
		h.raw(`">`)
		h.text(o)
		h.raw(`</option>`)
	}
	h.raw(`</select></label> `)
}

// TablePanel renders one page of a table with its search box, sortable
// headers, pager and CSV download link.
func TablePanel(tab dashboard.Tab, t dashboard.TableView) templ.Component {
	return render(func(h *writer) {
		page := "/tabs/" + string(tab)
		h.raw(`<section class="panel" id="table-`)
		h.text(t.Surface)
		h.raw(`"><h2>`)
		h.text(t.Title)
		h.raw(`</h2>`)
		if t.Status != dashboard.StatusReady {
			h.raw(`<p class="placeholder">`)
			h.text(t.Placeholder)
			h.raw(`</p></section>`)
			return
		}

		h.raw(`<form method="get" action="`, page, `"><input type="hidden" name="table" value="`)
		h.text(t.Surface)
		h.raw(`"><input type="search" name="q" placeholder="Search `)
		h.text(strings.Join(t.SearchKeys, ", "))
		h.raw(`" value="`)
		h.text(t.State.Search)
		h.raw(`"> <button type="submit">Search</button> <a href="`)
		h.text("/api/tables/" + t.Surface + "/export.csv")
		h.raw(`">Download CSV</a></form>`)

		h.raw(`<table><thead><tr>`)
		for _, c := range t.Columns {
			h.raw(`<th>`)
			if c.Sortable {
				h.raw(`<a href="`)
				h.text(link(page, "table", t.Surface, "sort", c.Key))
				h.raw(`">`)
				h.text(c.Label)
				h.raw(sortMarker(t.State.Sort, c.Key), `</a>`)
			} else {
				h.text(c.Label)
			}
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		if len(t.Rows) == 0 {
			h.raw(`<tr><td class="placeholder" colspan="`, itoa(len(t.Columns)), `">No matching rows</td></tr>`)
		}
		for _, row := range t.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table>`)

		h.raw(`<div class="pager">`)
		if t.HasPrev {
			h.raw(`<a href="`)
			h.text(link(page, "table", t.Surface, "page", itoa(t.Page-1)))
			h.raw(`">Previous</a>`)
		}
		h.raw(fmt.Sprintf(`<span>Page %d of %d (%d rows)</span>`, t.Page+1, max(t.TotalPages, 1), t.TotalFiltered))
		if t.HasNext {
			h.raw(`<a href="`)
			h.text(link(page, "table", t.Surface, "page", itoa(t.Page+1)))
			h.raw(`">Next</a>`)
		}
		h.raw(`</div></section>`)
	})
}

func sortMarker(s view.SortConfig, key string) string {
	if s.Key != key {
		return ""
	}
	if s.Dir == view.Desc {
		return " ▼"
	}
	return " ▲"
}
