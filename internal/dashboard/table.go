package dashboard

import (
	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/view"
)

// TableSurface is one searchable, sortable, paginated table.
type TableSurface struct {
	Key      string
	Title    string
	Tab      Tab
	Analysis core.AnalysisName
	Filename string // CSV download name

	// Spec returns the table declaration. Column labels may depend on how
	// the report was produced.
	Spec func(r *core.Report) view.TableSpec
	Rows func(r *core.Report) []view.Record
}

// StateKey is the key of this surface's state in a session StateSet.
func (t *TableSurface) StateKey() string { return "table:" + t.Key }

// ColumnHeader is a column as shown to clients.
type ColumnHeader struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
}

// TableView is one rendered page of a table surface.
type TableView struct {
	Surface       string         `json:"surface"`
	Title         string         `json:"title"`
	Status        Status         `json:"status"`
	Placeholder   string         `json:"placeholder,omitempty"`
	SearchKeys    []string       `json:"searchKeys"`
	Columns       []ColumnHeader `json:"columns"`
	Rows          [][]string     `json:"rows"`
	Page          int            `json:"page"`
	PageSize      int            `json:"pageSize"`
	TotalFiltered int            `json:"totalFiltered"`
	TotalPages    int            `json:"totalPages"`
	HasNext       bool           `json:"hasNext"`
	HasPrev       bool           `json:"hasPrev"`
	State         view.State     `json:"state"`
}

func (t *TableSurface) rows(r *core.Report) []view.Record {
	if r == nil {
		return nil
	}
	return t.Rows(r)
}

// View renders the page selected by state.
func (t *TableSurface) View(r *core.Report, state view.State, pageSize int) TableView {
	all := t.rows(r)
	spec := t.Spec(r)
	if pageSize > 0 {
		spec.PageSize = pageSize
	}

	page := view.View(all, spec, state)

	cells := make([][]string, len(page.Rows))
	for i, row := range page.Rows {
		cells[i] = make([]string, len(spec.Columns))
		for j, c := range spec.Columns {
			cells[i][j] = c.Cell(row)
		}
	}

	headers := make([]ColumnHeader, len(spec.Columns))
	for i, c := range spec.Columns {
		headers[i] = ColumnHeader{Key: c.Key, Label: c.Label, Sortable: c.Sortable}
	}

	status := statusOf(r, t.Analysis, len(all))
	return TableView{
		Surface:       t.Key,
		Title:         t.Title,
		Status:        status,
		Placeholder:   status.placeholder(t.Title),
		SearchKeys:    spec.SearchKeys,
		Columns:       headers,
		Rows:          cells,
		Page:          page.Page,
		PageSize:      page.PageSize,
		TotalFiltered: page.TotalFiltered,
		TotalPages:    page.TotalPages,
		HasNext:       page.HasNext,
		HasPrev:       page.HasPrev,
		State:         state,
	}
}

// Filtered returns the rows matching the current search, unpaginated. This
// is what a CSV export contains.
func (t *TableSurface) Filtered(r *core.Report, state view.State) ([]view.Column, []view.Record) {
	spec := t.Spec(r)
	return spec.Columns, view.Filter(t.rows(r), spec.SearchKeys, state.Search)
}

func fixedSpec(spec view.TableSpec) func(*core.Report) view.TableSpec {
	return func(*core.Report) view.TableSpec { return spec }
}
