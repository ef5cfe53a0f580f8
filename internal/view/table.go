package view

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the number of rows per page when a TableSpec leaves
// PageSize unset.
const DefaultPageSize = 10

// Column describes one table column. Render is optional; without it the
// cell is Format(row.Field(Key)).
type Column struct {
	Key      string
	Label    string
	Sortable bool
	Render   func(Record) string
}

// Cell returns the display text of the column for row r.
func (c Column) Cell(r Record) string {
	if c.Render != nil {
		return c.Render(r)
	}
	return Format(r.Field(c.Key))
}

// TableSpec declares a table: its columns, searchable keys and page size.
type TableSpec struct {
	Columns    []Column
	SearchKeys []string
	PageSize   int
}

func (t TableSpec) pageSize() int {
	if t.PageSize <= 0 {
		return DefaultPageSize
	}
	return t.PageSize
}

func (t TableSpec) sortable(key string) bool {
	for _, c := range t.Columns {
		if c.Key == key {
			return c.Sortable
		}
	}
	return false
}

// Page is one page of a table view.
type Page[R Record] struct {
	Rows          []R
	Page          int
	PageSize      int
	TotalFiltered int
	TotalPages    int
	HasNext       bool
	HasPrev       bool
}

// View filters, sorts and paginates rows for state. rows is never
// modified. A sort key that is not a sortable column keeps the filtered
// order. A page past the end yields no rows and HasNext false.
func View[R Record](rows []R, spec TableSpec, state State) Page[R] {
	filtered := Filter(rows, spec.SearchKeys, state.Search)

	sorted := filtered
	if state.Sort.Key != "" && spec.sortable(state.Sort.Key) {
		sorted = Sort(filtered, state.Sort)
	}

	size := spec.pageSize()
	page, hasNext, hasPrev := Paginate(sorted, state.Page, size)
	return Page[R]{
		Rows:          page,
		Page:          max(state.Page, 0),
		PageSize:      size,
		TotalFiltered: len(sorted),
		TotalPages:    (len(sorted) + size - 1) / size,
		HasNext:       hasNext,
		HasPrev:       hasPrev,
	}
}

// Filter keeps the rows where any of keys contains query, compared
// case-insensitively on the formatted field value. An empty query keeps
// every row. The result is always a new slice.
func Filter[R Record](rows []R, keys []string, query string) []R {
	out := make([]R, 0, len(rows))
	if query == "" {
		return append(out, rows...)
	}
	q := strings.ToLower(query)
	for _, r := range rows {
		for _, k := range keys {
			if strings.Contains(strings.ToLower(Format(r.Field(k))), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy of rows.
//
// Numbers compare numerically, with missing and falsy values as 0. Strings
// use locale-aware collation and a blank string sorts before any text.
// When a column mixes the two, numbers and blanks come before text. Rows
// that compare equal keep their relative order, so sorting twice gives the
// same result.
func Sort[R Record](rows []R, cfg SortConfig) []R {
	out := slices.Clone(rows)
	if cfg.Key == "" {
		return out
	}
	c := collate.New(language.English)
	slices.SortStableFunc(out, func(a, b R) int {
		n := compareValues(c, a.Field(cfg.Key), b.Field(cfg.Key))
		if cfg.Dir == Desc {
			return -n
		}
		return n
	})
	return out
}

// sortKey places a field value in the ordering: numeric values (blanks
// count as 0) form one class and text another, after it.
type sortKey struct {
	text    bool
	num     float64
	display string
}

func sortKeyOf(v any) sortKey {
	if s, ok := v.(string); ok {
		if s == "" {
			return sortKey{}
		}
		return sortKey{text: true, display: s}
	}
	if f, ok := ToFloat(v); ok {
		return sortKey{num: f}
	}
	if !truthy(v) {
		return sortKey{}
	}
	return sortKey{text: true, display: Format(v)}
}

func compareValues(c *collate.Collator, a, b any) int {
	ka, kb := sortKeyOf(a), sortKeyOf(b)
	switch {
	case ka.text && kb.text:
		return c.CompareString(ka.display, kb.display)
	case ka.text:
		return 1
	case kb.text:
		return -1
	}
	return cmp.Compare(ka.num, kb.num)
}

// Paginate returns the rows of zero-based page p. Negative pages read as 0.
func Paginate[R Record](rows []R, p, size int) (page []R, hasNext, hasPrev bool) {
	if size <= 0 {
		size = DefaultPageSize
	}
	p = max(p, 0)
	start := p * size
	if start >= len(rows) {
		return []R{}, false, p > 0
	}
	end := min(start+size, len(rows))
	return rows[start:end], end < len(rows), p > 0
}
