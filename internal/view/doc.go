// Package view turns result arrays into table and chart views.
//
// Nothing in this package knows about a specific dataset. Rows are read
// through the Record interface, tables are described by Column values and
// charts by SeriesHint and an ordered list of DateStrategy values. Every view
// surface owns its own State; the engine functions are pure and never mutate
// the rows or the state they are given.
//
// The table pipeline is Filter, then Sort, then Paginate:
//
//	res := view.View(rows, view.TableSpec{
//	    Columns:    []view.Column{{Key: "CustomerID", Label: "Customer", Sortable: true}},
//	    SearchKeys: []string{"CustomerID"},
//	    PageSize:   10,
//	}, state)
//
// The chart pipeline is DeriveTimeFacets, FilterByFacet, then ToSeries.
package view

// Record is a row whose fields can be read by key. Field returns nil for
// unknown keys.
type Record interface {
	Field(key string) any
}

// Map adapts a generic JSON object to Record.
type Map map[string]any

func (m Map) Field(key string) any { return m[key] }
