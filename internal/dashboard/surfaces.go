// Package dashboard declares the view surfaces of the report: which tables
// and charts exist, which tab they belong to, and how each one reads its
// rows from a core.Report.
//
// Declarations are static. Rendering goes through the generic engines in
// package view, driven by the State each session keeps per surface.
package dashboard

import (
	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/view"
)

// Tab groups surfaces on one dashboard page.
type Tab string

const (
	TabCustomer   Tab = "customer"
	TabRevenue    Tab = "revenue"
	TabProduct    Tab = "product"
	TabPredictive Tab = "predictive"
)

// Tabs lists the dashboard tabs in display order.
var Tabs = []Tab{TabCustomer, TabRevenue, TabProduct, TabPredictive}

// Label returns the display name of the tab.
func (t Tab) Label() string {
	switch t {
	case TabCustomer:
		return "Customer Insights"
	case TabRevenue:
		return "Revenue Analysis"
	case TabProduct:
		return "Product Analysis"
	case TabPredictive:
		return "Predictive Analytics"
	}
	return string(t)
}

// Status tells a view whether it has something to show.
type Status string

const (
	StatusReady   Status = "ready"   // rows available
	StatusEmpty   Status = "empty"   // analysis ran and returned nothing
	StatusFailed  Status = "failed"  // analysis failed in the last run
	StatusPending Status = "pending" // no report yet
)

// placeholder returns the text shown instead of an empty view.
func (s Status) placeholder(title string) string {
	switch s {
	case StatusEmpty:
		return "No data available for " + title
	case StatusFailed:
		return "Failed to load " + title
	case StatusPending:
		return "Upload a file to see " + title
	}
	return ""
}

// statusOf classifies a view. rows is the number of rows before any search
// or facet filtering.
func statusOf(r *core.Report, name core.AnalysisName, rows int) Status {
	switch {
	case r == nil:
		return StatusPending
	case r.Failed(name):
		return StatusFailed
	case rows == 0:
		return StatusEmpty
	}
	return StatusReady
}

// records erases the element type of a payload slice.
func records[R view.Record](rows []R) []view.Record {
	out := make([]view.Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
