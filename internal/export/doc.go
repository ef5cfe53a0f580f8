// Package export turns table and chart views into downloadable files.
//
// Tables are exported as CSV containing the rows the user currently has
// filtered (after search, before pagination). Charts are rendered to PNG
// from the series the chart surface currently shows.
package export
