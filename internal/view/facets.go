package view

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DateStrategy extracts a calendar year and zero-padded month from a row.
// A strategy that cannot place a row returns ok false. Year may be empty
// when the strategy only knows the month.
type DateStrategy interface {
	Name() string
	Extract(r Record) (year, month string, ok bool)
}

// YearMonthField reads a combined "YYYY-MM" token.
type YearMonthField struct{ Key string }

func (f YearMonthField) Name() string { return "year-month:" + f.Key }

func (f YearMonthField) Extract(r Record) (string, string, bool) {
	s, _ := r.Field(f.Key).(string)
	year, month, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found || !isDigits(year) || len(year) != 4 {
		return "", "", false
	}
	month, ok := padMonth(month)
	if !ok {
		return "", "", false
	}
	return year, month, true
}

// FullDateField reads a full date such as "2023-01-15" or an RFC 3339
// timestamp.
type FullDateField struct{ Key string }

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	time.RFC1123,
}

func (f FullDateField) Name() string { return "date:" + f.Key }

func (f FullDateField) Extract(r Record) (string, string, bool) {
	v := r.Field(f.Key)
	if t, ok := v.(time.Time); ok && !t.IsZero() {
		return strconv.Itoa(t.Year()), twoDigits(int(t.Month())), true
	}
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return strconv.Itoa(t.Year()), twoDigits(int(t.Month())), true
		}
	}
	return "", "", false
}

// MonthField reads a bare month number. Rows placed by it have no year.
type MonthField struct{ Key string }

func (f MonthField) Name() string { return "month:" + f.Key }

func (f MonthField) Extract(r Record) (string, string, bool) {
	v := r.Field(f.Key)
	var s string
	if n, ok := ToFloat(v); ok {
		s = strconv.Itoa(int(n))
	} else {
		s, _ = v.(string)
	}
	month, ok := padMonth(strings.TrimSpace(s))
	if !ok {
		return "", "", false
	}
	return "", month, true
}

// DefaultStrategies is the fixed precedence: combined year-month token,
// then full date, then bare month.
var DefaultStrategies = []DateStrategy{
	YearMonthField{Key: "YearMonth"},
	FullDateField{Key: "Date"},
	MonthField{Key: "Month"},
}

// SelectStrategy returns the first strategy in precedence order that can
// place at least one row, or nil. One strategy is used for a whole dataset
// so that rows are never classified by different fields in one pass.
func SelectStrategy[R Record](rows []R, strategies []DateStrategy) DateStrategy {
	if strategies == nil {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		for _, r := range rows {
			if _, _, ok := s.Extract(r); ok {
				return s
			}
		}
	}
	return nil
}

// TimeFacets are the selectable years and months of a dataset. Both lists
// start with All.
type TimeFacets struct {
	Years  []string `json:"years"`
	Months []string `json:"months"`
}

// DeriveTimeFacets collects the distinct years and months of rows, each
// deduplicated, naturally ordered and prefixed with All.
func DeriveTimeFacets[R Record](rows []R, strategies []DateStrategy) TimeFacets {
	facets := TimeFacets{Years: []string{All}, Months: []string{All}}
	s := SelectStrategy(rows, strategies)
	if s == nil {
		return facets
	}
	years := map[string]struct{}{}
	months := map[string]struct{}{}
	for _, r := range rows {
		y, m, ok := s.Extract(r)
		if !ok {
			continue
		}
		if y != "" {
			years[y] = struct{}{}
		}
		if m != "" {
			months[m] = struct{}{}
		}
	}
	facets.Years = append(facets.Years, naturalKeys(years)...)
	facets.Months = append(facets.Months, naturalKeys(months)...)
	return facets
}

// FilterByFacet keeps the rows whose extracted year and month match. All
// on an axis disables that axis. With All on both axes rows is returned
// unchanged.
func FilterByFacet[R Record](rows []R, year, month string, strategies []DateStrategy) []R {
	if year == "" {
		year = All
	}
	if month == "" {
		month = All
	}
	if year == All && month == All {
		return rows
	}
	s := SelectStrategy(rows, strategies)
	out := make([]R, 0, len(rows))
	if s == nil {
		return out
	}
	for _, r := range rows {
		y, m, _ := s.Extract(r)
		if (year == All || y == year) && (month == All || m == month) {
			out = append(out, r)
		}
	}
	return out
}

// FacetMemo caches derived facets per surface. An entry is reused only
// while the source identity is unchanged; a new source recomputes.
type FacetMemo struct {
	mu      sync.Mutex
	entries map[string]memoEntry
}

type memoEntry struct {
	source string
	facets TimeFacets
}

func NewFacetMemo() *FacetMemo {
	return &FacetMemo{entries: make(map[string]memoEntry)}
}

// Get returns the cached facets of surface for source, calling derive when
// nothing is cached for that source.
func (m *FacetMemo) Get(surface, source string, derive func() TimeFacets) TimeFacets {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[surface]; ok && e.source == source {
		return e.facets
	}
	f := derive()
	m.entries[surface] = memoEntry{source: source, facets: f}
	return f
}

func naturalKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, naturalCompare)
	return keys
}

func naturalCompare(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai - bi
	}
	return strings.Compare(a, b)
}

func padMonth(s string) (string, bool) {
	if len(s) > 2 {
		// "01-15" style tails carry a day.
		s, _, _ = strings.Cut(s, "-")
	}
	if !isDigits(s) {
		return "", false
	}
	n, _ := strconv.Atoi(s)
	if n < 1 || n > 12 {
		return "", false
	}
	return twoDigits(n), true
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
