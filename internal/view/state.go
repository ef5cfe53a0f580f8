package view

import "sync"

// All is the facet value meaning "no filter".
const All = "All"

// SortDir is the direction of a table sort.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// SortConfig selects the sort column. An empty Key keeps the source order.
type SortConfig struct {
	Key string  `json:"key,omitempty"`
	Dir SortDir `json:"direction,omitempty"`
}

// State is the interaction state of one view surface.
//
// The engine functions never modify a State and never reset the page on
// their own. Callers that change the search text must go through SetSearch,
// which puts the surface back on the first page.
type State struct {
	Search string     `json:"search"`
	Sort   SortConfig `json:"sort"`
	Page   int        `json:"page"`
	Year   string     `json:"year"`
	Month  string     `json:"month"`
}

// NewState returns the initial state of a surface: no search, no sort,
// first page and both facets set to All.
func NewState() State {
	return State{Year: All, Month: All}
}

// SetSearch replaces the search text and resets the page to 0 when the
// text changed.
func (s *State) SetSearch(q string) {
	if q == s.Search {
		return
	}
	s.Search = q
	s.Page = 0
}

// ToggleSort sorts by key ascending, or flips to descending when key is
// already sorted ascending.
func (s *State) ToggleSort(key string) {
	dir := Asc
	if s.Sort.Key == key && s.Sort.Dir == Asc {
		dir = Desc
	}
	s.Sort = SortConfig{Key: key, Dir: dir}
}

// SetSort sets an explicit sort. Unknown directions fall back to Asc.
func (s *State) SetSort(key string, dir SortDir) {
	if dir != Desc {
		dir = Asc
	}
	s.Sort = SortConfig{Key: key, Dir: dir}
}

// SetPage moves to page p. Negative pages clamp to 0.
func (s *State) SetPage(p int) {
	if p < 0 {
		p = 0
	}
	s.Page = p
}

// NextPage and PrevPage move one page. PrevPage never goes below 0.
func (s *State) NextPage() { s.Page++ }
func (s *State) PrevPage() { s.SetPage(s.Page - 1) }

// SetFacet selects a year and month. Empty values mean All.
func (s *State) SetFacet(year, month string) {
	if year == "" {
		year = All
	}
	if month == "" {
		month = All
	}
	s.Year, s.Month = year, month
}

// StateSet holds the states of many surfaces, keyed by surface name.
// It is safe for concurrent use.
type StateSet struct {
	mu     sync.Mutex
	states map[string]State
}

// NewStateSet creates an empty set. Unknown surfaces read as NewState().
func NewStateSet() *StateSet {
	return &StateSet{states: make(map[string]State)}
}

// Get returns the state of a surface.
func (s *StateSet) Get(surface string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[surface]; ok {
		return st
	}
	return NewState()
}

// Update applies fn to the state of a surface and returns the result.
func (s *StateSet) Update(surface string, fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[surface]
	if !ok {
		st = NewState()
	}
	fn(&st)
	s.states[surface] = st
	return st
}

// Reset drops every surface state. Called when the report is replaced.
func (s *StateSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.states)
}
