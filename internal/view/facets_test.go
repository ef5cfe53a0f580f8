package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTimeFacets_YearMonth(t *testing.T) {
	rows := []Map{
		{"YearMonth": "2023-01", "TotalPrice": 10.0},
		{"YearMonth": "2023-02", "TotalPrice": 20.0},
	}

	got := DeriveTimeFacets(rows, nil)
	assert.Equal(t, []string{"All", "2023"}, got.Years)
	assert.Equal(t, []string{"All", "01", "02"}, got.Months)

	filtered := FilterByFacet(rows, "2023", "01", nil)
	require.Len(t, filtered, 1)
	assert.Equal(t, rows[0], filtered[0])
}

func TestDeriveTimeFacets_NaturalOrderAndDedup(t *testing.T) {
	rows := []Map{
		{"YearMonth": "2024-11"},
		{"YearMonth": "2010-2"},
		{"YearMonth": "2024-02"},
		{"YearMonth": "2009-12"},
	}

	got := DeriveTimeFacets(rows, nil)
	assert.Equal(t, []string{"All", "2009", "2010", "2024"}, got.Years)
	assert.Equal(t, []string{"All", "02", "11", "12"}, got.Months)
}

func TestDeriveTimeFacets_FullDate(t *testing.T) {
	rows := []Map{
		{"Date": "2011-12-09", "TotalPrice": 1.0},
		{"Date": "2010-12-01T08:26:00Z", "TotalPrice": 2.0},
		{"Date": "not a date", "TotalPrice": 3.0},
	}

	got := DeriveTimeFacets(rows, nil)
	assert.Equal(t, []string{"All", "2010", "2011"}, got.Years)
	assert.Equal(t, []string{"All", "12"}, got.Months)

	assert.Len(t, FilterByFacet(rows, "2011", All, nil), 1)
	assert.Len(t, FilterByFacet(rows, All, "12", nil), 2)
}

func TestDeriveTimeFacets_BareMonthHasNoYears(t *testing.T) {
	rows := []Map{{"Month": 3.0}, {"Month": "11"}, {"Month": 3.0}}

	got := DeriveTimeFacets(rows, nil)
	assert.Equal(t, []string{"All"}, got.Years)
	assert.Equal(t, []string{"All", "03", "11"}, got.Months)

	assert.Empty(t, FilterByFacet(rows, "2023", All, nil))
	assert.Len(t, FilterByFacet(rows, All, "03", nil), 2)
}

func TestDeriveTimeFacets_NoDates(t *testing.T) {
	rows := []Map{{"Country": "France"}}

	got := DeriveTimeFacets(rows, nil)
	assert.Equal(t, TimeFacets{Years: []string{"All"}, Months: []string{"All"}}, got)
	assert.Empty(t, FilterByFacet(rows, "2023", All, nil))

	empty := DeriveTimeFacets([]Map(nil), nil)
	assert.Equal(t, []string{"All"}, empty.Years)
}

func TestSelectStrategy_Precedence(t *testing.T) {
	tests := []struct {
		name string
		rows []Map
		want string
	}{
		{"year-month wins over date", []Map{{"YearMonth": "2023-01", "Date": "2022-05-01"}}, "year-month:YearMonth"},
		{"date wins over month", []Map{{"Date": "2022-05-01", "Month": 7}}, "date:Date"},
		{"month alone", []Map{{"Month": 7}}, "month:Month"},
		{"any row selects", []Map{{"Month": 7}, {"Date": "2022-05-01"}}, "date:Date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SelectStrategy(tt.rows, nil)
			require.NotNil(t, s)
			assert.Equal(t, tt.want, s.Name())
		})
	}

	assert.Nil(t, SelectStrategy([]Map{{"x": 1}}, nil))
}

func TestDeriveTimeFacets_OneStrategyPerDataset(t *testing.T) {
	rows := []Map{
		{"YearMonth": "2023-01"},
		{"Date": "2021-06-15"},
	}

	got := DeriveTimeFacets(rows, nil)
	assert.Equal(t, []string{"All", "2023"}, got.Years, "rows are not classified by mixed fields")
	assert.Equal(t, []string{"All", "01"}, got.Months)
}

func TestFilterByFacet_AllReturnsInput(t *testing.T) {
	rows := []Map{{"YearMonth": "2023-02"}, {"YearMonth": "2023-01"}, {"x": 1}}

	got := FilterByFacet(rows, All, All, nil)
	assert.Equal(t, rows, got)
	assert.Same(t, &rows[0], &got[0])

	got = FilterByFacet(rows, "", "", nil)
	assert.Equal(t, rows, got)
}

func TestStrategies_Custom(t *testing.T) {
	rows := []Map{{"InvoiceDate": "2011-03-04"}}
	strategies := []DateStrategy{FullDateField{Key: "InvoiceDate"}}

	got := DeriveTimeFacets(rows, strategies)
	assert.Equal(t, []string{"All", "2011"}, got.Years)
	assert.Equal(t, []string{"All", "03"}, got.Months)
}

func TestYearMonthField_Extract(t *testing.T) {
	tests := []struct {
		in        any
		year, mon string
		ok        bool
	}{
		{"2023-01", "2023", "01", true},
		{"2023-1", "2023", "01", true},
		{"2023-13", "", "", false},
		{"23-01", "", "", false},
		{"2023", "", "", false},
		{202301, "", "", false},
		{nil, "", "", false},
	}
	f := YearMonthField{Key: "k"}
	for _, tt := range tests {
		y, m, ok := f.Extract(Map{"k": tt.in})
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.year, y, "%v", tt.in)
		assert.Equal(t, tt.mon, m, "%v", tt.in)
	}
}

func TestFacetMemo(t *testing.T) {
	memo := NewFacetMemo()
	calls := 0
	derive := func() TimeFacets {
		calls++
		return TimeFacets{Years: []string{All}, Months: []string{All}}
	}

	memo.Get("monthly", "report-1", derive)
	memo.Get("monthly", "report-1", derive)
	assert.Equal(t, 1, calls)

	memo.Get("monthly", "report-2", derive)
	assert.Equal(t, 2, calls, "a new source recomputes")

	memo.Get("daily", "report-2", derive)
	assert.Equal(t, 3, calls, "surfaces are cached separately")
}
