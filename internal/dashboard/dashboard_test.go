package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/insights/internal/core"
	_ "github.com/JonMunkholm/insights/internal/core/analyses"
	"github.com/JonMunkholm/insights/internal/view"
)

// stubBackend answers each analysis with a canned body; analyses without a
// body fail.
type stubBackend struct {
	bodies map[core.AnalysisName]string
}

func (b stubBackend) Upload(context.Context, core.UploadSession) (string, error) {
	return "File uploaded successfully", nil
}

func (b stubBackend) Analyze(_ context.Context, spec core.AnalysisRequestSpec, _ core.UploadSession) ([]byte, error) {
	body, ok := b.bodies[spec.Name]
	if !ok {
		return nil, &core.AnalysisError{Name: spec.Name, Message: "model failed"}
	}
	return []byte(body), nil
}

func runReport(t *testing.T, opts core.RunOptions, bodies map[core.AnalysisName]string) *core.Report {
	t.Helper()
	o := core.NewOrchestrator(stubBackend{bodies: bodies}, core.All(), core.OrchestratorConfig{})
	r, err := o.Run(context.Background(), core.RunRequest{
		File:    core.UploadSession{FileName: "sales.csv", Data: []byte("x")},
		Options: opts,
	})
	require.NoError(t, err)
	return r
}

var fixtureBodies = map[core.AnalysisName]string{
	core.AnalysisCLV: `{"clv":[
		{"CustomerID":"A","CLV":100,"recommendation":"Upsell"},
		{"CustomerID":"B","CLV":50,"recommendation":"Nurture"},
		{"CustomerID":12345,"CLV":10,"recommendation":"Monitor"}]}`,
	core.AnalysisMonthlyRevenue: `{"monthly_revenue":[
		{"YearMonth":"2023-01","TotalPrice":1000,"YoY_Change":0},
		{"YearMonth":"2023-02","TotalPrice":1500,"YoY_Change":0.5},
		{"YearMonth":"2024-01","TotalPrice":1200,"YoY_Change":0.2}]}`,
	core.AnalysisGeography: `{"geographical_revenue":[
		{"Country":"United Kingdom","RawRevenue":9000,"RevenuePerCustomer":90,"CustomerCount":100},
		{"Country":"France","RawRevenue":1000,"RevenuePerCustomer":50,"CustomerCount":20}]}`,
	core.AnalysisSentiment: `{"sentiment_summary":[
		{"Description":"LOVELY MUG","Sentiment":0.6},
		{"Description":"PLAIN BOX","Sentiment":0},
		{"Description":"BROKEN LAMP","Sentiment":-0.4},
		{"Description":"GREAT BAG","Sentiment":0.3}]}`,
	core.AnalysisRepurchase: `{"repurchase_predictions":[
		{"CustomerID":1,"Repurchase_Probability":0.05},
		{"CustomerID":2,"Repurchase_Probability":0.55},
		{"CustomerID":3,"Repurchase_Probability":1}]}`,
	core.AnalysisSeasonality:  `{"seasonal_revenue":[{"Month":1,"TotalPrice":10},{"Month":11,"TotalPrice":30}]}`,
	core.AnalysisDailyRevenue: `{"daily_revenue":{"2023-01":{"1":5,"2":7},"2023-02":{"1":9}}}`,
}

func TestCatalog_KeysUniqueAndComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, tbl := range Tables() {
		require.False(t, seen[tbl.StateKey()], "duplicate %s", tbl.StateKey())
		seen[tbl.StateKey()] = true
		assert.NotEmpty(t, tbl.Title)
		assert.NotEmpty(t, tbl.Spec(nil).Columns, tbl.Key)
		_, registered := core.Get(tbl.Analysis)
		assert.True(t, registered, "table %s reads unknown analysis %s", tbl.Key, tbl.Analysis)
	}
	for _, c := range Charts() {
		require.False(t, seen[c.StateKey()], "duplicate %s", c.StateKey())
		seen[c.StateKey()] = true
		_, registered := core.Get(c.Analysis)
		assert.True(t, registered, "chart %s reads unknown analysis %s", c.Key, c.Analysis)
	}

	for _, key := range []string{"clv", "geography", "churn", "marketing", "affinity", "sentiment", "sales_drop", "return_rate", "monthly_revenue"} {
		_, ok := Table(key)
		assert.True(t, ok, "missing table %s", key)
	}
	for _, tab := range Tabs {
		assert.NotEmpty(t, ChartsIn(tab), "tab %s has no charts", tab)
		assert.NotEmpty(t, TablesIn(tab), "tab %s has no tables", tab)
	}
}

func TestTableView_SortSearchPage(t *testing.T) {
	r := runReport(t, core.RunOptions{}, fixtureBodies)
	tbl, _ := Table("clv")

	state := view.NewState()
	state.SetSort("CLV", view.Desc)
	v := tbl.View(r, state, 2)

	assert.Equal(t, StatusReady, v.Status)
	assert.Empty(t, v.Placeholder)
	assert.Equal(t, 3, v.TotalFiltered)
	assert.Equal(t, [][]string{{"A", "$100.00", "Upsell"}, {"B", "$50.00", "Nurture"}}, v.Rows)
	assert.True(t, v.HasNext)
	assert.False(t, v.HasPrev)

	state.SetSearch("b")
	v = tbl.View(r, state, 2)
	assert.Equal(t, [][]string{{"B", "$50.00", "Nurture"}}, v.Rows)
	assert.Equal(t, 1, v.TotalFiltered)
}

func TestTableView_NumericIDSearch(t *testing.T) {
	r := runReport(t, core.RunOptions{}, fixtureBodies)
	tbl, _ := Table("clv")

	state := view.NewState()
	state.SetSearch("234")
	v := tbl.View(r, state, 0)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "12345", v.Rows[0][0])
}

func TestTableView_Statuses(t *testing.T) {
	tbl, _ := Table("churn")

	pending := tbl.View(nil, view.NewState(), 0)
	assert.Equal(t, StatusPending, pending.Status)
	assert.Equal(t, "Upload a file to see Churn Predictions", pending.Placeholder)
	assert.Empty(t, pending.Rows)

	r := runReport(t, core.RunOptions{}, fixtureBodies)
	failed := tbl.View(r, view.NewState(), 0)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, 0, failed.TotalFiltered)

	empty := map[core.AnalysisName]string{core.AnalysisChurn: `{"churn_predictions":[],"confusion_matrix":[]}`}
	r = runReport(t, core.RunOptions{}, empty)
	assert.Equal(t, StatusEmpty, tbl.View(r, view.NewState(), 0).Status)
}

func TestTableFiltered_IgnoresPagination(t *testing.T) {
	r := runReport(t, core.RunOptions{}, fixtureBodies)
	tbl, _ := Table("clv")

	state := view.NewState()
	state.SetSearch("a")
	state.SetPage(3)

	cols, rows := tbl.Filtered(r, state)
	assert.Len(t, cols, 3)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Field("CustomerID"))
}

func TestGeographySpec_FollowsScaledOption(t *testing.T) {
	tbl, _ := Table("geography")

	raw := runReport(t, core.RunOptions{}, fixtureBodies)
	assert.Equal(t, "Total Revenue", tbl.View(raw, view.NewState(), 0).Columns[1].Label)

	scaled := runReport(t, core.RunOptions{ScaledRevenue: true}, fixtureBodies)
	v := tbl.View(scaled, view.NewState(), 0)
	assert.Equal(t, "Revenue per Customer", v.Columns[1].Label)
	assert.Equal(t, "$90.00", v.Rows[0][1])
}

func TestChartView_FacetsAndFilter(t *testing.T) {
	r := runReport(t, core.RunOptions{}, fixtureBodies)
	c, _ := Chart("monthly_revenue")
	memo := view.NewFacetMemo()

	v := c.View(r, view.NewState(), memo)
	assert.Equal(t, []string{"All", "2023", "2024"}, v.Facets.Years)
	assert.Equal(t, []string{"All", "01", "02"}, v.Facets.Months)
	assert.Equal(t, []string{"2023-01", "2023-02", "2024-01"}, v.Series.Labels)

	state := view.NewState()
	state.SetFacet("2023", "01")
	v = c.View(r, state, memo)
	assert.Equal(t, []string{"2023-01"}, v.Series.Labels)
	assert.Equal(t, []float64{1000}, v.Series.Values)
	assert.Equal(t, "2023", v.Year)
}

func TestChartView_NewReportRecomputesFacets(t *testing.T) {
	c, _ := Chart("monthly_revenue")
	memo := view.NewFacetMemo()

	first := runReport(t, core.RunOptions{}, fixtureBodies)
	assert.Contains(t, c.View(first, view.NewState(), memo).Facets.Years, "2024")

	second := runReport(t, core.RunOptions{}, map[core.AnalysisName]string{
		core.AnalysisMonthlyRevenue: `{"monthly_revenue":[{"YearMonth":"2025-06","TotalPrice":1}]}`,
	})
	v := c.View(second, view.NewState(), memo)
	assert.Equal(t, []string{"All", "2025"}, v.Facets.Years)
	assert.Equal(t, []string{"All", "06"}, v.Facets.Months)
}

func TestChartView_MonthAndDateStrategies(t *testing.T) {
	r := runReport(t, core.RunOptions{}, fixtureBodies)

	season, _ := Chart("seasonality")
	v := season.View(r, view.NewState(), nil)
	assert.Equal(t, []string{"All"}, v.Facets.Years)
	assert.Equal(t, []string{"All", "01", "11"}, v.Facets.Months)

	daily, _ := Chart("daily_revenue")
	state := view.NewState()
	state.SetFacet(view.All, "02")
	v = daily.View(r, state, nil)
	assert.Equal(t, []string{"All", "01", "02"}, v.Facets.Months)
	assert.Equal(t, []string{"2023-02-01"}, v.Series.Labels)
}

func TestChartView_Builders(t *testing.T) {
	r := runReport(t, core.RunOptions{}, fixtureBodies)

	sentiment, _ := Chart("sentiment")
	v := sentiment.View(r, view.NewState(), nil)
	assert.Equal(t, []float64{2, 1, 1}, v.Series.Values)

	repurchase, _ := Chart("repurchase_distribution")
	v = repurchase.View(r, view.NewState(), nil)
	require.Len(t, v.Series.Values, 10)
	assert.Equal(t, "0.0-0.1", v.Series.Labels[0])
	assert.Equal(t, 1.0, v.Series.Values[0])
	assert.Equal(t, 1.0, v.Series.Values[5])
	assert.Equal(t, 1.0, v.Series.Values[9])

	clv, _ := Chart("clv_distribution")
	v = clv.View(r, view.NewState(), nil)
	assert.Equal(t, "90-100", v.Series.Labels[9])
	assert.Equal(t, 1.0, v.Series.Values[9])
}

func TestChartView_FailedAnalysisIsPlaceholder(t *testing.T) {
	r := runReport(t, core.RunOptions{}, fixtureBodies)
	c, _ := Chart("top_products")

	v := c.View(r, view.NewState(), nil)
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "Failed to load Top Products by Revenue", v.Placeholder)
	assert.Zero(t, v.Series.Len())
	assert.NotNil(t, v.Series.Values)
}

func TestParseTab(t *testing.T) {
	tab, ok := ParseTab("revenue")
	assert.True(t, ok)
	assert.Equal(t, TabRevenue, tab)
	assert.Equal(t, "Revenue Analysis", tab.Label())

	_, ok = ParseTab("admin")
	assert.False(t, ok)
}
