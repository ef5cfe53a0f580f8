package analyses

import "github.com/JonMunkholm/insights/internal/core"

func init() {
	registerMonthlyRevenue()
	registerDailyRevenue()
	registerGeography()
	registerSeasonality()
	registerSalesDrop()
}

func registerMonthlyRevenue() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisMonthlyRevenue, Endpoint: "monthly_revenue"},
		"Monthly Revenue", GroupRevenue,
		func() core.MonthlyRevenueResult {
			return core.MonthlyRevenueResult{Rows: []core.MonthlyRevenueRow{}}
		},
	))
}

func registerDailyRevenue() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisDailyRevenue, Endpoint: "daily_revenue"},
		"Daily Revenue", GroupRevenue,
		func() core.DailyRevenueResult {
			return core.DailyRevenueResult{ByMonth: map[string]map[string]float64{}}
		},
	))
}

// The geography request gains scaled=true when a run asks for revenue per
// customer; see core.RunOptions.
func registerGeography() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisGeography, Endpoint: "geographical_analysis"},
		"Geographical Revenue", GroupRevenue,
		func() core.GeographyResult {
			return core.GeographyResult{Rows: []core.CountryRevenue{}}
		},
	))
}

func registerSeasonality() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisSeasonality, Endpoint: "seasonality_analysis"},
		"Seasonality", GroupRevenue,
		func() core.SeasonalityResult {
			return core.SeasonalityResult{Rows: []core.SeasonalRow{}}
		},
	))
}

func registerSalesDrop() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisSalesDrop, Endpoint: "sales_drop_analysis"},
		"Sales Drop Factors", GroupRevenue,
		func() core.SalesDropResult {
			return core.SalesDropResult{Rows: []core.SalesDropRow{}}
		},
	))
}
