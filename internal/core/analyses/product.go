package analyses

import "github.com/JonMunkholm/insights/internal/core"

func init() {
	registerTopProducts()
	registerAffinity()
	registerSentiment()
	registerInventoryTurnover()
	registerDiscountImpact()
	registerReturnRate()
}

func registerTopProducts() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisTopProducts, Endpoint: "top_products"},
		"Top Products", GroupProduct,
		func() core.TopProductsResult {
			return core.TopProductsResult{Rows: []core.ProductRevenue{}}
		},
	))
}

func registerAffinity() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisAffinity, Endpoint: "product_affinity"},
		"Product Affinity", GroupProduct,
		func() core.AffinityResult {
			return core.AffinityResult{Rules: []core.AffinityRule{}}
		},
	))
}

func registerSentiment() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisSentiment, Endpoint: "sentiment_analysis"},
		"Product Sentiment", GroupProduct,
		func() core.SentimentResult {
			return core.SentimentResult{Rows: []core.SentimentRow{}}
		},
	))
}

func registerInventoryTurnover() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisInventoryTurnover, Endpoint: "inventory_turnover"},
		"Inventory Turnover", GroupProduct,
		func() core.TurnoverResult {
			return core.TurnoverResult{Rows: []core.TurnoverRow{}}
		},
	))
}

func registerDiscountImpact() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisDiscountImpact, Endpoint: "discount_impact"},
		"Discount Impact", GroupProduct,
		func() core.DiscountResult {
			return core.DiscountResult{Rows: []core.DiscountRow{}}
		},
	))
}

func registerReturnRate() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisReturnRate, Endpoint: "product_return_rate"},
		"Product Return Rate", GroupProduct,
		func() core.ReturnRateResult {
			return core.ReturnRateResult{Rows: []core.ReturnRateRow{}}
		},
	))
}
