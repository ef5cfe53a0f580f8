package analyses

import "github.com/JonMunkholm/insights/internal/core"

func init() {
	registerRFM()
	registerTopCustomers()
	registerCLV()
	registerAcquisition()
	registerActivityHeatmap()
	registerMarketing()
}

func registerRFM() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisRFM, Endpoint: "rfm_analysis"},
		"Customer Segmentation", GroupCustomer,
		func() core.RFMResult {
			return core.RFMResult{Segments: map[string][]core.RFMCustomer{}}
		},
	))
}

func registerTopCustomers() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisTopCustomers, Endpoint: "top_customers"},
		"Top Customers", GroupCustomer,
		func() core.TopCustomersResult {
			return core.TopCustomersResult{Rows: []core.CustomerRevenue{}}
		},
	))
}

func registerCLV() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisCLV, Endpoint: "customer_lifetime_value"},
		"Customer Lifetime Value", GroupCustomer,
		func() core.CLVResult {
			return core.CLVResult{Rows: []core.CLVRow{}}
		},
	))
}

func registerAcquisition() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisAcquisition, Endpoint: "monthly_customer_acquisition"},
		"Customer Acquisition", GroupCustomer,
		func() core.AcquisitionResult {
			return core.AcquisitionResult{Rows: []core.AcquisitionRow{}}
		},
	))
}

func registerActivityHeatmap() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisActivityHeatmap, Endpoint: "customer_activity_heatmap"},
		"Customer Activity", GroupCustomer,
		func() core.HeatmapResult {
			return core.HeatmapResult{Days: []core.HeatmapDay{}}
		},
	))
}

func registerMarketing() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisMarketing, Endpoint: "marketing_recommendations"},
		"Marketing Recommendations", GroupCustomer,
		func() core.MarketingResult {
			return core.MarketingResult{Rows: []core.MarketingRow{}}
		},
	))
}
