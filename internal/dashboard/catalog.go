package dashboard

import (
	"math"
	"slices"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/view"
)

var (
	tables []*TableSurface
	charts []*ChartSurface
)

// Tables returns every table surface in declaration order.
func Tables() []*TableSurface { return slices.Clone(tables) }

// Charts returns every chart surface in declaration order.
func Charts() []*ChartSurface { return slices.Clone(charts) }

// Table looks up a table surface by key.
func Table(key string) (*TableSurface, bool) {
	for _, t := range tables {
		if t.Key == key {
			return t, true
		}
	}
	return nil, false
}

// Chart looks up a chart surface by key.
func Chart(key string) (*ChartSurface, bool) {
	for _, c := range charts {
		if c.Key == key {
			return c, true
		}
	}
	return nil, false
}

// TablesIn returns the table surfaces of one tab.
func TablesIn(tab Tab) []*TableSurface {
	var out []*TableSurface
	for _, t := range tables {
		if t.Tab == tab {
			out = append(out, t)
		}
	}
	return out
}

// ChartsIn returns the chart surfaces of one tab.
func ChartsIn(tab Tab) []*ChartSurface {
	var out []*ChartSurface
	for _, c := range charts {
		if c.Tab == tab {
			out = append(out, c)
		}
	}
	return out
}

// ParseTab returns the tab named s.
func ParseTab(s string) (Tab, bool) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func money(key string) func(view.Record) string {
	return func(r view.Record) string { return view.Money(r.Field(key)) }
}

func fixed(key string, decimals int) func(view.Record) string {
	return func(r view.Record) string { return view.Fixed(r.Field(key), decimals) }
}

func percent(key string) func(view.Record) string {
	return func(r view.Record) string { return view.Percent(r.Field(key)) }
}

// distribution counts the values of key into 10 buckets. upper <= 0 uses
// the largest value as the upper bound.
func distribution(name, key string, upper float64, decimals int) func([]view.Record) view.Series {
	return func(rows []view.Record) view.Series {
		values := make([]float64, len(rows))
		hi := upper
		for i, r := range rows {
			values[i] = view.Number(r.Field(key))
			if upper <= 0 {
				hi = math.Max(hi, values[i])
			}
		}
		return view.Histogram(name, values, 10, hi, view.RangeLabel(decimals))
	}
}

func init() {
	registerCustomer()
	registerRevenue()
	registerProduct()
	registerPredictive()
}

func registerCustomer() {
	charts = append(charts,
		&ChartSurface{
			Key:         "segments",
			Title:       "Customer Segments",
			Description: "Distribution of customers across RFM segments",
			Tab:         TabCustomer,
			Analysis:    core.AnalysisRFM,
			Kind:        view.PieChart,
			Filename:    "customer_segments",
			Rows:        func(r *core.Report) []view.Record { return records(r.RFM().Sizes()) },
			Hint:        view.SeriesHint{Name: "Customers", LabelKeys: []string{"Segment"}, ValueKeys: []string{"Customers"}},
		},
		&ChartSurface{
			Key:         "top_customers",
			Title:       "Top Customers by Revenue",
			Description: "Customers with the highest total spend",
			Tab:         TabCustomer,
			Analysis:    core.AnalysisTopCustomers,
			Kind:        view.BarChart,
			Filename:    "top_customers",
			Rows:        func(r *core.Report) []view.Record { return records(r.TopCustomers().Rows) },
			Hint:        view.SeriesHint{Name: "Revenue ($)", LabelKeys: []string{"CustomerID"}, ValueKeys: []string{"TotalPrice"}},
		},
		&ChartSurface{
			Key:         "clv_distribution",
			Title:       "CLV Distribution",
			Description: "Number of customers per lifetime value range",
			Tab:         TabCustomer,
			Analysis:    core.AnalysisCLV,
			Kind:        view.BarChart,
			Filename:    "clv_distribution",
			Rows:        func(r *core.Report) []view.Record { return records(r.CLV().Rows) },
			Build:       distribution("Customers", "CLV", 0, 0),
		},
		&ChartSurface{
			Key:         "activity_by_hour",
			Title:       "Customer Activity by Hour",
			Description: "Invoices per hour of day across all weekdays",
			Tab:         TabCustomer,
			Analysis:    core.AnalysisActivityHeatmap,
			Kind:        view.BarChart,
			Filename:    "activity_by_hour",
			Rows:        func(r *core.Report) []view.Record { return records(r.ActivityHeatmap().ByHour()) },
			Hint:        view.SeriesHint{Name: "Invoices", LabelKeys: []string{"Hour"}, ValueKeys: []string{"value"}},
		},
	)

	tables = append(tables, &TableSurface{
		Key:      "clv",
		Title:    "Customer Lifetime Value",
		Tab:      TabCustomer,
		Analysis: core.AnalysisCLV,
		Filename: "clv_data.csv",
		Spec: fixedSpec(view.TableSpec{
			Columns: []view.Column{
				{Key: "CustomerID", Label: "CustomerID", Sortable: true},
				{Key: "CLV", Label: "CLV", Sortable: true, Render: money("CLV")},
				{Key: "recommendation", Label: "Recommendation"},
			},
			SearchKeys: []string{"CustomerID"},
		}),
		Rows: func(r *core.Report) []view.Record { return records(r.CLV().Rows) },
	})
}

func registerRevenue() {
	charts = append(charts,
		&ChartSurface{
			Key:         "monthly_revenue",
			Title:       "Monthly Revenue",
			Description: "Total revenue per month",
			Tab:         TabRevenue,
			Analysis:    core.AnalysisMonthlyRevenue,
			Kind:        view.LineChart,
			Filename:    "monthly_revenue",
			Faceted:     true,
			Rows:        func(r *core.Report) []view.Record { return records(r.MonthlyRevenue().Rows) },
			Hint:        view.SeriesHint{Name: "Revenue ($)", LabelKeys: []string{"YearMonth"}, ValueKeys: []string{"TotalPrice", "value"}},
		},
		&ChartSurface{
			Key:         "daily_revenue",
			Title:       "Daily Revenue",
			Description: "Total revenue per day",
			Tab:         TabRevenue,
			Analysis:    core.AnalysisDailyRevenue,
			Kind:        view.LineChart,
			Filename:    "daily_revenue",
			Faceted:     true,
			Rows:        func(r *core.Report) []view.Record { return records(r.DailyRevenue().Days()) },
			Hint:        view.SeriesHint{Name: "Revenue ($)", LabelKeys: []string{"Date"}, ValueKeys: []string{"TotalPrice"}},
		},
		&ChartSurface{
			Key:         "geography",
			Title:       "Revenue by Country",
			Description: "Top 10 countries by revenue",
			Tab:         TabRevenue,
			Analysis:    core.AnalysisGeography,
			Kind:        view.BarChart,
			Filename:    "geographical_revenue",
			Rows:        func(r *core.Report) []view.Record { return records(r.Geography().Rows) },
			Hint: view.SeriesHint{
				Name:      "Revenue ($)",
				LabelKeys: []string{"Country"},
				ValueKeys: []string{"RawRevenue", "RevenuePerCustomer"},
				Limit:     10,
			},
		},
		&ChartSurface{
			Key:         "acquisition",
			Title:       "Monthly Customer Acquisition",
			Description: "New customers per month",
			Tab:         TabRevenue,
			Analysis:    core.AnalysisAcquisition,
			Kind:        view.LineChart,
			Filename:    "customer_acquisition",
			Faceted:     true,
			Rows:        func(r *core.Report) []view.Record { return records(r.Acquisition().Rows) },
			Hint:        view.SeriesHint{Name: "New Customers", LabelKeys: []string{"YearMonth"}, ValueKeys: []string{"newCustomers"}},
		},
		&ChartSurface{
			Key:         "seasonality",
			Title:       "Seasonal Revenue",
			Description: "Revenue per calendar month across all years",
			Tab:         TabRevenue,
			Analysis:    core.AnalysisSeasonality,
			Kind:        view.BarChart,
			Filename:    "seasonal_revenue",
			Faceted:     true,
			Strategies:  []view.DateStrategy{view.MonthField{Key: "Month"}},
			Rows:        func(r *core.Report) []view.Record { return records(r.Seasonality().Rows) },
			Hint:        view.SeriesHint{Name: "Revenue ($)", LabelKeys: []string{"Month"}, ValueKeys: []string{"TotalPrice"}},
		},
	)

	tables = append(tables,
		&TableSurface{
			Key:      "geography",
			Title:    "Geographical Revenue Details",
			Tab:      TabRevenue,
			Analysis: core.AnalysisGeography,
			Filename: "geographical_revenue.csv",
			Spec:     geographySpec,
			Rows:     func(r *core.Report) []view.Record { return records(r.Geography().Rows) },
		},
		&TableSurface{
			Key:      "monthly_revenue",
			Title:    "Monthly Revenue Details",
			Tab:      TabRevenue,
			Analysis: core.AnalysisMonthlyRevenue,
			Filename: "monthly_revenue.csv",
			Spec: fixedSpec(view.TableSpec{
				Columns: []view.Column{
					{Key: "YearMonth", Label: "Month", Sortable: true},
					{Key: "TotalPrice", Label: "Revenue", Sortable: true, Render: money("TotalPrice")},
					{Key: "YoY_Change", Label: "YoY Change", Sortable: true, Render: percent("YoY_Change")},
					{Key: "recommendation", Label: "Recommendation"},
				},
				SearchKeys: []string{"YearMonth"},
			}),
			Rows: func(r *core.Report) []view.Record { return records(r.MonthlyRevenue().Rows) },
		},
	)
}

// geographySpec labels the revenue column by the mode the report ran in.
func geographySpec(r *core.Report) view.TableSpec {
	revenue := view.Column{Key: "RawRevenue", Label: "Total Revenue", Sortable: true, Render: money("RawRevenue")}
	if r != nil && r.Options.ScaledRevenue {
		revenue = view.Column{Key: "RevenuePerCustomer", Label: "Revenue per Customer", Sortable: true, Render: money("RevenuePerCustomer")}
	}
	return view.TableSpec{
		Columns: []view.Column{
			{Key: "Country", Label: "Country", Sortable: true},
			revenue,
			{Key: "CustomerCount", Label: "Customer Count", Sortable: true},
			{Key: "recommendation", Label: "Recommendation"},
		},
		SearchKeys: []string{"Country"},
	}
}

func registerProduct() {
	charts = append(charts,
		&ChartSurface{
			Key:         "top_products",
			Title:       "Top Products by Revenue",
			Description: "Products with the highest total revenue",
			Tab:         TabProduct,
			Analysis:    core.AnalysisTopProducts,
			Kind:        view.BarChart,
			Filename:    "top_products",
			Rows:        func(r *core.Report) []view.Record { return records(r.TopProducts().Rows) },
			Hint:        view.SeriesHint{Name: "Revenue ($)", LabelKeys: []string{"Description"}, ValueKeys: []string{"TotalPrice"}},
		},
		&ChartSurface{
			Key:         "inventory_turnover",
			Title:       "Inventory Turnover",
			Description: "Top 10 products by turnover rate",
			Tab:         TabProduct,
			Analysis:    core.AnalysisInventoryTurnover,
			Kind:        view.BarChart,
			Filename:    "inventory_turnover",
			Rows:        func(r *core.Report) []view.Record { return records(r.InventoryTurnover().Rows) },
			Hint:        view.SeriesHint{Name: "Turnover Rate", LabelKeys: []string{"Description"}, ValueKeys: []string{"Turnover_Rate"}, Limit: 10},
		},
		&ChartSurface{
			Key:         "sentiment",
			Title:       "Product Sentiment",
			Description: "Products by sentiment of their description",
			Tab:         TabProduct,
			Analysis:    core.AnalysisSentiment,
			Kind:        view.PieChart,
			Filename:    "product_sentiment",
			Rows:        func(r *core.Report) []view.Record { return records(r.Sentiment().Rows) },
			Build:       sentimentCounts,
		},
	)

	tables = append(tables,
		&TableSurface{
			Key:      "affinity",
			Title:    "Product Affinity",
			Tab:      TabProduct,
			Analysis: core.AnalysisAffinity,
			Filename: "product_affinity.csv",
			Spec: fixedSpec(view.TableSpec{
				Columns: []view.Column{
					{Key: "antecedents", Label: "If Bought", Sortable: true},
					{Key: "consequents", Label: "Also Bought", Sortable: true},
					{Key: "support", Label: "Support", Sortable: true, Render: fixed("support", 3)},
					{Key: "confidence", Label: "Confidence", Sortable: true, Render: fixed("confidence", 2)},
					{Key: "lift", Label: "Lift", Sortable: true, Render: fixed("lift", 2)},
					{Key: "recommendation", Label: "Recommendation"},
				},
				SearchKeys: []string{"antecedents", "consequents"},
			}),
			Rows: func(r *core.Report) []view.Record { return records(r.Affinity().Rules) },
		},
		&TableSurface{
			Key:      "sentiment",
			Title:    "Product Sentiment Details",
			Tab:      TabProduct,
			Analysis: core.AnalysisSentiment,
			Filename: "product_sentiment.csv",
			Spec: fixedSpec(view.TableSpec{
				Columns: []view.Column{
					{Key: "Description", Label: "Product", Sortable: true},
					{Key: "Sentiment", Label: "Sentiment", Sortable: true, Render: fixed("Sentiment", 2)},
					{Key: "recommendation", Label: "Recommendation"},
				},
				SearchKeys: []string{"Description"},
			}),
			Rows: func(r *core.Report) []view.Record { return records(r.Sentiment().Rows) },
		},
		&TableSurface{
			Key:      "return_rate",
			Title:    "Product Return Rate",
			Tab:      TabProduct,
			Analysis: core.AnalysisReturnRate,
			Filename: "product_return_rate.csv",
			Spec: fixedSpec(view.TableSpec{
				Columns: []view.Column{
					{Key: "Description", Label: "Product", Sortable: true},
					{Key: "Quantity", Label: "Returned Units", Sortable: true},
					{Key: "ReturnRate", Label: "Return Rate", Sortable: true, Render: percent("ReturnRate")},
					{Key: "recommendation", Label: "Recommendation"},
				},
				SearchKeys: []string{"Description"},
			}),
			Rows: func(r *core.Report) []view.Record { return records(r.ReturnRate().Rows) },
		},
	)
}

func sentimentCounts(rows []view.Record) view.Series {
	s := view.Series{
		Name:   "Products",
		Labels: []string{"Positive", "Neutral", "Negative"},
		Values: make([]float64, 3),
	}
	for _, r := range rows {
		switch v := view.Number(r.Field("Sentiment")); {
		case v > 0:
			s.Values[0]++
		case v < 0:
			s.Values[2]++
		default:
			s.Values[1]++
		}
	}
	return s
}

func registerPredictive() {
	charts = append(charts,
		&ChartSurface{
			Key:         "repurchase_distribution",
			Title:       "Repurchase Probability Distribution",
			Description: "Number of customers per predicted repurchase probability",
			Tab:         TabPredictive,
			Analysis:    core.AnalysisRepurchase,
			Kind:        view.BarChart,
			Filename:    "repurchase_distribution",
			Rows:        func(r *core.Report) []view.Record { return records(r.Repurchase().Rows) },
			Build:       distribution("Customers", "Repurchase_Probability", 1, 1),
		},
		&ChartSurface{
			Key:         "sales_drop_factors",
			Title:       "Sales Drop Factors",
			Description: "Average order value and return rate of the most recent drop",
			Tab:         TabPredictive,
			Analysis:    core.AnalysisSalesDrop,
			Kind:        view.BarChart,
			Filename:    "sales_drop_factors",
			Rows:        func(r *core.Report) []view.Record { return records(r.SalesDrop().Rows) },
			Build:       salesDropFactors,
		},
		&ChartSurface{
			Key:         "retention",
			Title:       "Retention Rate",
			Description: "Average share of a cohort still buying N months after acquisition",
			Tab:         TabPredictive,
			Analysis:    core.AnalysisRetention,
			Kind:        view.LineChart,
			Filename:    "retention_rate",
			Rows:        func(r *core.Report) []view.Record { return records(r.Retention().ByOffset()) },
			Hint:        view.SeriesHint{Name: "Retention Rate (%)", LabelKeys: []string{"Offset"}, ValueKeys: []string{"value"}},
		},
		&ChartSurface{
			Key:         "discount_impact",
			Title:       "Discount Impact",
			Description: "Simulated revenue at each discount level",
			Tab:         TabPredictive,
			Analysis:    core.AnalysisDiscountImpact,
			Kind:        view.LineChart,
			Filename:    "discount_impact",
			Rows:        func(r *core.Report) []view.Record { return records(r.DiscountImpact().Rows) },
			Hint:        view.SeriesHint{Name: "Revenue ($)", LabelKeys: []string{"Discount"}, ValueKeys: []string{"value"}},
		},
		&ChartSurface{
			Key:         "marketing_segments",
			Title:       "Marketing Segments",
			Description: "Customers per marketing segment",
			Tab:         TabPredictive,
			Analysis:    core.AnalysisMarketing,
			Kind:        view.BarChart,
			Filename:    "marketing_segments",
			Rows:        func(r *core.Report) []view.Record { return records(r.Marketing().Rows) },
			Hint:        view.SeriesHint{Name: "Customer Count", LabelKeys: []string{"Segment"}, ValueKeys: []string{"CustomerCount"}},
		},
	)

	tables = append(tables,
		&TableSurface{
			Key:      "churn",
			Title:    "Churn Predictions",
			Tab:      TabPredictive,
			Analysis: core.AnalysisChurn,
			Filename: "churn_predictions.csv",
			Spec: fixedSpec(view.TableSpec{
				Columns: []view.Column{
					{Key: "CustomerID", Label: "CustomerID", Sortable: true},
					{Key: "Churn_Probability", Label: "Churn Probability", Sortable: true, Render: fixed("Churn_Probability", 2)},
					{Key: "recommendation", Label: "Recommendation"},
				},
				SearchKeys: []string{"CustomerID"},
			}),
			Rows: func(r *core.Report) []view.Record { return records(r.Churn().Predictions) },
		},
		&TableSurface{
			Key:      "sales_drop",
			Title:    "Sales Drop Analysis",
			Tab:      TabPredictive,
			Analysis: core.AnalysisSalesDrop,
			Filename: "sales_drop_factors.csv",
			Spec: fixedSpec(view.TableSpec{
				Columns: []view.Column{
					{Key: "YearMonth", Label: "Month", Sortable: true},
					{Key: "Revenue", Label: "Revenue", Sortable: true, Render: money("Revenue")},
					{Key: "YoY_Change", Label: "YoY Change", Sortable: true, Render: percent("YoY_Change")},
					{Key: "Reasons", Label: "Reasons"},
					{Key: "Recommendations", Label: "Recommendations"},
				},
				SearchKeys: []string{"YearMonth", "Reasons"},
			}),
			Rows: func(r *core.Report) []view.Record { return records(r.SalesDrop().Rows) },
		},
		&TableSurface{
			Key:      "marketing",
			Title:    "Marketing Recommendations",
			Tab:      TabPredictive,
			Analysis: core.AnalysisMarketing,
			Filename: "marketing_recommendations.csv",
			Spec: fixedSpec(view.TableSpec{
				Columns: []view.Column{
					{Key: "Segment", Label: "Segment", Sortable: true},
					{Key: "CustomerCount", Label: "Customer Count", Sortable: true},
					{Key: "Recommendation", Label: "Recommendation"},
				},
				SearchKeys: []string{"Segment"},
			}),
			Rows: func(r *core.Report) []view.Record { return records(r.Marketing().Rows) },
		},
	)
}

// salesDropFactors shows the first reported drop: its average order value
// and its return rate in percent.
func salesDropFactors(rows []view.Record) view.Series {
	s := view.Series{
		Name:   "Values",
		Labels: []string{"Avg Order Value", "Return Rate"},
		Values: make([]float64, 2),
	}
	if len(rows) > 0 {
		s.Values[0] = view.Number(rows[0].Field("AvgOrderValue"))
		s.Values[1] = view.Number(rows[0].Field("ReturnRate")) * 100
	}
	return s
}
