package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Payload is the decoded result of one analysis. Each analysis has exactly
// one concrete payload type, so a report is a union tagged by AnalysisName.
type Payload interface {
	Analysis() AnalysisName
}

// Analysis names. The full set is registered by package analyses.
const (
	AnalysisRFM               AnalysisName = "rfm"
	AnalysisMonthlyRevenue    AnalysisName = "monthly_revenue"
	AnalysisDailyRevenue      AnalysisName = "daily_revenue"
	AnalysisTopCustomers      AnalysisName = "top_customers"
	AnalysisTopProducts       AnalysisName = "top_products"
	AnalysisGeography         AnalysisName = "geography"
	AnalysisAcquisition       AnalysisName = "acquisition"
	AnalysisActivityHeatmap   AnalysisName = "activity_heatmap"
	AnalysisChurn             AnalysisName = "churn"
	AnalysisCLV               AnalysisName = "clv"
	AnalysisAffinity          AnalysisName = "affinity"
	AnalysisSentiment         AnalysisName = "sentiment"
	AnalysisInventoryTurnover AnalysisName = "inventory_turnover"
	AnalysisDiscountImpact    AnalysisName = "discount_impact"
	AnalysisSeasonality       AnalysisName = "seasonality"
	AnalysisRetention         AnalysisName = "retention"
	AnalysisSalesDrop         AnalysisName = "sales_drop"
	AnalysisRepurchase        AnalysisName = "repurchase"
	AnalysisMarketing         AnalysisName = "marketing"
	AnalysisReturnRate        AnalysisName = "return_rate"
)

// ---------------------------------------------------------------------------
// Customer analyses
// ---------------------------------------------------------------------------

// RFMCustomer is one customer scored by recency, frequency and monetary value.
type RFMCustomer struct {
	CustomerID     Key     `json:"CustomerID"`
	Recency        float64 `json:"Recency"`
	Frequency      float64 `json:"Frequency"`
	Monetary       float64 `json:"Monetary"`
	RecencyScore   float64 `json:"recency_score"`
	FrequencyScore float64 `json:"frequency_score"`
	MonetaryScore  float64 `json:"monetary_score"`
	RFMScore       string  `json:"RFM_SCORE"`
	Segment        string  `json:"segment"`
	Recommendation string  `json:"recommendation"`
}

func (c RFMCustomer) Field(key string) any {
	switch key {
	case "CustomerID":
		return c.CustomerID.Value()
	case "Recency":
		return c.Recency
	case "Frequency":
		return c.Frequency
	case "Monetary":
		return c.Monetary
	case "RFM_SCORE":
		return c.RFMScore
	case "segment":
		return c.Segment
	case "recommendation":
		return c.Recommendation
	}
	return nil
}

// RFMResult groups customers by segment.
type RFMResult struct {
	Segments map[string][]RFMCustomer `json:"segment_data"`
}

func (RFMResult) Analysis() AnalysisName { return AnalysisRFM }

// SegmentSize is the customer count of one segment.
type SegmentSize struct {
	Segment   string
	Customers int
}

func (s SegmentSize) Field(key string) any {
	switch key {
	case "Segment":
		return s.Segment
	case "Customers":
		return s.Customers
	}
	return nil
}

// Sizes returns one entry per segment ordered by segment name.
func (r RFMResult) Sizes() []SegmentSize {
	sizes := make([]SegmentSize, 0, len(r.Segments))
	for name, customers := range r.Segments {
		sizes = append(sizes, SegmentSize{Segment: name, Customers: len(customers)})
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Segment < sizes[j].Segment })
	return sizes
}

// CustomerRevenue is a customer's total spend.
type CustomerRevenue struct {
	CustomerID Key     `json:"CustomerID"`
	TotalPrice float64 `json:"TotalPrice"`
}

func (c CustomerRevenue) Field(key string) any {
	switch key {
	case "CustomerID":
		return c.CustomerID.Value()
	case "TotalPrice":
		return c.TotalPrice
	}
	return nil
}

// TopCustomersResult lists the highest spending customers.
type TopCustomersResult struct {
	Rows []CustomerRevenue `json:"top_customers"`
}

func (TopCustomersResult) Analysis() AnalysisName { return AnalysisTopCustomers }

// CLVRow is one customer's lifetime value estimate.
type CLVRow struct {
	CustomerID     Key     `json:"CustomerID"`
	CLV            float64 `json:"CLV"`
	Recommendation string  `json:"recommendation"`
}

func (c CLVRow) Field(key string) any {
	switch key {
	case "CustomerID":
		return c.CustomerID.Value()
	case "CLV":
		return c.CLV
	case "recommendation":
		return c.Recommendation
	}
	return nil
}

// CLVResult holds lifetime value per customer, highest first.
type CLVResult struct {
	Rows []CLVRow `json:"clv"`
}

func (CLVResult) Analysis() AnalysisName { return AnalysisCLV }

// AcquisitionRow counts customers first seen in a month.
type AcquisitionRow struct {
	YearMonth    string  `json:"YearMonth"`
	NewCustomers float64 `json:"newCustomers"`
}

func (a AcquisitionRow) Field(key string) any {
	switch key {
	case "YearMonth":
		return a.YearMonth
	case "newCustomers", "value":
		return a.NewCustomers
	}
	return nil
}

// AcquisitionResult is the monthly customer acquisition series.
type AcquisitionResult struct {
	Rows []AcquisitionRow `json:"monthly_acquisition"`
}

func (AcquisitionResult) Analysis() AnalysisName { return AnalysisAcquisition }

// CountryRevenue is revenue aggregated by country.
// RawRevenue is absent when the analysis ran with scaled=true.
type CountryRevenue struct {
	Country            string  `json:"Country"`
	RawRevenue         float64 `json:"RawRevenue"`
	RevenuePerCustomer float64 `json:"RevenuePerCustomer"`
	CustomerCount      float64 `json:"CustomerCount"`
	Recommendation     string  `json:"recommendation"`
}

func (c CountryRevenue) Field(key string) any {
	switch key {
	case "Country":
		return c.Country
	case "RawRevenue":
		return c.RawRevenue
	case "RevenuePerCustomer":
		return c.RevenuePerCustomer
	case "CustomerCount":
		return c.CustomerCount
	case "recommendation":
		return c.Recommendation
	}
	return nil
}

// GeographyResult holds revenue per country.
type GeographyResult struct {
	Rows []CountryRevenue `json:"geographical_revenue"`
}

func (GeographyResult) Analysis() AnalysisName { return AnalysisGeography }

// HeatmapDay counts distinct invoices per hour for one weekday (0 = Monday).
type HeatmapDay struct {
	DayOfWeek int
	Hours     [24]float64
}

func (d HeatmapDay) Field(key string) any {
	if key == "DayOfWeek" {
		return d.DayOfWeek
	}
	if h, ok := strings.CutPrefix(key, "Hour_"); ok {
		if i, err := strconv.Atoi(h); err == nil && i >= 0 && i < 24 {
			return d.Hours[i]
		}
	}
	return nil
}

func (d *HeatmapDay) UnmarshalJSON(b []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = HeatmapDay{DayOfWeek: int(raw["DayOfWeek"])}
	for i := range d.Hours {
		d.Hours[i] = raw["Hour_"+strconv.Itoa(i)]
	}
	return nil
}

func (d HeatmapDay) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, 25)
	out["DayOfWeek"] = float64(d.DayOfWeek)
	for i, v := range d.Hours {
		out["Hour_"+strconv.Itoa(i)] = v
	}
	return json.Marshal(out)
}

// HeatmapResult is customer activity by weekday and hour.
type HeatmapResult struct {
	Days           []HeatmapDay `json:"activity_heatmap"`
	PeakHour       int          `json:"peak_hour"`
	PeakDay        int          `json:"peak_day"`
	PeakDayName    string       `json:"peak_day_name"`
	Recommendation string       `json:"recommendation"`
}

func (HeatmapResult) Analysis() AnalysisName { return AnalysisActivityHeatmap }

// HourActivity is the total activity in one hour of the day across weekdays.
type HourActivity struct {
	Hour  int
	Total float64
}

func (h HourActivity) Field(key string) any {
	switch key {
	case "Hour":
		return strconv.Itoa(h.Hour)
	case "value":
		return h.Total
	}
	return nil
}

// ByHour sums activity per hour over all weekdays.
func (r HeatmapResult) ByHour() []HourActivity {
	out := make([]HourActivity, 24)
	for i := range out {
		out[i].Hour = i
	}
	for _, d := range r.Days {
		for i, v := range d.Hours {
			out[i].Total += v
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Revenue analyses
// ---------------------------------------------------------------------------

// MonthlyRevenueRow is revenue for one calendar month.
type MonthlyRevenueRow struct {
	YearMonth      string  `json:"YearMonth"`
	TotalPrice     float64 `json:"TotalPrice"`
	YoYChange      float64 `json:"YoY_Change"`
	Recommendation string  `json:"recommendation"`
}

func (m MonthlyRevenueRow) Field(key string) any {
	switch key {
	case "YearMonth":
		return m.YearMonth
	case "TotalPrice":
		return m.TotalPrice
	case "YoY_Change":
		return m.YoYChange
	case "recommendation":
		return m.Recommendation
	}
	return nil
}

// MonthlyRevenueResult is the monthly revenue series.
type MonthlyRevenueResult struct {
	Rows []MonthlyRevenueRow `json:"monthly_revenue"`
}

func (MonthlyRevenueResult) Analysis() AnalysisName { return AnalysisMonthlyRevenue }

// DailyRevenueRow is revenue for one calendar day.
type DailyRevenueRow struct {
	Date       string
	TotalPrice float64
}

func (d DailyRevenueRow) Field(key string) any {
	switch key {
	case "Date":
		return d.Date
	case "TotalPrice":
		return d.TotalPrice
	}
	return nil
}

// DailyRevenueResult maps YearMonth to day-of-month to revenue.
type DailyRevenueResult struct {
	ByMonth map[string]map[string]float64 `json:"daily_revenue"`
}

func (DailyRevenueResult) Analysis() AnalysisName { return AnalysisDailyRevenue }

// Days flattens the month/day map into dated rows in calendar order.
// Day keys that are not integers are skipped.
func (r DailyRevenueResult) Days() []DailyRevenueRow {
	var rows []DailyRevenueRow
	for ym, days := range r.ByMonth {
		for day, v := range days {
			d, err := strconv.Atoi(strings.TrimSpace(day))
			if err != nil {
				continue
			}
			rows = append(rows, DailyRevenueRow{Date: fmt.Sprintf("%s-%02d", ym, d), TotalPrice: v})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// SeasonalRow is revenue for a calendar month summed across years.
type SeasonalRow struct {
	Month          int     `json:"Month"`
	TotalPrice     float64 `json:"TotalPrice"`
	Recommendation string  `json:"recommendation"`
}

func (s SeasonalRow) Field(key string) any {
	switch key {
	case "Month":
		return s.Month
	case "TotalPrice":
		return s.TotalPrice
	case "recommendation":
		return s.Recommendation
	}
	return nil
}

// SeasonalityResult is revenue per calendar month.
type SeasonalityResult struct {
	Rows []SeasonalRow `json:"seasonal_revenue"`
}

func (SeasonalityResult) Analysis() AnalysisName { return AnalysisSeasonality }

// SalesDropRow explains a month whose revenue fell year over year.
type SalesDropRow struct {
	YearMonth       string   `json:"YearMonth"`
	Revenue         float64  `json:"Revenue"`
	YoYChange       float64  `json:"YoY_Change"`
	CustomerCount   float64  `json:"CustomerCount"`
	AvgOrderValue   float64  `json:"AvgOrderValue"`
	ReturnRate      float64  `json:"ReturnRate"`
	Reasons         []string `json:"Reasons"`
	Recommendations []string `json:"Recommendations"`
}

func (s SalesDropRow) Field(key string) any {
	switch key {
	case "YearMonth":
		return s.YearMonth
	case "Revenue":
		return s.Revenue
	case "YoY_Change":
		return s.YoYChange
	case "CustomerCount":
		return s.CustomerCount
	case "AvgOrderValue":
		return s.AvgOrderValue
	case "ReturnRate":
		return s.ReturnRate
	case "Reasons":
		return strings.Join(s.Reasons, "; ")
	case "Recommendations":
		return strings.Join(s.Recommendations, "; ")
	}
	return nil
}

// SalesDropResult lists months with notable revenue drops.
type SalesDropResult struct {
	Rows []SalesDropRow `json:"sales_drop_factors"`
}

func (SalesDropResult) Analysis() AnalysisName { return AnalysisSalesDrop }

// ---------------------------------------------------------------------------
// Product analyses
// ---------------------------------------------------------------------------

// ProductRevenue is a product's total revenue.
type ProductRevenue struct {
	Description string  `json:"Description"`
	TotalPrice  float64 `json:"TotalPrice"`
}

func (p ProductRevenue) Field(key string) any {
	switch key {
	case "Description":
		return p.Description
	case "TotalPrice":
		return p.TotalPrice
	}
	return nil
}

// TopProductsResult lists the highest earning products.
type TopProductsResult struct {
	Rows []ProductRevenue `json:"top_products"`
}

func (TopProductsResult) Analysis() AnalysisName { return AnalysisTopProducts }

// AffinityRule is one association rule between product sets.
type AffinityRule struct {
	Antecedents    string  `json:"antecedents"`
	Consequents    string  `json:"consequents"`
	Support        float64 `json:"support"`
	Confidence     float64 `json:"confidence"`
	Lift           float64 `json:"lift"`
	Recommendation string  `json:"recommendation"`
}

func (a AffinityRule) Field(key string) any {
	switch key {
	case "antecedents":
		return a.Antecedents
	case "consequents":
		return a.Consequents
	case "support":
		return a.Support
	case "confidence":
		return a.Confidence
	case "lift":
		return a.Lift
	case "recommendation":
		return a.Recommendation
	}
	return nil
}

// AffinityResult holds the strongest product association rules.
type AffinityResult struct {
	Rules []AffinityRule `json:"affinity_rules"`
}

func (AffinityResult) Analysis() AnalysisName { return AnalysisAffinity }

// SentimentRow is the sentiment score of a product description.
type SentimentRow struct {
	Description    string  `json:"Description"`
	Sentiment      float64 `json:"Sentiment"`
	Recommendation string  `json:"recommendation"`
}

func (s SentimentRow) Field(key string) any {
	switch key {
	case "Description":
		return s.Description
	case "Sentiment":
		return s.Sentiment
	case "recommendation":
		return s.Recommendation
	}
	return nil
}

// SentimentResult holds sentiment per product.
type SentimentResult struct {
	Rows []SentimentRow `json:"sentiment_summary"`
}

func (SentimentResult) Analysis() AnalysisName { return AnalysisSentiment }

// TurnoverRow is the inventory turnover rate of a product.
type TurnoverRow struct {
	Description    string  `json:"Description"`
	TurnoverRate   float64 `json:"Turnover_Rate"`
	Recommendation string  `json:"recommendation"`
}

func (t TurnoverRow) Field(key string) any {
	switch key {
	case "Description":
		return t.Description
	case "Turnover_Rate":
		return t.TurnoverRate
	case "recommendation":
		return t.Recommendation
	}
	return nil
}

// TurnoverResult holds inventory turnover per product.
type TurnoverResult struct {
	Rows []TurnoverRow `json:"inventory_turnover"`
}

func (TurnoverResult) Analysis() AnalysisName { return AnalysisInventoryTurnover }

// DiscountRow is simulated revenue at one discount level.
type DiscountRow struct {
	SimulatedDiscount    float64 `json:"Simulated_Discount"`
	DiscountedTotalPrice float64 `json:"Discounted_TotalPrice"`
	Recommendation       string  `json:"recommendation"`
}

func (d DiscountRow) Field(key string) any {
	switch key {
	case "Simulated_Discount":
		return d.SimulatedDiscount
	case "Discount":
		return strconv.FormatFloat(d.SimulatedDiscount, 'f', -1, 64) + "%"
	case "Discounted_TotalPrice", "value":
		return d.DiscountedTotalPrice
	case "recommendation":
		return d.Recommendation
	}
	return nil
}

// DiscountResult is the discount simulation.
type DiscountResult struct {
	Rows []DiscountRow `json:"discount_impact"`
}

func (DiscountResult) Analysis() AnalysisName { return AnalysisDiscountImpact }

// ReturnRateRow is the share of sold units returned for a product.
type ReturnRateRow struct {
	Description    string  `json:"Description"`
	Quantity       float64 `json:"Quantity"`
	ReturnRate     float64 `json:"ReturnRate"`
	Recommendation string  `json:"recommendation"`
}

func (r ReturnRateRow) Field(key string) any {
	switch key {
	case "Description":
		return r.Description
	case "Quantity":
		return r.Quantity
	case "ReturnRate":
		return r.ReturnRate
	case "recommendation":
		return r.Recommendation
	}
	return nil
}

// ReturnRateResult holds return rates per product.
type ReturnRateResult struct {
	Rows []ReturnRateRow `json:"product_return_rate"`
}

func (ReturnRateResult) Analysis() AnalysisName { return AnalysisReturnRate }

// ---------------------------------------------------------------------------
// Predictive analyses
// ---------------------------------------------------------------------------

// ChurnRow is a customer's predicted probability of churning.
type ChurnRow struct {
	CustomerID       Key     `json:"CustomerID"`
	ChurnProbability float64 `json:"Churn_Probability"`
	Recommendation   string  `json:"recommendation"`
}

func (c ChurnRow) Field(key string) any {
	switch key {
	case "CustomerID":
		return c.CustomerID.Value()
	case "Churn_Probability":
		return c.ChurnProbability
	case "recommendation":
		return c.Recommendation
	}
	return nil
}

// ChurnResult holds churn predictions and the model's evaluation.
type ChurnResult struct {
	Predictions          []ChurnRow      `json:"churn_predictions"`
	ConfusionMatrix      [][]float64     `json:"confusion_matrix"`
	ClassificationReport json.RawMessage `json:"classification_report,omitempty"`
}

func (ChurnResult) Analysis() AnalysisName { return AnalysisChurn }

// RepurchaseRow is a customer's predicted probability of buying again.
type RepurchaseRow struct {
	CustomerID            Key     `json:"CustomerID"`
	RepurchaseProbability float64 `json:"Repurchase_Probability"`
	Recommendation        string  `json:"recommendation"`
}

func (r RepurchaseRow) Field(key string) any {
	switch key {
	case "CustomerID":
		return r.CustomerID.Value()
	case "Repurchase_Probability":
		return r.RepurchaseProbability
	case "recommendation":
		return r.Recommendation
	}
	return nil
}

// RepurchaseResult holds repurchase predictions.
type RepurchaseResult struct {
	Rows []RepurchaseRow `json:"repurchase_predictions"`
}

func (RepurchaseResult) Analysis() AnalysisName { return AnalysisRepurchase }

// RetentionCohort is the retention rate of one acquisition cohort per month offset.
type RetentionCohort struct {
	Cohort string
	Months []float64
}

func (c RetentionCohort) Field(key string) any {
	if key == "cohort" {
		return c.Cohort
	}
	if m, ok := strings.CutPrefix(key, "month_"); ok {
		if i, err := strconv.Atoi(m); err == nil && i >= 0 && i < len(c.Months) {
			return c.Months[i]
		}
	}
	return nil
}

func (c *RetentionCohort) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = RetentionCohort{}
	if v, ok := raw["cohort"]; ok {
		if err := json.Unmarshal(v, &c.Cohort); err != nil {
			return fmt.Errorf("cohort: %w", err)
		}
	}
	for k, v := range raw {
		m, ok := strings.CutPrefix(k, "month_")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(m)
		if err != nil || i < 0 {
			continue
		}
		var rate float64
		if err := json.Unmarshal(v, &rate); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		for len(c.Months) <= i {
			c.Months = append(c.Months, 0)
		}
		c.Months[i] = rate
	}
	return nil
}

func (c RetentionCohort) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Months)+1)
	out["cohort"] = c.Cohort
	for i, v := range c.Months {
		out["month_"+strconv.Itoa(i)] = v
	}
	return json.Marshal(out)
}

// RetentionResult holds cohort retention and its overall average.
type RetentionResult struct {
	Cohorts        []RetentionCohort `json:"retention_data"`
	AvgRetention   float64           `json:"avg_retention"`
	Recommendation string            `json:"recommendation"`
}

func (RetentionResult) Analysis() AnalysisName { return AnalysisRetention }

// RetentionPoint is the average retention at one month offset.
type RetentionPoint struct {
	Offset int
	Rate   float64
}

func (p RetentionPoint) Field(key string) any {
	switch key {
	case "Offset":
		return "Month " + strconv.Itoa(p.Offset)
	case "value":
		return p.Rate * 100
	}
	return nil
}

// ByOffset averages retention across cohorts for each month offset.
// Cohorts too young to have an offset do not count towards it.
func (r RetentionResult) ByOffset() []RetentionPoint {
	var sums []float64
	var counts []int
	for _, c := range r.Cohorts {
		for i, v := range c.Months {
			for len(sums) <= i {
				sums = append(sums, 0)
				counts = append(counts, 0)
			}
			sums[i] += v
			counts[i]++
		}
	}
	out := make([]RetentionPoint, len(sums))
	for i := range sums {
		out[i] = RetentionPoint{Offset: i, Rate: sums[i] / float64(counts[i])}
	}
	return out
}

// MarketingRow is a campaign recommendation for one customer segment.
type MarketingRow struct {
	Segment        string   `json:"Segment"`
	CustomerCount  float64  `json:"CustomerCount"`
	TopCustomers   []string `json:"TopCustomers"`
	Recommendation string   `json:"Recommendation"`
	ProductBundles []string `json:"ProductBundles"`
}

func (m MarketingRow) Field(key string) any {
	switch key {
	case "Segment":
		return m.Segment
	case "CustomerCount":
		return m.CustomerCount
	case "TopCustomers":
		return strings.Join(m.TopCustomers, ", ")
	case "Recommendation":
		return m.Recommendation
	case "ProductBundles":
		return strings.Join(m.ProductBundles, "; ")
	}
	return nil
}

// MarketingResult holds per-segment marketing recommendations.
type MarketingResult struct {
	Rows []MarketingRow `json:"marketing_recommendations"`
}

func (MarketingResult) Analysis() AnalysisName { return AnalysisMarketing }
